package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/job-success-tracker/internal/apperrors"
	"github.com/justsurfingit/job-success-tracker/internal/dtos"
	"github.com/justsurfingit/job-success-tracker/internal/models"
	"github.com/justsurfingit/job-success-tracker/internal/repository"
)

// SettingsService manages the single dashboard user's profile and
// preferences.
type SettingsService struct {
	users repository.UserRepository
	log   logrus.FieldLogger
}

func NewSettingsService(users repository.UserRepository, log logrus.FieldLogger) *SettingsService {
	return &SettingsService{users: users, log: log}
}

func (s *SettingsService) Get(ctx context.Context) (dtos.Settings, error) {
	u, err := s.users.Default(ctx)
	if err != nil {
		return dtos.Settings{}, apperrors.Classify("SettingsService.Get", "failed to load settings", err)
	}
	return toSettings(u), nil
}

func (s *SettingsService) Update(ctx context.Context, in dtos.Settings) (dtos.Settings, error) {
	const op = "SettingsService.Update"

	u, err := s.users.Default(ctx)
	if err != nil {
		return dtos.Settings{}, apperrors.Classify(op, "failed to load settings", err)
	}

	p := in.Profile
	if p.Email != "" {
		u.Email = p.Email
	}
	u.Name, u.Title, u.Skills = p.Name, p.Title, p.Skills
	u.Experience, u.Education = p.Experience, p.Education
	u.ResumeURL, u.PortfolioURL = p.ResumeURL, p.PortfolioURL
	u.LinkedinURL, u.GithubURL = p.LinkedinURL, p.GithubURL

	pr := in.Preferences
	u.EmailNotifications = pr.EmailNotifications
	u.ApplicationReminders = pr.ApplicationReminders
	u.WeeklyReports = pr.WeeklyReports
	u.FollowUpReminders = pr.FollowUpReminders
	u.InterviewPrep = pr.InterviewPrep
	if pr.Theme != "" {
		switch pr.Theme {
		case "light", "dark", "system":
			u.Theme = pr.Theme
		default:
			return dtos.Settings{}, apperrors.E(apperrors.CodeInvalidArgument, op, "theme must be light, dark or system", nil)
		}
	}

	if err := s.users.Save(ctx, u); err != nil {
		return dtos.Settings{}, apperrors.Classify(op, "failed to save settings", err)
	}
	s.log.WithField("user_id", u.ID).Info("settings updated")
	return toSettings(u), nil
}

func toSettings(u *models.User) dtos.Settings {
	return dtos.Settings{
		Profile: dtos.ProfileSettings{
			Name:         u.Name,
			Email:        u.Email,
			Title:        u.Title,
			Skills:       u.Skills,
			Experience:   u.Experience,
			Education:    u.Education,
			ResumeURL:    u.ResumeURL,
			PortfolioURL: u.PortfolioURL,
			LinkedinURL:  u.LinkedinURL,
			GithubURL:    u.GithubURL,
		},
		Preferences: dtos.PreferenceSettings{
			EmailNotifications:   u.EmailNotifications,
			ApplicationReminders: u.ApplicationReminders,
			WeeklyReports:        u.WeeklyReports,
			FollowUpReminders:    u.FollowUpReminders,
			InterviewPrep:        u.InterviewPrep,
			Theme:                u.Theme,
		},
	}
}
