package services

import (
	"context"
	"net/mail"
	"strings"

	"github.com/justsurfingit/job-success-tracker/internal/models"
	"github.com/justsurfingit/job-success-tracker/internal/repository"
)

// minCompanyNameLen skips names like "X" or "Go" that match every email.
const minCompanyNameLen = 3

type MatcherService struct {
	apps repository.ApplicationRepository
}

func NewMatcherService(apps repository.ApplicationRepository) *MatcherService {
	return &MatcherService{apps: apps}
}

// FindCompanyFromEmail matches an email to a tracked company by subject,
// sender display name, then sender domain. It returns nil when nothing
// matches.
func (s *MatcherService) FindCompanyFromEmail(ctx context.Context, subject, rawSender string) (*models.Company, error) {
	companies, err := s.apps.Companies(ctx)
	if err != nil {
		return nil, err
	}
	return matchCompany(companies, subject, rawSender), nil
}

func matchCompany(companies []models.Company, subject, rawSender string) *models.Company {
	// "Stripe Recruiting <jobs@stripe.com>"
	var senderName, senderAddr string
	if addr, err := mail.ParseAddress(rawSender); err == nil {
		senderName = strings.ToLower(addr.Name)
		senderAddr = strings.ToLower(addr.Address)
	} else {
		senderAddr = strings.ToLower(rawSender)
	}
	var domain string
	if at := strings.LastIndexByte(senderAddr, '@'); at >= 0 {
		domain = senderAddr[at+1:]
	}
	subjectLower := strings.ToLower(subject)

	for i := range companies {
		name := strings.ToLower(companies[i].Name)
		if len(name) < minCompanyNameLen {
			continue
		}
		compact := strings.ReplaceAll(name, " ", "")
		switch {
		case strings.Contains(subjectLower, name),
			senderName != "" && strings.Contains(senderName, name),
			domain != "" && strings.Contains(domain, compact):
			return &companies[i]
		}
	}
	return nil
}
