package services

import (
	"context"

	"github.com/justsurfingit/job-success-tracker/internal/analytics"
	"github.com/justsurfingit/job-success-tracker/internal/apperrors"
	"github.com/justsurfingit/job-success-tracker/internal/repository"
	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

type AnalyticsService struct {
	apps   repository.ApplicationRepository
	engine *scoring.Engine
}

func NewAnalyticsService(apps repository.ApplicationRepository, engine *scoring.Engine) *AnalyticsService {
	return &AnalyticsService{apps: apps, engine: engine}
}

func (s *AnalyticsService) Report(ctx context.Context) (analytics.Report, error) {
	apps, err := s.apps.List(ctx, repository.ListOptions{SortBy: repository.SortDate})
	if err != nil {
		return analytics.Report{}, apperrors.Classify("AnalyticsService.Report", "failed to list applications", err)
	}
	records := make([]scoring.Record, 0, len(apps))
	for _, a := range apps {
		records = append(records, a.Record())
	}
	return analytics.Build(records, s.engine), nil
}
