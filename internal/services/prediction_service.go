package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/job-success-tracker/internal/apperrors"
	"github.com/justsurfingit/job-success-tracker/internal/dtos"
	"github.com/justsurfingit/job-success-tracker/internal/metrics"
	"github.com/justsurfingit/job-success-tracker/internal/repository"
	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

// PredictionService scores stored applications and ad-hoc records.
type PredictionService struct {
	engine *scoring.Engine
	apps   repository.ApplicationRepository
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewPredictionService(engine *scoring.Engine, apps repository.ApplicationRepository, log logrus.FieldLogger) *PredictionService {
	return &PredictionService{engine: engine, apps: apps, log: log, now: time.Now}
}

func (s *PredictionService) PredictApplication(ctx context.Context, id uint) (scoring.Prediction, error) {
	const op = "PredictionService.PredictApplication"

	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return scoring.Prediction{}, apperrors.Classify(op, fmt.Sprintf("application %d", id), err)
	}
	p, err := s.engine.Predict(app.Record())
	if err != nil {
		return scoring.Prediction{}, apperrors.Classify(op, "cannot score application", err)
	}
	metrics.ObservePrediction("application", p.SuccessProbability)
	return p, nil
}

// PredictRecord scores an application that has not been saved.
func (s *PredictionService) PredictRecord(_ context.Context, req *dtos.ApplicationRequest) (scoring.Prediction, error) {
	const op = "PredictionService.PredictRecord"

	rec, err := req.Record(s.now())
	if err != nil {
		return scoring.Prediction{}, apperrors.Classify(op, "invalid application", err)
	}
	p, err := s.engine.Predict(rec)
	if err != nil {
		return scoring.Prediction{}, apperrors.Classify(op, "invalid application", err)
	}
	metrics.ObservePrediction("record", p.SuccessProbability)
	return p, nil
}

// Dashboard scores every stored application.
func (s *PredictionService) Dashboard(ctx context.Context) (scoring.Summary, error) {
	const op = "PredictionService.Dashboard"

	apps, err := s.apps.List(ctx, repository.ListOptions{})
	if err != nil {
		return scoring.Summary{}, apperrors.Classify(op, "failed to list applications", err)
	}
	records := make([]scoring.Record, 0, len(apps))
	for _, a := range apps {
		records = append(records, a.Record())
	}

	sum, err := s.engine.Summarize(records)
	if err != nil {
		return scoring.Summary{}, apperrors.Classify(op, "stored application cannot be scored", err)
	}
	for _, sc := range sum.Predictions {
		metrics.ObservePrediction("dashboard", sc.Prediction.SuccessProbability)
	}
	s.log.WithFields(logrus.Fields{
		"applications": len(records),
		"average":      sum.AverageProbability,
	}).Debug("dashboard scored")
	return sum, nil
}
