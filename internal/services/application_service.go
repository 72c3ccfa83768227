package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/job-success-tracker/internal/apperrors"
	"github.com/justsurfingit/job-success-tracker/internal/dtos"
	"github.com/justsurfingit/job-success-tracker/internal/metrics"
	"github.com/justsurfingit/job-success-tracker/internal/models"
	"github.com/justsurfingit/job-success-tracker/internal/repository"
	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

type ApplicationService struct {
	apps   repository.ApplicationRepository
	events repository.EventRepository
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewApplicationService(store repository.Store, log logrus.FieldLogger) *ApplicationService {
	return &ApplicationService{
		apps:   store.Applications,
		events: store.Events,
		log:    log,
		now:    time.Now,
	}
}

func (s *ApplicationService) Create(ctx context.Context, req *dtos.ApplicationRequest) (*models.Application, error) {
	const op = "ApplicationService.Create"

	rec, err := req.Record(s.now())
	if err == nil {
		err = scoring.Validate(rec)
	}
	if err != nil {
		return nil, apperrors.Classify(op, "invalid application", err)
	}

	app := &models.Application{
		Position:           rec.Position,
		AppliedOn:          rec.Date,
		Status:             string(rec.Status),
		Priority:           string(rec.Priority),
		Skills:             rec.Skills,
		Description:        req.Description,
		Location:           rec.Location,
		Salary:             rec.Salary,
		JobLink:            req.JobLink,
		ResumeLink:         req.ResumeLink,
		Notes:              req.Notes,
		ContactName:        req.ContactName,
		ContactEmail:       req.ContactEmail,
		FollowUpDone:       rec.FollowUpDone,
		ApplicationQuality: rec.ApplicationQuality,
	}
	if err := s.apps.Create(ctx, app, rec.Company); err != nil {
		return nil, apperrors.Classify(op, "failed to create application", err)
	}
	metrics.ApplicationsCreated.Inc()

	s.appendEvent(ctx, app.ID, models.EventCreated,
		fmt.Sprintf("Applied to %s at %s", app.Position, rec.Company))
	s.log.WithFields(logrus.Fields{"application_id": app.ID, "company": rec.Company}).Info("application created")
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, q dtos.ListApplicationsQuery) ([]models.Application, error) {
	const op = "ApplicationService.List"

	opts := repository.ListOptions{
		SortBy: repository.SortField(q.Sort),
		Desc:   q.Order == "desc",
	}
	if q.Sort != "" && !opts.SortBy.Valid() {
		return nil, apperrors.E(apperrors.CodeInvalidArgument, op, fmt.Sprintf("unknown sort key %q", q.Sort), nil)
	}
	if q.Status != "" {
		st, err := scoring.ParseStatus(q.Status)
		if err != nil {
			return nil, apperrors.Classify(op, "invalid status filter", err)
		}
		opts.Status = string(st)
	}

	apps, err := s.apps.List(ctx, opts)
	if err != nil {
		return nil, apperrors.Classify(op, "failed to list applications", err)
	}
	return apps, nil
}

func (s *ApplicationService) Get(ctx context.Context, id uint) (*models.Application, error) {
	const op = "ApplicationService.Get"

	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Classify(op, fmt.Sprintf("application %d", id), err)
	}
	return app, nil
}

// Update applies the non-nil fields of req. A status change is recorded as
// a STATUS_CHANGE event.
func (s *ApplicationService) Update(ctx context.Context, id uint, req *dtos.ApplicationPatchRequest) (*models.Application, error) {
	const op = "ApplicationService.Update"

	patch := repository.ApplicationPatch{
		FollowUpDone:       req.FollowUpDone,
		ApplicationQuality: req.ApplicationQuality,
		Notes:              req.Notes,
	}
	if req.Status != nil {
		st, err := scoring.ParseStatus(*req.Status)
		if err != nil {
			return nil, apperrors.Classify(op, "invalid status", err)
		}
		v := string(st)
		patch.Status = &v
	}
	if req.Priority != nil {
		p, err := scoring.ParsePriority(*req.Priority)
		if err != nil {
			return nil, apperrors.Classify(op, "invalid priority", err)
		}
		v := string(p)
		patch.Priority = &v
	}
	if q := patch.ApplicationQuality; q != nil && (*q < 0 || *q > 100) {
		return nil, apperrors.E(apperrors.CodeInvalidArgument, op, "application_quality must be within 0-100", nil)
	}
	if patch.Empty() {
		return nil, apperrors.E(apperrors.CodeInvalidArgument, op, "nothing to update", nil)
	}

	before, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Classify(op, fmt.Sprintf("application %d", id), err)
	}
	app, err := s.apps.Update(ctx, id, patch)
	if err != nil {
		return nil, apperrors.Classify(op, fmt.Sprintf("application %d", id), err)
	}

	if patch.Status != nil && *patch.Status != before.Status {
		metrics.StatusChanges.WithLabelValues("api", app.Status).Inc()
		s.appendEvent(ctx, app.ID, models.EventStatusChange,
			fmt.Sprintf("Status changed from %s to %s", before.Status, app.Status))
	}
	return app, nil
}

func (s *ApplicationService) Delete(ctx context.Context, id uint) error {
	const op = "ApplicationService.Delete"

	if err := s.apps.Delete(ctx, id); err != nil {
		return apperrors.Classify(op, fmt.Sprintf("application %d", id), err)
	}
	s.log.WithField("application_id", id).Info("application deleted")
	return nil
}

func (s *ApplicationService) Events(ctx context.Context, id uint) ([]models.ApplicationEvent, error) {
	const op = "ApplicationService.Events"

	if _, err := s.apps.Get(ctx, id); err != nil {
		return nil, apperrors.Classify(op, fmt.Sprintf("application %d", id), err)
	}
	evs, err := s.events.ListByApplication(ctx, id)
	if err != nil {
		return nil, apperrors.Classify(op, "failed to list events", err)
	}
	return evs, nil
}

// appendEvent logs instead of failing; the history is best effort.
func (s *ApplicationService) appendEvent(ctx context.Context, appID uint, kind, details string) {
	ev := &models.ApplicationEvent{ApplicationID: appID, EventType: kind, Details: details}
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.WithError(err).WithField("application_id", appID).Warn("failed to record application event")
	}
}
