package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justsurfingit/job-success-tracker/internal/apperrors"
	"github.com/justsurfingit/job-success-tracker/internal/models"
)

func NewGormStore(db *gorm.DB) Store {
	return Store{
		Applications: &applicationRepo{db: db},
		Events:       &eventRepo{db: db},
		Users:        &userRepo{db: db},
		Mailbox:      &mailboxRepo{db: db},
	}
}

type applicationRepo struct {
	db *gorm.DB
}

func (r *applicationRepo) Create(ctx context.Context, app *models.Application, companyName string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.Where(models.Company{Name: companyName}).FirstOrCreate(&company).Error; err != nil {
			return errors.Wrapf(err, "find or create company %q", companyName)
		}
		app.CompanyID = company.ID
		if err := tx.Omit(clause.Associations).Create(app).Error; err != nil {
			return errors.Wrap(err, "insert application")
		}
		app.Company = company
		return nil
	})
}

func (r *applicationRepo) List(ctx context.Context, opts ListOptions) ([]models.Application, error) {
	q := r.db.WithContext(ctx).Joins("Company")
	if opts.Status != "" {
		q = q.Where("applications.status = ?", opts.Status)
	}
	if col, ok := sortColumn(opts.SortBy); ok {
		q = q.Order(clause.OrderByColumn{Column: col, Desc: opts.Desc})
	}
	q = q.Order("applications.id")

	var apps []models.Application
	if err := q.Find(&apps).Error; err != nil {
		return nil, errors.Wrap(err, "list applications")
	}
	return apps, nil
}

func sortColumn(f SortField) (clause.Column, bool) {
	switch f {
	case SortCompany:
		return clause.Column{Table: "Company", Name: "name"}, true
	case SortPosition:
		return clause.Column{Table: "applications", Name: "position"}, true
	case SortDate:
		return clause.Column{Table: "applications", Name: "applied_on"}, true
	case SortStatus:
		return clause.Column{Table: "applications", Name: "status"}, true
	case SortPriority:
		return clause.Column{Table: "applications", Name: "priority"}, true
	}
	return clause.Column{}, false
}

func (r *applicationRepo) Get(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).Joins("Company").First(&app, "applications.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(apperrors.ErrNotFound, "application %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get application %d", id)
	}
	return &app, nil
}

func (r *applicationRepo) Update(ctx context.Context, id uint, patch ApplicationPatch) (*models.Application, error) {
	if !patch.Empty() {
		fields := map[string]any{}
		if patch.Status != nil {
			fields["status"] = *patch.Status
		}
		if patch.Priority != nil {
			fields["priority"] = *patch.Priority
		}
		if patch.FollowUpDone != nil {
			fields["follow_up_done"] = *patch.FollowUpDone
		}
		if patch.ApplicationQuality != nil {
			fields["application_quality"] = *patch.ApplicationQuality
		}
		if patch.Notes != nil {
			fields["notes"] = *patch.Notes
		}
		res := r.db.WithContext(ctx).Model(&models.Application{ID: id}).Updates(fields)
		if res.Error != nil {
			return nil, errors.Wrapf(res.Error, "update application %d", id)
		}
		if res.RowsAffected == 0 {
			return nil, errors.Wrapf(apperrors.ErrNotFound, "application %d", id)
		}
	}
	return r.Get(ctx, id)
}

func (r *applicationRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Application{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete application %d", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(apperrors.ErrNotFound, "application %d", id)
	}
	return nil
}

func (r *applicationRepo) ActiveByCompany(ctx context.Context, companyID uint) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.WithContext(ctx).Joins("Company").
		Where("applications.company_id = ? AND applications.status NOT IN ?", companyID, terminalStatuses()).
		Order("applications.id").
		Find(&apps).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list active applications for company %d", companyID)
	}
	return apps, nil
}

func (r *applicationRepo) Companies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	if err := r.db.WithContext(ctx).Order("id").Find(&companies).Error; err != nil {
		return nil, errors.Wrap(err, "list companies")
	}
	return companies, nil
}

type eventRepo struct {
	db *gorm.DB
}

func (r *eventRepo) Append(ctx context.Context, ev *models.ApplicationEvent) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(ev).Error, "insert event")
}

func (r *eventRepo) ListByApplication(ctx context.Context, applicationID uint) ([]models.ApplicationEvent, error) {
	var events []models.ApplicationEvent
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at, id").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list events for application %d", applicationID)
	}
	return events, nil
}

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Default(ctx context.Context) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Order("id").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = defaultUser()
		if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, errors.Wrap(err, "create default user")
		}
		return &user, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get default user")
	}
	return &user, nil
}

func (r *userRepo) Save(ctx context.Context, u *models.User) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(u).Error, "save user")
}

type mailboxRepo struct {
	db *gorm.DB
}

func (r *mailboxRepo) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProcessedEmail{}).Where("id = ?", messageID).Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "check processed email %s", messageID)
	}
	return count > 0, nil
}

func (r *mailboxRepo) MarkProcessed(ctx context.Context, messageID string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ProcessedEmail{ID: messageID}).Error
	return errors.Wrapf(err, "mark email %s processed", messageID)
}

func defaultUser() models.User {
	return models.User{
		Email:                "default",
		EmailNotifications:   true,
		ApplicationReminders: true,
		WeeklyReports:        true,
		FollowUpReminders:    true,
		InterviewPrep:        true,
		Theme:                "light",
	}
}
