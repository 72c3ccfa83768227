// Package repository persists applications, their events, the dashboard
// user and the mailbox bookmark. Every interface has a gorm (Postgres)
// implementation and an in-memory one.
package repository

import (
	"context"

	"github.com/justsurfingit/job-success-tracker/internal/models"
	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

type SortField string

const (
	SortCompany  SortField = "company"
	SortPosition SortField = "position"
	SortDate     SortField = "date"
	SortStatus   SortField = "status"
	SortPriority SortField = "priority"
)

func (f SortField) Valid() bool {
	switch f {
	case SortCompany, SortPosition, SortDate, SortStatus, SortPriority:
		return true
	}
	return false
}

type ListOptions struct {
	SortBy SortField // empty keeps insertion order
	Desc   bool
	Status string // empty lists every status
}

// ApplicationPatch holds the mutable fields; nil means unchanged.
type ApplicationPatch struct {
	Status             *string
	Priority           *string
	FollowUpDone       *bool
	ApplicationQuality *int
	Notes              *string
}

func (p ApplicationPatch) Empty() bool {
	return p.Status == nil && p.Priority == nil && p.FollowUpDone == nil &&
		p.ApplicationQuality == nil && p.Notes == nil
}

type ApplicationRepository interface {
	// Create links app to the company named companyName, creating the
	// company when it is not tracked yet.
	Create(ctx context.Context, app *models.Application, companyName string) error
	List(ctx context.Context, opts ListOptions) ([]models.Application, error)
	Get(ctx context.Context, id uint) (*models.Application, error)
	Update(ctx context.Context, id uint, patch ApplicationPatch) (*models.Application, error)
	Delete(ctx context.Context, id uint) error
	// ActiveByCompany skips applications in a terminal status.
	ActiveByCompany(ctx context.Context, companyID uint) ([]models.Application, error)
	Companies(ctx context.Context) ([]models.Company, error)
}

type EventRepository interface {
	Append(ctx context.Context, ev *models.ApplicationEvent) error
	ListByApplication(ctx context.Context, applicationID uint) ([]models.ApplicationEvent, error)
}

type UserRepository interface {
	// Default returns the dashboard owner, creating it on first use.
	Default(ctx context.Context) (*models.User, error)
	Save(ctx context.Context, u *models.User) error
}

type MailboxRepository interface {
	IsProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID string) error
}

type Store struct {
	Applications ApplicationRepository
	Events       EventRepository
	Users        UserRepository
	Mailbox      MailboxRepository
}

// terminalStatuses never receive mailbox updates.
func terminalStatuses() []string {
	var out []string
	for _, st := range scoring.Statuses() {
		if st.Terminal() {
			out = append(out, string(st))
		}
	}
	return out
}
