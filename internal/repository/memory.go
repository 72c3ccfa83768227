package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/justsurfingit/job-success-tracker/internal/apperrors"
	"github.com/justsurfingit/job-success-tracker/internal/models"
	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

// NewMemoryStore keeps everything in process memory; state is lost on
// restart.
func NewMemoryStore() Store {
	m := &memory{
		companies:    map[uint]models.Company{},
		applications: map[uint]models.Application{},
		processed:    map[string]time.Time{},
	}
	return Store{
		Applications: &memoryApplications{m},
		Events:       &memoryEvents{m},
		Users:        &memoryUsers{m},
		Mailbox:      &memoryMailbox{m},
	}
}

type memory struct {
	mu sync.RWMutex

	nextCompanyID uint
	nextAppID     uint
	nextEventID   uint

	companies    map[uint]models.Company
	applications map[uint]models.Application
	events       []models.ApplicationEvent
	user         *models.User
	processed    map[string]time.Time
}

func cloneApplication(a models.Application) models.Application {
	a.Skills = slices.Clone(a.Skills)
	if a.Salary != nil {
		v := *a.Salary
		a.Salary = &v
	}
	if a.ApplicationQuality != nil {
		v := *a.ApplicationQuality
		a.ApplicationQuality = &v
	}
	a.Company.Applications = nil
	return a
}

// withCompany must be called with m.mu held.
func (m *memory) withCompany(a models.Application) models.Application {
	a = cloneApplication(a)
	a.Company = m.companies[a.CompanyID]
	return a
}

type memoryApplications struct{ m *memory }

func (r *memoryApplications) Create(_ context.Context, app *models.Application, companyName string) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	var company models.Company
	found := false
	for _, c := range m.companies {
		if c.Name == companyName {
			company, found = c, true
			break
		}
	}
	if !found {
		m.nextCompanyID++
		company = models.Company{ID: m.nextCompanyID, Name: companyName, CreatedAt: now, UpdatedAt: now}
		m.companies[company.ID] = company
	}

	m.nextAppID++
	app.ID = m.nextAppID
	app.CompanyID = company.ID
	app.Company = company
	app.CreatedAt, app.UpdatedAt = now, now
	if app.Status == "" {
		app.Status = "Applied"
	}
	if app.Priority == "" {
		app.Priority = "Medium"
	}
	m.applications[app.ID] = cloneApplication(*app)
	return nil
}

func (r *memoryApplications) List(_ context.Context, opts ListOptions) ([]models.Application, error) {
	m := r.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	apps := make([]models.Application, 0, len(m.applications))
	for _, a := range m.applications {
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		apps = append(apps, m.withCompany(a))
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
	if opts.SortBy.Valid() {
		sort.SliceStable(apps, func(i, j int) bool {
			c := compareBy(opts.SortBy, apps[i], apps[j])
			if opts.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	return apps, nil
}

func compareBy(f SortField, a, b models.Application) int {
	switch f {
	case SortCompany:
		return strings.Compare(a.Company.Name, b.Company.Name)
	case SortPosition:
		return strings.Compare(a.Position, b.Position)
	case SortDate:
		return a.AppliedOn.Compare(b.AppliedOn)
	case SortStatus:
		return strings.Compare(a.Status, b.Status)
	case SortPriority:
		return strings.Compare(a.Priority, b.Priority)
	}
	return 0
}

func (r *memoryApplications) Get(_ context.Context, id uint) (*models.Application, error) {
	m := r.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.applications[id]
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrNotFound, "application %d", id)
	}
	out := m.withCompany(a)
	return &out, nil
}

func (r *memoryApplications) Update(ctx context.Context, id uint, patch ApplicationPatch) (*models.Application, error) {
	m := r.m
	m.mu.Lock()
	a, ok := m.applications[id]
	if !ok {
		m.mu.Unlock()
		return nil, errors.Wrapf(apperrors.ErrNotFound, "application %d", id)
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.Priority != nil {
		a.Priority = *patch.Priority
	}
	if patch.FollowUpDone != nil {
		a.FollowUpDone = *patch.FollowUpDone
	}
	if patch.ApplicationQuality != nil {
		q := *patch.ApplicationQuality
		a.ApplicationQuality = &q
	}
	if patch.Notes != nil {
		a.Notes = *patch.Notes
	}
	if !patch.Empty() {
		a.UpdatedAt = time.Now().UTC()
	}
	m.applications[id] = a
	m.mu.Unlock()
	return r.Get(ctx, id)
}

func (r *memoryApplications) Delete(_ context.Context, id uint) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.applications[id]; !ok {
		return errors.Wrapf(apperrors.ErrNotFound, "application %d", id)
	}
	delete(m.applications, id)
	return nil
}

func (r *memoryApplications) ActiveByCompany(ctx context.Context, companyID uint) ([]models.Application, error) {
	all, err := r.List(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	var active []models.Application
	for _, a := range all {
		if a.CompanyID == companyID && !scoring.Status(a.Status).Terminal() {
			active = append(active, a)
		}
	}
	return active, nil
}

func (r *memoryApplications) Companies(_ context.Context) ([]models.Company, error) {
	m := r.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryEvents struct{ m *memory }

func (r *memoryEvents) Append(_ context.Context, ev *models.ApplicationEvent) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextEventID++
	ev.ID = m.nextEventID
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	m.events = append(m.events, *ev)
	return nil
}

func (r *memoryEvents) ListByApplication(_ context.Context, applicationID uint) ([]models.ApplicationEvent, error) {
	m := r.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.ApplicationEvent
	for _, ev := range m.events {
		if ev.ApplicationID == applicationID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type memoryUsers struct{ m *memory }

func (r *memoryUsers) Default(_ context.Context) (*models.User, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.user == nil {
		u := defaultUser()
		u.ID = 1
		u.CreatedAt = time.Now().UTC()
		u.UpdatedAt = u.CreatedAt
		m.user = &u
	}
	out := *m.user
	return &out, nil
}

func (r *memoryUsers) Save(_ context.Context, u *models.User) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	u.UpdatedAt = time.Now().UTC()
	saved := *u
	m.user = &saved
	return nil
}

type memoryMailbox struct{ m *memory }

func (r *memoryMailbox) IsProcessed(_ context.Context, messageID string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	_, ok := r.m.processed[messageID]
	return ok, nil
}

func (r *memoryMailbox) MarkProcessed(_ context.Context, messageID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.processed[messageID]; !ok {
		r.m.processed[messageID] = time.Now().UTC()
	}
	return nil
}
