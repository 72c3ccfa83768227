package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

// User holds the single dashboard owner: profile, preferences and the
// Gmail history bookmark.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	LastHistoryID uint64 `json:"-"`

	Name         string `json:"name"`
	Title        string `json:"title"`
	Skills       string `json:"skills"`
	Experience   string `json:"experience"`
	Education    string `json:"education"`
	ResumeURL    string `json:"resume_url"`
	PortfolioURL string `json:"portfolio_url"`
	LinkedinURL  string `json:"linkedin_url"`
	GithubURL    string `json:"github_url"`

	EmailNotifications   bool   `gorm:"default:true" json:"email_notifications"`
	ApplicationReminders bool   `gorm:"default:true" json:"application_reminders"`
	WeeklyReports        bool   `gorm:"default:true" json:"weekly_reports"`
	FollowUpReminders    bool   `gorm:"default:true" json:"follow_up_reminders"`
	InterviewPrep        bool   `gorm:"default:true" json:"interview_prep"`
	Theme                string `gorm:"default:'light'" json:"theme"`
}

type Company struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"uniqueIndex;not null" json:"company_name"`

	Applications []Application `json:"applications,omitempty"`
}

type Application struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CompanyID uint    `gorm:"index" json:"company_id"`
	Company   Company `json:"company"`

	Position    string         `gorm:"not null" json:"position"`
	AppliedOn   time.Time      `gorm:"type:date;not null" json:"date"`
	Status      string         `gorm:"default:'Applied';index" json:"status"`
	Priority    string         `gorm:"default:'Medium'" json:"priority"`
	Skills      pq.StringArray `gorm:"type:text[]" json:"skills"`
	Description string         `gorm:"type:text" json:"description"`
	Location    string         `json:"location"`
	Salary      *int           `json:"salary"`
	JobLink     string         `json:"job_link"`
	ResumeLink  string         `json:"resume_link"`
	Notes       string         `gorm:"type:text" json:"notes"`

	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`

	FollowUpDone       bool `json:"follow_up_done"`
	ApplicationQuality *int `json:"application_quality"`
}

// Record converts the row into the scoring engine's input.
func (a Application) Record() scoring.Record {
	skills := make([]string, len(a.Skills))
	copy(skills, a.Skills)
	return scoring.Record{
		Company:            a.Company.Name,
		Position:           a.Position,
		Date:               a.AppliedOn,
		Status:             scoring.Status(a.Status),
		Priority:           scoring.Priority(a.Priority),
		Skills:             skills,
		Location:           a.Location,
		Salary:             a.Salary,
		FollowUpDone:       a.FollowUpDone,
		ApplicationQuality: a.ApplicationQuality,
	}
}

const (
	EventCreated      = "CREATED"
	EventStatusChange = "STATUS_CHANGE"
	EventEmailUpdate  = "EMAIL_UPDATE"
)

type ApplicationEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	ApplicationID uint      `gorm:"index" json:"application_id"`
	EventType     string    `json:"event_type"`
	Details       string    `gorm:"type:text" json:"details"`
}

type ProcessedEmail struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}

// All lists the models to migrate.
func All() []any {
	return []any{&Company{}, &Application{}, &ApplicationEvent{}, &User{}, &ProcessedEmail{}}
}
