package dtos

import (
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

const DateLayout = "2006-01-02"

// ApplicationRequest is the body of POST /applications and POST /predictions.
type ApplicationRequest struct {
	Company  string   `json:"company" binding:"required"`
	Position string   `json:"position" binding:"required"`
	Date     string   `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Status   string   `json:"status"`   // Defaults to "Applied"
	Priority string   `json:"priority"` // Defaults to "Medium"
	Skills   []string `json:"skills"`

	// Optional Fields
	Description        string `json:"description"`
	Location           string `json:"location"`
	Salary             *int   `json:"salary" binding:"omitempty,min=0"`
	JobLink            string `json:"job_link"`
	ResumeLink         string `json:"resume_link"`
	Notes              string `json:"notes"`
	ContactName        string `json:"contact_name"`
	ContactEmail       string `json:"contact_email" binding:"omitempty,email"`
	FollowUpDone       bool   `json:"follow_up_done"`
	ApplicationQuality *int   `json:"application_quality" binding:"omitempty,min=0,max=100"`
}

// Record converts the request into a scoring record, filling the status,
// priority and date defaults. today is used when no date is given.
func (r *ApplicationRequest) Record(today time.Time) (scoring.Record, error) {
	rec := scoring.Record{
		Company:            strings.TrimSpace(r.Company),
		Position:           strings.TrimSpace(r.Position),
		Date:               truncateDay(today),
		Status:             scoring.StatusApplied,
		Priority:           scoring.PriorityMedium,
		Skills:             cleanSkills(r.Skills),
		Location:           r.Location,
		Salary:             r.Salary,
		FollowUpDone:       r.FollowUpDone,
		ApplicationQuality: r.ApplicationQuality,
	}
	if r.Date != "" {
		d, err := time.Parse(DateLayout, r.Date)
		if err != nil {
			return rec, errors.Wrapf(scoring.ErrInvalidInput, "date %q is not YYYY-MM-DD", r.Date)
		}
		rec.Date = d
	}
	if r.Status != "" {
		st, err := scoring.ParseStatus(r.Status)
		if err != nil {
			return rec, err
		}
		rec.Status = st
	}
	if r.Priority != "" {
		p, err := scoring.ParsePriority(r.Priority)
		if err != nil {
			return rec, err
		}
		rec.Priority = p
	}
	return rec, nil
}

// ApplicationPatchRequest is the body of PATCH /applications/:id.
type ApplicationPatchRequest struct {
	Status             *string `json:"status"`
	Priority           *string `json:"priority"`
	FollowUpDone       *bool   `json:"follow_up_done"`
	ApplicationQuality *int    `json:"application_quality" binding:"omitempty,min=0,max=100"`
	Notes              *string `json:"notes"`
}

// ListApplicationsQuery binds the query string of GET /applications.
type ListApplicationsQuery struct {
	Sort   string `form:"sort" binding:"omitempty,oneof=company position date status priority"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc"`
	Status string `form:"status"`
}

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// cleanSkills trims entries and drops blanks and repeats, keeping first
// occurrence order.
func cleanSkills(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
