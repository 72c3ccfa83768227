package scoring

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidInput is returned for records that cannot be scored.
var ErrInvalidInput = errors.New("invalid input")

type Status string

const (
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
	StatusRejected  Status = "Rejected"
)

// Statuses lists every status in pipeline order.
func Statuses() []Status {
	return []Status{StatusApplied, StatusInterview, StatusOffer, StatusRejected}
}

// ParseStatus accepts any casing ("APPLIED", "applied", "Applied").
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidInput, "unknown status %q", s)
}

// Terminal reports whether no further updates are expected for the status.
func (s Status) Terminal() bool {
	return s == StatusOffer || s == StatusRejected
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func ParsePriority(s string) (Priority, error) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidInput, "unknown priority %q", s)
}

// Record is a single job application as seen by the engine.
type Record struct {
	Company  string
	Position string
	Date     time.Time
	Status   Status
	Priority Priority
	Skills   []string

	Location           string
	Salary             *int
	FollowUpDone       bool
	ApplicationQuality *int
}

// Key identifies a record on the predictions dashboard.
func (r Record) Key() string {
	return r.Company + "-" + r.Position
}

// Validate rejects records the engine must not score. The engine itself
// never clamps quality, so out-of-range values are stopped here.
func Validate(r Record) error {
	if strings.TrimSpace(r.Company) == "" {
		return errors.Wrap(ErrInvalidInput, "company is required")
	}
	if strings.TrimSpace(r.Position) == "" {
		return errors.Wrap(ErrInvalidInput, "position is required")
	}
	if r.Date.IsZero() {
		return errors.Wrap(ErrInvalidInput, "date is required")
	}
	if _, err := ParseStatus(string(r.Status)); err != nil {
		return err
	}
	if _, err := ParsePriority(string(r.Priority)); err != nil {
		return err
	}
	if q := r.ApplicationQuality; q != nil && (*q < 0 || *q > 100) {
		return errors.Wrapf(ErrInvalidInput, "applicationQuality %d outside 0-100", *q)
	}
	if r.Salary != nil && *r.Salary < 0 {
		return errors.Wrap(ErrInvalidInput, "salary must not be negative")
	}
	seen := make(map[string]struct{}, len(r.Skills))
	for _, s := range r.Skills {
		if _, dup := seen[s]; dup {
			return errors.Wrapf(ErrInvalidInput, "skill %q listed more than once", s)
		}
		seen[s] = struct{}{}
	}
	return nil
}
