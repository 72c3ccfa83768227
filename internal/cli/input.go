package cli

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/justsurfingit/job-success-tracker/internal/dtos"
	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

// applicationFile is the input format; JSON input parses as YAML.
type applicationFile struct {
	Applications []applicationEntry `yaml:"applications"`
}

type applicationEntry struct {
	Company            string   `yaml:"company"`
	Position           string   `yaml:"position"`
	Date               string   `yaml:"date"`
	Status             string   `yaml:"status"`
	Priority           string   `yaml:"priority"`
	Skills             []string `yaml:"skills"`
	Location           string   `yaml:"location"`
	Salary             *int     `yaml:"salary"`
	FollowUpDone       bool     `yaml:"follow_up_done"`
	ApplicationQuality *int     `yaml:"application_quality"`
}

func (e applicationEntry) request() dtos.ApplicationRequest {
	return dtos.ApplicationRequest{
		Company:            e.Company,
		Position:           e.Position,
		Date:               e.Date,
		Status:             e.Status,
		Priority:           e.Priority,
		Skills:             e.Skills,
		Location:           e.Location,
		Salary:             e.Salary,
		FollowUpDone:       e.FollowUpDone,
		ApplicationQuality: e.ApplicationQuality,
	}
}

func readRecords(path string, today time.Time) ([]scoring.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read applications")
	}
	var f applicationFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	records := make([]scoring.Record, 0, len(f.Applications))
	for i, e := range f.Applications {
		req := e.request()
		rec, err := req.Record(today)
		if err == nil {
			err = scoring.Validate(rec)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "application %d (%s)", i+1, e.Company)
		}
		records = append(records, rec)
	}
	return records, nil
}
