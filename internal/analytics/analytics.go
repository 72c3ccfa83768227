// Package analytics aggregates stored applications into the dashboard's
// progress, status, skills and headline views.
package analytics

import (
	"math"
	"sort"

	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

type MonthlyActivity struct {
	Month        string `json:"month"` // YYYY-MM
	Applications int    `json:"applications"`
	Responses    int    `json:"responses"`
	Interviews   int    `json:"interviews"`
}

type StatusCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type SkillCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Metric values are whole percentages.
type Metric struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Report struct {
	Total    int               `json:"total"`
	Monthly  []MonthlyActivity `json:"monthly"`
	Statuses []StatusCount     `json:"statuses"`
	Skills   []SkillCount      `json:"skills"`
	Metrics  []Metric          `json:"metrics"`
}

// SkillsMatcher is satisfied by *scoring.Engine.
type SkillsMatcher interface {
	SkillsMatch(skills []string) float64
}

func Build(records []scoring.Record, matcher SkillsMatcher) Report {
	r := Report{
		Total:    len(records),
		Monthly:  []MonthlyActivity{},
		Statuses: []StatusCount{},
		Skills:   []SkillCount{},
	}

	months := map[string]*MonthlyActivity{}
	statuses := map[scoring.Status]int{}
	skills := map[string]int{}

	var responses, interviews, qualityN int
	var matchSum, qualitySum float64
	for _, rec := range records {
		key := rec.Date.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthlyActivity{Month: key}
			months[key] = m
		}
		m.Applications++
		if rec.Status != scoring.StatusApplied {
			m.Responses++
			responses++
		}
		if rec.Status == scoring.StatusInterview || rec.Status == scoring.StatusOffer {
			m.Interviews++
			interviews++
		}

		statuses[rec.Status]++
		for _, s := range rec.Skills {
			skills[s]++
		}
		matchSum += matcher.SkillsMatch(rec.Skills)
		if rec.ApplicationQuality != nil {
			qualitySum += float64(*rec.ApplicationQuality)
			qualityN++
		}
	}

	for _, m := range months {
		r.Monthly = append(r.Monthly, *m)
	}
	sort.Slice(r.Monthly, func(i, j int) bool { return r.Monthly[i].Month < r.Monthly[j].Month })

	for _, st := range scoring.Statuses() {
		r.Statuses = append(r.Statuses, StatusCount{Name: string(st), Value: statuses[st]})
	}

	for name, n := range skills {
		r.Skills = append(r.Skills, SkillCount{Name: name, Count: n})
	}
	sort.Slice(r.Skills, func(i, j int) bool {
		if r.Skills[i].Count != r.Skills[j].Count {
			return r.Skills[i].Count > r.Skills[j].Count
		}
		return r.Skills[i].Name < r.Skills[j].Name
	})

	r.Metrics = []Metric{
		{"Response Rate", percent(float64(responses), float64(r.Total))},
		{"Interview Rate", percent(float64(interviews), float64(r.Total))},
		{"Skills Match Average", percent(matchSum, float64(r.Total))},
		{"Application Quality", percent(qualitySum/100, float64(qualityN))},
	}
	return r
}

func percent(part, whole float64) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(part / whole * 100))
}
