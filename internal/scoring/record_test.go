package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := newRecord([]string{"Go"}, false, intPtr(80))
	require.NoError(t, Validate(valid))

	tests := []struct {
		name   string
		mutate func(r *Record)
	}{
		{"blank company", func(r *Record) { r.Company = "  " }},
		{"blank position", func(r *Record) { r.Position = "" }},
		{"missing date", func(r *Record) { r.Date = time.Time{} }},
		{"unknown status", func(r *Record) { r.Status = "Ghosted" }},
		{"unknown priority", func(r *Record) { r.Priority = "Urgent" }},
		{"quality above range", func(r *Record) { r.ApplicationQuality = intPtr(101) }},
		{"quality below range", func(r *Record) { r.ApplicationQuality = intPtr(-1) }},
		{"negative salary", func(r *Record) { r.Salary = intPtr(-5) }},
		{"duplicate skill", func(r *Record) { r.Skills = []string{"React", "Go", "React"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.ErrorIs(t, Validate(r), ErrInvalidInput)
		})
	}

	t.Run("skills differing in case are distinct", func(t *testing.T) {
		r := valid
		r.Skills = []string{"React", "react"}
		assert.NoError(t, Validate(r))
	})

	t.Run("quality bounds are inclusive", func(t *testing.T) {
		r := valid
		r.ApplicationQuality = intPtr(0)
		assert.NoError(t, Validate(r))
		r.ApplicationQuality = intPtr(100)
		assert.NoError(t, Validate(r))
	})
}

func TestParseStatus(t *testing.T) {
	for _, in := range []string{"APPLIED", "applied", " Applied "} {
		st, err := ParseStatus(in)
		require.NoError(t, err)
		assert.Equal(t, StatusApplied, st)
	}

	_, err := ParseStatus("NO_CHANGE")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.True(t, StatusOffer.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusInterview.Terminal())
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("high")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("")
	assert.Error(t, err)
}

func TestRecordKey(t *testing.T) {
	r := Record{Company: "WebScale", Position: "Full Stack Developer"}
	assert.Equal(t, "WebScale-Full Stack Developer", r.Key())
}
