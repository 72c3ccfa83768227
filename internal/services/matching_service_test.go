package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/job-success-tracker/internal/models"
	"github.com/justsurfingit/job-success-tracker/internal/repository"
)

func TestMatchCompany(t *testing.T) {
	companies := []models.Company{
		{ID: 1, Name: "Go"},
		{ID: 2, Name: "Stripe"},
		{ID: 3, Name: "Data Systems"},
	}

	tests := []struct {
		name    string
		subject string
		sender  string
		want    uint
	}{
		{"subject", "Update on your application to Stripe", "noreply@greenhouse.io", 2},
		{"display name", "Your application", "Stripe Recruiting <jobs@lever.co>", 2},
		{"domain", "Your application", "jobs@stripe.com", 2},
		{"domain without spaces", "Thanks for applying", "Talent <talent@datasystems.io>", 3},
		{"short names ignored", "Let's go!", "someone@example.com", 0},
		{"no match", "Weekly newsletter", "news@example.com", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchCompany(companies, tt.subject, tt.sender)
			if tt.want == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestMatcherService_FindCompanyFromEmail(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.Applications.Create(context.Background(),
		&models.Application{Position: "Backend Engineer"}, "Stripe"))

	got, err := NewMatcherService(store.Applications).FindCompanyFromEmail(context.Background(), "Interview at Stripe", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Stripe", got.Name)
}
