package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/job-success-tracker/internal/apperrors"
	"github.com/justsurfingit/job-success-tracker/internal/handlers"
	"github.com/justsurfingit/job-success-tracker/internal/logger"
	"github.com/justsurfingit/job-success-tracker/internal/models"
	"github.com/justsurfingit/job-success-tracker/internal/repository"
	"github.com/justsurfingit/job-success-tracker/internal/scoring"
	"github.com/justsurfingit/job-success-tracker/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Discard()
	store := repository.NewMemoryStore()
	engine := scoring.NewEngine(scoring.WithFactorSource(scoring.MidpointFactors{}))

	r := gin.New()
	RegisterRoutes(r, Deps{
		Applications: handlers.NewApplicationHandler(services.NewApplicationService(store, log)),
		Predictions:  handlers.NewPredictionHandler(services.NewPredictionService(engine, store.Applications, log)),
		Analytics:    handlers.NewAnalyticsHandler(services.NewAnalyticsService(store.Applications, engine)),
		Settings:     handlers.NewSettingsHandler(services.NewSettingsService(store.Users, log)),
		Jobs:         handlers.NewJobHandler(nil),
	})
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

const strongApplication = `{
	"company": "TechCorp",
	"position": "Senior Frontend Developer",
	"date": "2025-05-18",
	"status": "Interview",
	"priority": "High",
	"skills": ["React", "TypeScript"],
	"follow_up_done": true,
	"application_quality": 90
}`

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestApplicationLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/applications", strongApplication)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Application](t, w)
	assert.Equal(t, "TechCorp", created.Company.Name)
	assert.Equal(t, "Interview", created.Status)

	w = do(t, r, http.MethodGet, "/api/v1/applications/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/applications/1/prediction", "")
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[scoring.Prediction](t, w)
	assert.Equal(t, 59, p.SuccessProbability)

	w = do(t, r, http.MethodPatch, "/api/v1/applications/1", `{"status":"Offer"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/applications/1/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	evs := decode[struct {
		Events []models.ApplicationEvent `json:"events"`
	}](t, w)
	require.Len(t, evs.Events, 2)
	assert.Equal(t, models.EventStatusChange, evs.Events[1].EventType)

	w = do(t, r, http.MethodDelete, "/api/v1/applications/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/applications/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CodeNotFound, decode[handlers.APIError](t, w).Code)
}

func TestCreateApplication_Invalid(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing company", `{"position":"Dev"}`},
		{"bad date", `{"company":"A","position":"Dev","date":"05/18/2025"}`},
		{"quality above range", `{"company":"A","position":"Dev","application_quality":150}`},
		{"unknown status", `{"company":"A","position":"Dev","status":"Ghosted"}`},
		{"malformed json", `{"company":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/applications", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, apperrors.CodeInvalidArgument, decode[handlers.APIError](t, w).Code)
		})
	}
}

func TestListApplications(t *testing.T) {
	r := newTestRouter(t)
	for _, body := range []string{
		`{"company":"WebScale","position":"DevOps Engineer","status":"Rejected"}`,
		`{"company":"DataSystems","position":"ML Engineer"}`,
		strongApplication,
	} {
		require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/applications", body).Code)
	}

	w := do(t, r, http.MethodGet, "/api/v1/applications?sort=company&order=desc", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Applications []models.Application `json:"applications"`
		Count        int                  `json:"count"`
	}](t, w)
	assert.Equal(t, 3, list.Count)
	assert.Equal(t, "WebScale", list.Applications[0].Company.Name)

	w = do(t, r, http.MethodGet, "/api/v1/applications?status=Rejected", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = do(t, r, http.MethodGet, "/api/v1/applications?sort=salary", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/applications/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictions(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/predictions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[scoring.Summary](t, w).AverageProbability)

	w = do(t, r, http.MethodPost, "/api/v1/predictions", strongApplication)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 59, decode[scoring.Prediction](t, w).SuccessProbability)

	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/applications", strongApplication).Code)
	w = do(t, r, http.MethodGet, "/api/v1/predictions", "")
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[scoring.Summary](t, w)
	assert.Equal(t, 59, sum.AverageProbability)
	require.Len(t, sum.Predictions, 1)
	assert.Equal(t, "TechCorp-Senior Frontend Developer", sum.Predictions[0].Key)
}

func TestAnalytics(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/applications", strongApplication).Code)

	w := do(t, r, http.MethodGet, "/api/v1/analytics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"month":"2025-05"`)
}

func TestSettings(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"theme":"light"`)

	w = do(t, r, http.MethodPut, "/api/v1/settings", `{"profile":{"name":"Alex"},"preferences":{"theme":"dark"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"theme":"dark"`)

	w = do(t, r, http.MethodPut, "/api/v1/settings", `{"preferences":{"theme":"neon"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractWithoutLLM(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodPost, "/api/v1/jobs/extract", `{"raw_html":"<p>job</p>"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apperrors.CodeUnavailable, decode[handlers.APIError](t, w).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/applications", strongApplication).Code)

	w := do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jobtracker_applications_created_total")
}
