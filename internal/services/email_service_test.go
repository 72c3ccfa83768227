package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/justsurfingit/job-success-tracker/internal/config"
	"github.com/justsurfingit/job-success-tracker/internal/dtos"
	"github.com/justsurfingit/job-success-tracker/internal/logger"
	"github.com/justsurfingit/job-success-tracker/internal/models"
	"github.com/justsurfingit/job-success-tracker/internal/repository"
)

type fakeClassifier struct {
	analysis   EmailAnalysis
	roleIndex  int
	analyzed   int
	identified [][]string
}

func (f *fakeClassifier) AnalyzeEmailStatus(context.Context, string, string, string) (EmailAnalysis, error) {
	f.analyzed++
	return f.analysis, nil
}

func (f *fakeClassifier) IdentifyJobRole(_ context.Context, titles []string, _, _ string) (int, error) {
	f.identified = append(f.identified, titles)
	return f.roleIndex, nil
}

func newEmailService(t *testing.T, store repository.Store, llm EmailClassifier, gm *gmail.Service) *EmailService {
	t.Helper()
	cfg := config.GmailConfig{Query: "subject:(interview OR offer)"}
	svc := NewEmailService(store, llm, gm, NewMatcherService(store.Applications), cfg, logger.Discard())
	svc.backoff = 0
	return svc
}

func seedStore(t *testing.T, reqs ...dtos.ApplicationRequest) (repository.Store, []*models.Application) {
	t.Helper()
	store := repository.NewMemoryStore()
	apps := newApplicationService(store)
	var out []*models.Application
	for _, r := range reqs {
		out = append(out, mustCreate(t, apps, r))
	}
	return store, out
}

func TestEmailService_ApplyEmailUpdate(t *testing.T) {
	store, apps := seedStore(t, dtos.ApplicationRequest{Company: "TechCorp", Position: "Frontend Developer"})
	llm := &fakeClassifier{analysis: EmailAnalysis{Status: "INTERVIEW", Summary: "Onsite invite"}}
	svc := newEmailService(t, store, llm, nil)
	ctx := context.Background()

	updated, err := svc.applyEmailUpdate(ctx, "Interview invitation", "TechCorp Talent <talent@techcorp.com>", "Hi")
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Empty(t, llm.identified)

	got, err := store.Applications.Get(ctx, apps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Interview", got.Status)

	evs, err := store.Events.ListByApplication(ctx, apps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventEmailUpdate, evs[len(evs)-1].EventType)
	assert.Equal(t, "Status changed to Interview. Summary: Onsite invite", evs[len(evs)-1].Details)

	// same verdict again changes nothing
	updated, err = svc.applyEmailUpdate(ctx, "Interview invitation", "talent@techcorp.com", "Hi")
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestEmailService_ApplyEmailUpdateDisambiguates(t *testing.T) {
	store, apps := seedStore(t,
		dtos.ApplicationRequest{Company: "TechCorp", Position: "Frontend Developer"},
		dtos.ApplicationRequest{Company: "TechCorp", Position: "Backend Developer"},
		dtos.ApplicationRequest{Company: "TechCorp", Position: "Data Engineer", Status: "Rejected"},
	)
	llm := &fakeClassifier{analysis: EmailAnalysis{Status: "REJECTED"}, roleIndex: 1}
	svc := newEmailService(t, store, llm, nil)
	ctx := context.Background()

	updated, err := svc.applyEmailUpdate(ctx, "Your TechCorp application", "jobs@techcorp.com", "Unfortunately")
	require.NoError(t, err)
	assert.True(t, updated)
	require.Len(t, llm.identified, 1)
	assert.Equal(t, []string{"Frontend Developer", "Backend Developer"}, llm.identified[0])

	got, err := store.Applications.Get(ctx, apps[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Rejected", got.Status)
	got, err = store.Applications.Get(ctx, apps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Applied", got.Status)
}

func TestEmailService_ApplyEmailUpdateSkips(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		analysis EmailAnalysis
		role     int
		analyzed int
	}{
		{"unknown company", "Newsletter", EmailAnalysis{Status: "OFFER"}, 0, 0},
		{"no change", "TechCorp update", EmailAnalysis{Status: AnalysisNoChange}, 0, 1},
		{"unknown verdict", "TechCorp update", EmailAnalysis{Status: AnalysisUnknown}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, apps := seedStore(t, dtos.ApplicationRequest{Company: "TechCorp", Position: "Frontend Developer"})
			llm := &fakeClassifier{analysis: tt.analysis, roleIndex: tt.role}
			svc := newEmailService(t, store, llm, nil)

			updated, err := svc.applyEmailUpdate(context.Background(), tt.subject, "someone@example.com", "")
			require.NoError(t, err)
			assert.False(t, updated)
			assert.Equal(t, tt.analyzed, llm.analyzed)

			got, err := store.Applications.Get(context.Background(), apps[0].ID)
			require.NoError(t, err)
			assert.Equal(t, "Applied", got.Status)
		})
	}
}

func TestEmailService_ApplyEmailUpdateIgnoresTerminal(t *testing.T) {
	store, _ := seedStore(t, dtos.ApplicationRequest{Company: "TechCorp", Position: "Frontend Developer", Status: "Offer"})
	llm := &fakeClassifier{analysis: EmailAnalysis{Status: "REJECTED"}}
	svc := newEmailService(t, store, llm, nil)

	updated, err := svc.applyEmailUpdate(context.Background(), "TechCorp update", "", "")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Zero(t, llm.analyzed)
}

// fakeGmail serves the handful of Gmail endpoints the watcher calls.
type fakeGmail struct {
	historyID      uint64
	listed         []string
	historyExpired bool
	historyAdded   []string
	messages       map[string]*gmail.Message
}

func (f *fakeGmail) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		resp := &gmail.ListMessagesResponse{}
		for _, id := range f.listed {
			resp.Messages = append(resp.Messages, &gmail.Message{Id: id})
		}
		writeJSON(w, resp)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, f.messages[r.PathValue("id")])
	})
	mux.HandleFunc("GET /gmail/v1/users/me/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &gmail.Profile{HistoryId: f.historyID})
	})
	mux.HandleFunc("GET /gmail/v1/users/me/history", func(w http.ResponseWriter, r *http.Request) {
		if f.historyExpired {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
			return
		}
		resp := &gmail.ListHistoryResponse{HistoryId: f.historyID}
		h := &gmail.History{}
		for _, id := range f.historyAdded {
			h.MessagesAdded = append(h.MessagesAdded, &gmail.HistoryMessageAdded{Message: &gmail.Message{Id: id}})
		}
		resp.History = []*gmail.History{h}
		writeJSON(w, resp)
	})
	return mux
}

func newFakeGmailService(t *testing.T, f *fakeGmail) *gmail.Service {
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	gm, err := gmail.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return gm
}

func textMessage(id, subject, from, body string) *gmail.Message {
	return &gmail.Message{
		Id: id,
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: subject},
				{Name: "From", Value: from},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte(body))}},
			},
		},
	}
}

func TestEmailService_SyncEmailsBootstrap(t *testing.T) {
	store, apps := seedStore(t, dtos.ApplicationRequest{Company: "TechCorp", Position: "Frontend Developer"})
	fg := &fakeGmail{
		historyID: 1500,
		listed:    []string{"m1", "m2"},
		messages: map[string]*gmail.Message{
			"m1": textMessage("m1", "Interview with TechCorp", "TechCorp <jobs@techcorp.com>", "Please pick a slot"),
			"m2": textMessage("m2", "Weekly digest", "news@example.com", "Jobs you may like"),
		},
	}
	llm := &fakeClassifier{analysis: EmailAnalysis{Status: "INTERVIEW"}}
	svc := newEmailService(t, store, llm, newFakeGmailService(t, fg))
	ctx := context.Background()

	require.NoError(t, svc.SyncEmails(ctx))

	got, err := store.Applications.Get(ctx, apps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Interview", got.Status)

	u, err := store.Users.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), u.LastHistoryID)

	for _, id := range []string{"m1", "m2"} {
		seen, err := store.Mailbox.IsProcessed(ctx, id)
		require.NoError(t, err)
		assert.True(t, seen, id)
	}
}

func TestEmailService_SyncEmailsIncremental(t *testing.T) {
	store, _ := seedStore(t, dtos.ApplicationRequest{Company: "TechCorp", Position: "Frontend Developer"})
	ctx := context.Background()
	u, err := store.Users.Default(ctx)
	require.NoError(t, err)
	u.LastHistoryID = 1500
	require.NoError(t, store.Users.Save(ctx, u))
	require.NoError(t, store.Mailbox.MarkProcessed(ctx, "m1"))

	fg := &fakeGmail{
		historyID:    1600,
		historyAdded: []string{"m1", "m3"},
		messages: map[string]*gmail.Message{
			"m1": textMessage("m1", "Interview with TechCorp", "jobs@techcorp.com", ""),
			"m3": textMessage("m3", "TechCorp offer", "jobs@techcorp.com", "Congratulations"),
		},
	}
	llm := &fakeClassifier{analysis: EmailAnalysis{Status: "OFFER"}}
	svc := newEmailService(t, store, llm, newFakeGmailService(t, fg))

	require.NoError(t, svc.SyncEmails(ctx))
	assert.Equal(t, 1, llm.analyzed)

	u, err = store.Users.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1600), u.LastHistoryID)
}

func TestEmailService_SyncEmailsHistoryExpired(t *testing.T) {
	store, _ := seedStore(t)
	ctx := context.Background()
	u, err := store.Users.Default(ctx)
	require.NoError(t, err)
	u.LastHistoryID = 10
	require.NoError(t, store.Users.Save(ctx, u))

	fg := &fakeGmail{historyID: 2000, historyExpired: true}
	svc := newEmailService(t, store, &fakeClassifier{}, newFakeGmailService(t, fg))

	require.NoError(t, svc.SyncEmails(ctx))
	u, err = store.Users.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), u.LastHistoryID)
}

func TestEmailService_RunStopsOnCancel(t *testing.T) {
	store, _ := seedStore(t)
	fg := &fakeGmail{historyID: 5}
	svc := newEmailService(t, store, &fakeClassifier{}, newFakeGmailService(t, fg))
	svc.cfg.PollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		u, err := store.Users.Default(context.Background())
		return err == nil && u.LastHistoryID == 5
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRetry(t *testing.T) {
	svc := newEmailService(t, repository.NewMemoryStore(), &fakeClassifier{}, nil)
	ctx := context.Background()

	calls := 0
	err := svc.retry(ctx, 3, func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = svc.retry(ctx, 3, func() error {
		calls++
		return &googleapi.Error{Code: 404}
	})
	assert.True(t, isHistoryExpiredError(err))
	assert.Equal(t, 1, calls)

	err = svc.retry(ctx, 2, func() error { return errors.New("down") })
	assert.EqualError(t, err, "failed after 2 attempts: down")
}

func TestGetEmailBody(t *testing.T) {
	enc := base64.URLEncoding.EncodeToString
	msg := &gmail.Message{Payload: &gmail.MessagePart{Parts: []*gmail.MessagePart{
		{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: enc([]byte("<p>html</p>"))}},
		{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: enc([]byte("plain"))}},
	}}}
	assert.Equal(t, "plain", getEmailBody(msg))

	msg.Payload.Body = &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("top"))}
	assert.Equal(t, "top", getEmailBody(msg))

	assert.Equal(t, "", getEmailBody(&gmail.Message{}))
}
