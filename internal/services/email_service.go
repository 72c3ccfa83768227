package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/justsurfingit/job-success-tracker/internal/config"
	"github.com/justsurfingit/job-success-tracker/internal/metrics"
	"github.com/justsurfingit/job-success-tracker/internal/models"
	"github.com/justsurfingit/job-success-tracker/internal/repository"
	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

const (
	syncTimeout     = 2 * time.Minute
	fullSyncResults = 50
)

// EmailClassifier is the part of LLMService the mailbox watcher needs.
type EmailClassifier interface {
	AnalyzeEmailStatus(ctx context.Context, company, subject, body string) (EmailAnalysis, error)
	IdentifyJobRole(ctx context.Context, titles []string, subject, body string) (int, error)
}

// EmailService polls Gmail and moves applications forward when a
// recruiter email changes their status.
type EmailService struct {
	gmail   *gmail.Service
	llm     EmailClassifier
	matcher *MatcherService
	apps    repository.ApplicationRepository
	events  repository.EventRepository
	users   repository.UserRepository
	mailbox repository.MailboxRepository
	cfg     config.GmailConfig
	log     logrus.FieldLogger
	backoff time.Duration
}

func NewEmailService(store repository.Store, llm EmailClassifier, gm *gmail.Service, matcher *MatcherService, cfg config.GmailConfig, log logrus.FieldLogger) *EmailService {
	return &EmailService{
		gmail:   gm,
		llm:     llm,
		matcher: matcher,
		apps:    store.Applications,
		events:  store.Events,
		users:   store.Users,
		mailbox: store.Mailbox,
		cfg:     cfg,
		log:     log.WithField("component", "email_watcher"),
		backoff: time.Second,
	}
}

// Run syncs immediately and then every poll interval until ctx is done.
func (s *EmailService) Run(ctx context.Context) {
	if s.gmail == nil {
		s.log.Warn("gmail watcher disabled: no client")
		return
	}
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.SyncEmails(ctx); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Error("sync cycle failed")
		}
		select {
		case <-ctx.Done():
			s.log.Info("gmail watcher stopped")
			return
		case <-ticker.C:
		}
	}
}

// SyncEmails runs one cycle: fetch new messages, apply status updates and
// advance the history bookmark.
func (s *EmailService) SyncEmails(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.EmailSyncCycles.WithLabelValues(result).Inc()
	}()

	user, err := s.users.Default(ctx)
	if err != nil {
		return errors.Wrap(err, "load mailbox bookmark")
	}

	var (
		messages     []*gmail.Message
		newHistoryID uint64
	)
	if user.LastHistoryID == 0 {
		s.log.Info("first run, bootstrapping with full sync")
		messages, newHistoryID, err = s.performFullSync(ctx)
	} else {
		messages, newHistoryID, err = s.performIncrementalSync(ctx, user.LastHistoryID)
		if err != nil && isHistoryExpiredError(err) {
			s.log.Warn("history id expired, falling back to full sync")
			messages, newHistoryID, err = s.performFullSync(ctx)
		}
	}
	if err != nil {
		return err
	}

	updated := 0
	for _, msg := range messages {
		seen, err := s.mailbox.IsProcessed(ctx, msg.Id)
		if err != nil {
			return errors.Wrap(err, "check processed email")
		}
		if seen {
			continue
		}
		if s.processMessage(ctx, msg) {
			updated++
		}
		if err := s.mailbox.MarkProcessed(ctx, msg.Id); err != nil {
			return errors.Wrap(err, "mark email processed")
		}
	}

	if newHistoryID > user.LastHistoryID {
		if err := s.saveHistoryID(ctx, newHistoryID); err != nil {
			return err
		}
	}
	s.log.WithFields(logrus.Fields{
		"messages":   len(messages),
		"updated":    updated,
		"history_id": newHistoryID,
	}).Info("sync cycle finished")
	return nil
}

// performFullSync lists recent matching messages and anchors the bookmark
// at the mailbox's current history id.
func (s *EmailService) performFullSync(ctx context.Context) ([]*gmail.Message, uint64, error) {
	var resp *gmail.ListMessagesResponse
	err := s.retry(ctx, 3, func() error {
		var e error
		resp, e = s.gmail.Users.Messages.List("me").Q(s.cfg.Query).MaxResults(fullSyncResults).Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "list messages")
	}

	profile, err := s.gmail.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, 0, errors.Wrap(err, "get mailbox profile")
	}
	return s.expandMessages(ctx, resp.Messages), profile.HistoryId, nil
}

func (s *EmailService) performIncrementalSync(ctx context.Context, startID uint64) ([]*gmail.Message, uint64, error) {
	var resp *gmail.ListHistoryResponse
	err := s.retry(ctx, 3, func() error {
		var e error
		resp, e = s.gmail.Users.History.List("me").
			StartHistoryId(startID).
			HistoryTypes("messageAdded").
			Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, err
	}

	var headers []*gmail.Message
	for _, h := range resp.History {
		for _, added := range h.MessagesAdded {
			if added.Message != nil {
				headers = append(headers, added.Message)
			}
		}
	}
	return s.expandMessages(ctx, headers), resp.HistoryId, nil
}

// expandMessages fetches full messages; ones that keep failing are skipped.
func (s *EmailService) expandMessages(ctx context.Context, headers []*gmail.Message) []*gmail.Message {
	var full []*gmail.Message
	for _, h := range headers {
		var msg *gmail.Message
		err := s.retry(ctx, 2, func() error {
			var e error
			msg, e = s.gmail.Users.Messages.Get("me", h.Id).Context(ctx).Do()
			return e
		})
		if err != nil {
			s.log.WithError(err).WithField("message_id", h.Id).Warn("failed to fetch message")
			continue
		}
		full = append(full, msg)
	}
	return full
}

func (s *EmailService) processMessage(ctx context.Context, msg *gmail.Message) bool {
	headers := parseHeaders(msg)
	updated, err := s.applyEmailUpdate(ctx, headers["Subject"], headers["From"], getEmailBody(msg))
	if err != nil {
		s.log.WithError(err).WithField("message_id", msg.Id).Warn("email skipped")
	}
	return updated
}

// applyEmailUpdate matches the email to an active application and applies
// the status the model reads from it. It reports whether a row changed.
func (s *EmailService) applyEmailUpdate(ctx context.Context, subject, sender, body string) (bool, error) {
	log := s.log.WithFields(logrus.Fields{"subject": shorten(subject, 40), "from": sender})

	company, err := s.matcher.FindCompanyFromEmail(ctx, subject, sender)
	if err != nil {
		return false, errors.Wrap(err, "match company")
	}
	if company == nil {
		log.Debug("no tracked company matches")
		return false, nil
	}
	log = log.WithField("company", company.Name)

	active, err := s.apps.ActiveByCompany(ctx, company.ID)
	if err != nil {
		return false, errors.Wrap(err, "load active applications")
	}
	if len(active) == 0 {
		log.Info("no active application for company")
		return false, nil
	}

	target := &active[0]
	if len(active) > 1 {
		titles := make([]string, len(active))
		for i, a := range active {
			titles[i] = a.Position
		}
		idx, err := s.llm.IdentifyJobRole(ctx, titles, subject, body)
		if err != nil {
			return false, err
		}
		if idx < 0 {
			log.WithField("candidates", titles).Info("could not tell which application the email is about")
			return false, nil
		}
		target = &active[idx]
	}
	log = log.WithField("application_id", target.ID)

	analysis, err := s.llm.AnalyzeEmailStatus(ctx, company.Name, subject, body)
	if err != nil {
		return false, err
	}
	if analysis.Status == AnalysisNoChange || analysis.Status == AnalysisUnknown {
		log.WithField("verdict", analysis.Status).Debug("no status change")
		return false, nil
	}
	status, err := scoring.ParseStatus(analysis.Status)
	if err != nil {
		return false, errors.Wrap(err, "model returned an unusable status")
	}
	if string(status) == target.Status {
		return false, nil
	}

	next := string(status)
	if _, err := s.apps.Update(ctx, target.ID, repository.ApplicationPatch{Status: &next}); err != nil {
		return false, errors.Wrap(err, "update application status")
	}
	metrics.StatusChanges.WithLabelValues("email", next).Inc()

	ev := &models.ApplicationEvent{
		ApplicationID: target.ID,
		EventType:     models.EventEmailUpdate,
		Details:       fmt.Sprintf("Status changed to %s. Summary: %s", next, analysis.Summary),
	}
	if err := s.events.Append(ctx, ev); err != nil {
		log.WithError(err).Warn("failed to record email event")
	}
	log.WithFields(logrus.Fields{"from_status": target.Status, "to_status": next}).Info("status updated from email")
	return true, nil
}

func (s *EmailService) saveHistoryID(ctx context.Context, id uint64) error {
	user, err := s.users.Default(ctx)
	if err != nil {
		return errors.Wrap(err, "load mailbox bookmark")
	}
	user.LastHistoryID = id
	return errors.Wrap(s.users.Save(ctx, user), "save mailbox bookmark")
}

// retry runs f with exponential backoff. An expired history id is
// returned at once so the caller can fall back to a full sync.
func (s *EmailService) retry(ctx context.Context, attempts int, f func() error) error {
	sleep := s.backoff
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil || isHistoryExpiredError(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		s.log.WithError(err).WithField("retry_in", sleep).Warn("gmail api error")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	return errors.Wrapf(err, "failed after %d attempts", attempts)
}

func isHistoryExpiredError(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == 404
}

func parseHeaders(msg *gmail.Message) map[string]string {
	res := make(map[string]string)
	if msg.Payload == nil {
		return res
	}
	for _, h := range msg.Payload.Headers {
		res[h.Name] = h.Value
	}
	return res
}

// getEmailBody prefers the top-level body, then text/plain, then text/html.
func getEmailBody(msg *gmail.Message) string {
	p := msg.Payload
	if p == nil {
		return ""
	}
	if p.Body != nil && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	for _, mime := range []string{"text/plain", "text/html"} {
		for _, part := range p.Parts {
			if part.MimeType == mime && part.Body != nil && part.Body.Data != "" {
				return decodeBody(part.Body.Data)
			}
		}
	}
	return ""
}

func decodeBody(data string) string {
	if d, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(d)
	}
	d, _ := base64.RawURLEncoding.DecodeString(data)
	return string(d)
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return truncateUTF8(s, n) + "..."
}
