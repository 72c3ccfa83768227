package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/xeipuuv/gojsonschema"

	"github.com/justsurfingit/job-success-tracker/internal/apperrors"
	"github.com/justsurfingit/job-success-tracker/internal/cache"
	"github.com/justsurfingit/job-success-tracker/internal/config"
	"github.com/justsurfingit/job-success-tracker/internal/metrics"
)

const maxEmailBodyBytes = 6000

// LLMService wraps the Gemini client for posting extraction and mailbox
// classification.
type LLMService struct {
	client   llms.Model
	cache    cache.Cache
	cacheTTL time.Duration
	maxHTML  int
	log      logrus.FieldLogger
}

// NewLLMService dials Gemini with the configured key and model.
func NewLLMService(ctx context.Context, cfg config.LLMConfig, c cache.Cache, cacheTTL time.Duration, log logrus.FieldLogger) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is empty")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	return NewLLMServiceWithModel(llm, c, cacheTTL, cfg.MaxHTMLBytes, log), nil
}

// NewLLMServiceWithModel uses an existing model, e.g. a fake in tests.
func NewLLMServiceWithModel(model llms.Model, c cache.Cache, cacheTTL time.Duration, maxHTML int, log logrus.FieldLogger) *LLMService {
	if c == nil {
		c = cache.Nop{}
	}
	return &LLMService{client: model, cache: c, cacheTTL: cacheTTL, maxHTML: maxHTML, log: log}
}

const jobExtractionPrompt = `
You are a job posting extraction agent. Analyze the raw HTML or text of a job posting and extract structured data.

### INSTRUCTIONS:
1. Identify the core job details.
2. Ignore navigation menus, footers, "similar jobs" lists and advertisements.
3. Output valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "company_name": "Name of the company",
    "role_title": "Job title",
    "location": "Job location or 'Remote'",
    "description": "Summary of responsibilities and requirements without HTML tags",
    "tech_stack": ["Technologies", "mentioned"],
    "salary_range": "Salary string if explicitly mentioned, otherwise null"
}

If a piece of information is missing, set the value to null. Do not guess.

### RAW CONTENT:
%s
`

// jobPostingSchema checks the model kept to the extraction output schema.
var jobPostingSchema = mustSchema(`{
	"type": "object",
	"required": ["company_name", "role_title"],
	"properties": {
		"company_name": {"type": ["string", "null"]},
		"role_title":   {"type": ["string", "null"]},
		"location":     {"type": ["string", "null"]},
		"description":  {"type": ["string", "null"]},
		"tech_stack":   {"type": ["array", "null"], "items": {"type": "string"}},
		"salary_range": {"type": ["string", "null"]}
	}
}`)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return schema
}

// ExtractJobDetails turns a posting into the JSON object described by
// jobExtractionPrompt. Results are cached by content hash.
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML string) (json.RawMessage, error) {
	const op = "LLMService.ExtractJobDetails"

	rawHTML = truncateUTF8(rawHTML, s.maxHTML)
	key := extractionCacheKey(rawHTML)

	var cached json.RawMessage
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.log.WithError(err).Warn("extraction cache read failed")
	} else if hit {
		metrics.LLMCalls.WithLabelValues("extract", "cache_hit").Inc()
		return cached, nil
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.client, fmt.Sprintf(jobExtractionPrompt, rawHTML),
		llms.WithTemperature(0))
	if err != nil {
		metrics.LLMCalls.WithLabelValues("extract", "error").Inc()
		return nil, apperrors.E(apperrors.CodeUnavailable, op, "AI extraction failed", err)
	}
	out := json.RawMessage(cleanJSON(resp))
	if err := validatePosting(out); err != nil {
		metrics.LLMCalls.WithLabelValues("extract", "invalid").Inc()
		return nil, apperrors.E(apperrors.CodeUnavailable, op, "AI extraction returned an unexpected shape", err)
	}
	metrics.LLMCalls.WithLabelValues("extract", "ok").Inc()

	if err := s.cache.SetJSON(ctx, key, out, s.cacheTTL); err != nil {
		s.log.WithError(err).Warn("extraction cache write failed")
	}
	return out, nil
}

// EmailAnalysis is the model's verdict on a recruiter email. Status is an
// application status, NO_CHANGE or UNKNOWN.
type EmailAnalysis struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

const (
	AnalysisNoChange = "NO_CHANGE"
	AnalysisUnknown  = "UNKNOWN"
)

const emailStatusPrompt = `
You track job applications. Decide what this email from %s means for the candidate's application.

Respond with JSON only, no markdown:
{"status": "<one of APPLIED, INTERVIEW, OFFER, REJECTED, NO_CHANGE, UNKNOWN>", "summary": "<one sentence>"}

Use NO_CHANGE for acknowledgements and newsletters. Use UNKNOWN when the email is not about an application.

SUBJECT: %s

BODY:
%s
`

func (s *LLMService) AnalyzeEmailStatus(ctx context.Context, company, subject, body string) (EmailAnalysis, error) {
	prompt := fmt.Sprintf(emailStatusPrompt, company, subject, truncateUTF8(body, maxEmailBodyBytes))
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.client, prompt, llms.WithTemperature(0))
	if err != nil {
		metrics.LLMCalls.WithLabelValues("analyze_email", "error").Inc()
		return EmailAnalysis{}, errors.Wrap(err, "analyze email")
	}

	var out EmailAnalysis
	if err := json.Unmarshal([]byte(cleanJSON(resp)), &out); err != nil {
		metrics.LLMCalls.WithLabelValues("analyze_email", "invalid").Inc()
		return EmailAnalysis{}, errors.Wrapf(err, "parse email analysis %q", resp)
	}
	metrics.LLMCalls.WithLabelValues("analyze_email", "ok").Inc()
	out.Status = strings.ToUpper(strings.TrimSpace(out.Status))
	return out, nil
}

const identifyRolePrompt = `
A candidate applied to several roles at the same company. Which role is this email about?

ROLES:
%s
SUBJECT: %s

BODY:
%s

Answer with the role number only. Answer -1 if you cannot tell.
`

// IdentifyJobRole returns the index into titles the email refers to, or -1.
func (s *LLMService) IdentifyJobRole(ctx context.Context, titles []string, subject, body string) (int, error) {
	var list strings.Builder
	for i, t := range titles {
		fmt.Fprintf(&list, "%d. %s\n", i, t)
	}
	prompt := fmt.Sprintf(identifyRolePrompt, list.String(), subject, truncateUTF8(body, maxEmailBodyBytes))
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.client, prompt, llms.WithTemperature(0))
	if err != nil {
		metrics.LLMCalls.WithLabelValues("identify_role", "error").Inc()
		return -1, errors.Wrap(err, "identify job role")
	}

	idx, err := strconv.Atoi(strings.Trim(strings.TrimSpace(resp), "."))
	if err != nil || idx < -1 || idx >= len(titles) {
		metrics.LLMCalls.WithLabelValues("identify_role", "invalid").Inc()
		return -1, nil
	}
	metrics.LLMCalls.WithLabelValues("identify_role", "ok").Inc()
	return idx, nil
}

func validatePosting(doc json.RawMessage) error {
	if !json.Valid(doc) {
		return errors.New("not valid JSON")
	}
	res, err := jobPostingSchema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.Wrap(err, "validate posting")
	}
	if !res.Valid() {
		msgs := make([]string, len(res.Errors()))
		for i, e := range res.Errors() {
			msgs[i] = e.String()
		}
		return errors.Errorf("posting schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func extractionCacheKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "extract:" + hex.EncodeToString(sum[:])
}

// cleanJSON strips a markdown code fence the model may add anyway.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateUTF8(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
