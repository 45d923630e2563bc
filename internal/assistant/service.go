// Package assistant produces credit suggestions, weekly collection reports and
// chat answers through a hosted text generation service. Failures never
// propagate: every call returns displayable text.
package assistant

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"

	"debtors/internal/analytics"
	"debtors/internal/logger"
	"debtors/internal/metrics"
	"debtors/internal/risk"
	"debtors/pkg/services"
)

var riskPattern = regexp.MustCompile(`(?i)\b(Low|Medium|High) Risk\b`)

// Reply is what the user sees for a generation request.
type Reply struct {
	Text string `json:"text"`

	// HTML is Text rendered from markdown.
	HTML string `json:"html"`

	// Failed marks Text as an error message rather than generated content.
	Failed bool `json:"failed"`

	// Risk is the label found in a credit suggestion, if any.
	Risk risk.Level `json:"risk,omitempty"`
}

// Service runs the assistant use cases against an injected generator.
type Service struct {
	gen services.TextGenerator
	log zerolog.Logger
}

// NewService creates a service. gen may be nil, in which case every call
// answers with the not-configured message.
func NewService(gen services.TextGenerator) *Service {
	return &Service{
		gen: gen,
		log: logger.WithComponent("assistant"),
	}
}

// Configured reports whether a generator is attached.
func (s *Service) Configured() bool {
	return s.gen != nil
}

// CreditSuggestion asks for a credit risk assessment of one customer.
func (s *Service) CreditSuggestion(ctx context.Context, detail *analytics.CustomerDetail) Reply {
	const op = "CreditSuggestion"

	s.log.Info().
		Str("customer", detail.Key).
		Msg("Generating credit suggestion")

	reply := s.generate(ctx, op, creditPrompt(detail))
	if !reply.Failed {
		reply.Risk = ParseRisk(reply.Text)
	}
	return reply
}

// WeeklyFocus asks for a prioritized collections report. With nothing overdue
// it answers directly without calling the service.
func (s *Service) WeeklyFocus(ctx context.Context, items []analytics.OverdueItem) Reply {
	const op = "WeeklyFocus"

	if len(items) == 0 {
		s.log.Info().Msg("No overdue invoices, skipping weekly focus generation")
		return newReply(NoOverdueMessage, false)
	}

	prompt, err := weeklyFocusPrompt(items)
	if err != nil {
		return s.failure(op, err)
	}

	s.log.Info().
		Int("overdue_items", len(items)).
		Msg("Generating weekly focus report")

	return s.generate(ctx, op, prompt)
}

// Chat answers the latest user message of history from the dataset snapshot.
func (s *Service) Chat(ctx context.Context, history []services.ChatMessage, data analytics.ChatData, asOf time.Time) Reply {
	const op = "Chat"

	if len(history) == 0 || history[len(history)-1].Role != services.RoleUser || strings.TrimSpace(history[len(history)-1].Text) == "" {
		return s.failure(op, ErrEmptyHistory)
	}

	prompt, err := chatPrompt(history, data, asOf)
	if err != nil {
		return s.failure(op, err)
	}

	s.log.Info().
		Int("history", len(history)).
		Msg("Answering chat question")

	return s.generate(ctx, op, prompt)
}

func (s *Service) generate(ctx context.Context, op string, prompt services.Prompt) Reply {
	if s.gen == nil {
		return s.failure(op, ErrNotInitialized)
	}

	start := time.Now()
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return s.failure(op, err)
	}

	metrics.AssistantRequestsTotal.WithLabelValues(op, "success").Inc()
	s.log.Debug().
		Str("op", op).
		Dur("duration", time.Since(start)).
		Int("chars", len(text)).
		Msg("Text generated")

	return newReply(text, false)
}

func (s *Service) failure(op string, err error) Reply {
	err = WrapServiceError(op, err, "")
	metrics.AssistantRequestsTotal.WithLabelValues(op, "failure").Inc()
	s.log.Error().
		Err(err).
		Str("op", op).
		Msg("Text generation failed")
	return newReply(DisplayMessage(err), true)
}

func newReply(text string, failed bool) Reply {
	return Reply{Text: text, HTML: RenderHTML(text), Failed: failed}
}

// ParseRisk extracts the first "Low Risk", "Medium Risk" or "High Risk" label
// from text, or "" when there is none.
func ParseRisk(text string) risk.Level {
	m := riskPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	for _, level := range risk.Levels {
		if strings.EqualFold(m[1], string(level)) {
			return level
		}
	}
	return ""
}

// RenderHTML converts markdown to HTML with links opening in a new tab.
func RenderHTML(md string) string {
	if md == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(bytes.TrimSpace(markdown.ToHTML([]byte(md), p, renderer)))
}
