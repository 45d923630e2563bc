package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"debtors/internal/logger"
	"debtors/pkg/services"
)

// OpenAIConfig configures the hosted model.
type OpenAIConfig struct {
	APIKey string

	// BaseURL points at any OpenAI-compatible endpoint; empty uses the default.
	BaseURL string

	Model       string
	Temperature float32
	MaxTokens   int

	// MaxRetries bounds retries on rate limits and server errors.
	MaxRetries int
}

// OpenAIGenerator implements services.TextGenerator using the chat completions API.
type OpenAIGenerator struct {
	client  *openai.Client
	cfg     OpenAIConfig
	backoff time.Duration
	log     zerolog.Logger
}

// NewOpenAIGenerator creates a generator. It fails with ErrNotInitialized when
// no API key is configured.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	const op = "NewOpenAIGenerator"

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, NewServiceError(op, ErrNotInitialized, "API key is empty")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return NewOpenAIGeneratorWithClient(openai.NewClientWithConfig(clientCfg), cfg), nil
}

// NewOpenAIGeneratorWithClient creates a generator around an existing client.
func NewOpenAIGeneratorWithClient(client *openai.Client, cfg OpenAIConfig) *OpenAIGenerator {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1500
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &OpenAIGenerator{
		client:  client,
		cfg:     cfg,
		backoff: time.Second,
		log:     logger.WithComponent("assistant-openai"),
	}
}

// Generate sends the prompt and returns the first choice's content.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt services.Prompt) (string, error) {
	const op = "Generate"

	var messages []openai.ChatCompletionMessage
	if prompt.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.User,
	})

	req := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    messages,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := g.backoff * time.Duration(1<<(attempt-1))
			g.log.Debug().
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("Retrying text generation request")
			select {
			case <-ctx.Done():
				return "", NewServiceError(op, ctx.Err(), "")
			case <-time.After(wait):
			}
		}

		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = classify(err)
			if !retryable(err) {
				break
			}
			g.log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Msg("Text generation request failed")
			continue
		}

		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", NewServiceError(op, ErrEmptyResponse, "")
		}

		g.log.Debug().
			Str("model", g.cfg.Model).
			Int("prompt_tokens", resp.Usage.PromptTokens).
			Int("completion_tokens", resp.Usage.CompletionTokens).
			Msg("Received text generation response")

		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}

	return "", NewServiceError(op, lastErr, "request failed")
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// classify maps credential failures onto ErrNotAuthenticated.
func classify(err error) error {
	switch statusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	return err
}

func retryable(err error) bool {
	code := statusCode(err)
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// OpenAIFactory returns a constructor that builds generators sharing base
// settings with a per-call API key.
func OpenAIFactory(base OpenAIConfig) func(apiKey string) (services.TextGenerator, error) {
	return func(apiKey string) (services.TextGenerator, error) {
		cfg := base
		cfg.APIKey = apiKey
		gen, err := NewOpenAIGenerator(cfg)
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
}
