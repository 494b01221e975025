package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"

	"sortir-backend/internal/llm"
	"sortir-backend/internal/shared/metrics"
	"sortir-backend/internal/shared/telemetry"
)

const (
	defaultTimeout = 60 * time.Second

	breakerName             = "llm"
	breakerConsecutiveFails = 5
	breakerOpenTimeout      = 30 * time.Second
)

// Options configures the OpenAI-compatible gateway.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Gateway using Chat Completions.
type Client struct {
	api     *goopenai.Client
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[string]
}

// NewClient constructs a new OpenAI client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cfg := goopenai.DefaultConfig(opts.APIKey)
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}

	return &Client{
		api:     goopenai.NewClientWithConfig(cfg),
		model:   opts.Model,
		timeout: timeout,
		breaker: newBreaker(),
	}, nil
}

func newBreaker() *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFails
		},
		// A caller giving up says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.Warn("llm.breaker_state_change", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.SetBreakerState(name, int(to))
		},
	})
}

// Ask sends one chat completion request bounded by the client timeout.
func (c *Client) Ask(ctx context.Context, systemInstruction, contextText, question string) (string, error) {
	start := time.Now()
	answer, err := c.breaker.Execute(func() (string, error) {
		return c.complete(ctx, systemInstruction, contextText, question)
	})
	elapsed := time.Since(start)

	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "circuit_open"
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		}
		metrics.ObserveGateway(outcome, elapsed)
		telemetry.Error("llm.request_failed", map[string]any{
			"model":       c.model,
			"outcome":     outcome,
			"duration_ms": elapsed.Milliseconds(),
			"error":       err,
		})
		return "", fmt.Errorf("%w: %w", llm.ErrGateway, err)
	}

	metrics.ObserveGateway("ok", elapsed)
	return answer, nil
}

func (c *Client) complete(ctx context.Context, systemInstruction, contextText, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: goopenai.ChatMessageRoleUser, Content: userMessage(contextText, question)},
		},
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai response missing choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai response empty content")
	}

	telemetry.Info("llm.response", map[string]any{
		"model":             c.model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
	})
	return content, nil
}

func userMessage(contextText, question string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

var _ llm.Gateway = (*Client)(nil)
