// Package providerclient implements the provider client (spec §4.4): one
// HTTP connection per conversation, routed by wire format, with per-model
// parameter transforms and reasoning configuration applied before send.
package providerclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/retry"
	"github.com/krustycode/agentcore/internal/streaming"
	"github.com/krustycode/agentcore/internal/wireformat"
)

// tracer emits one span per outbound provider request. Unlike
// internal/observability/tracing.go, this core never constructs its own
// TracerProvider or OTLP exporter (no span-storage backend is in scope);
// spans are emitted through otel's global no-op provider unless the host
// process installs one, per spec §6.3's "leave SDK wiring to the host".
var tracer = otel.Tracer("github.com/krustycode/agentcore/internal/providerclient")

// AuthStyle discriminates how the API key is attached to outbound requests.
type AuthStyle int

const (
	AuthXAPIKey AuthStyle = iota
	AuthBearer
)

// Config configures a Client for one provider endpoint.
type Config struct {
	Provider     string
	Model        string
	BaseURL      string
	APIKey       string
	Auth         AuthStyle
	Dialect      wireformat.Dialect
	CustomHeaders map[string]string
	CacheEnabled bool
}

// Client owns one HTTP connection per conversation and exposes the three
// call operations §4.4 names.
type Client struct {
	cfg    Config
	http   *http.Client
	format wireformat.Handler
	logger *slog.Logger
	retry  retry.Config
}

// New constructs a Client. The HTTP connect timeout is long (5 minutes,
// spec §5 Timeouts) since streaming responses may be slow to start.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: 5 * time.Minute, KeepAlive: 30 * time.Second}).DialContext
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Transport: transport},
		format: wireformat.ForDialect(cfg.Dialect),
		logger: logger.With("component", "providerclient", "provider", cfg.Provider),
		retry:  retry.DefaultPreset(),
	}
}

// CallOptions carries the per-call knobs call_streaming/call_with_tools
// read (spec §4.4.1-4.4.4).
type CallOptions struct {
	// Model overrides the Client's configured model for this call only
	// (spec §4.5.6 per-task model selection: sub-agents route to a
	// cheaper tier than the parent session's model without needing a
	// second Client). Empty means use the Client's configured model.
	Model             string
	MaxTokens         int
	Temperature       *float64
	ReasoningFormat   ReasoningFormat
	ThinkingBudget    int
	Effort            string
	EnableWebTools    bool
	ContextManagement map[string]any
	SystemOverride    string
}

// ReasoningFormat selects the reasoning dialect (spec §4.4.2).
type ReasoningFormat string

const (
	ReasoningNone     ReasoningFormat = ""
	ReasoningAnthropic ReasoningFormat = "anthropic"
	ReasoningOpenAI   ReasoningFormat = "openai"
	ReasoningDeepSeek ReasoningFormat = "deepseek"
)

func (c *Client) authHeader(req *http.Request) {
	switch c.cfg.Auth {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	default:
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}
	for k, v := range c.cfg.CustomHeaders {
		req.Header.Set(k, v)
	}
}

// buildRequest runs steps 1-9 of §4.4.1: extracts system content, computes
// reasoning params, builds wire messages/tools, applies per-model
// transforms, and returns the serialized body plus beta headers.
func (c *Client) buildRequest(messages []canonical.Message, tools []wireformat.ToolDef, opts CallOptions, streamFlag bool) ([]byte, map[string]string, error) {
	model := c.cfg.Model
	if opts.Model != "" {
		model = opts.Model
	}
	hint := wireformat.HintFor(c.cfg.Provider, model)

	wireMessages, extractedSystem, err := c.format.ConvertMessages(messages, hint)
	if err != nil {
		return nil, nil, fmt.Errorf("providerclient: convert messages: %w", err)
	}

	system := CoreSystemPrompt
	if opts.SystemOverride != "" {
		system = opts.SystemOverride
	}
	if extractedSystem != "" {
		system += "\n\n" + extractedSystem
	}

	var wireTools []byte
	if len(tools) > 0 {
		wireTools, err = c.format.ConvertTools(tools)
		if err != nil {
			return nil, nil, fmt.Errorf("providerclient: convert tools: %w", err)
		}
	}

	reasoning, betaHeaders := c.reasoningParams(opts, model)
	maxTokens := resolveMaxTokens(opts, reasoning)

	params := ModelParams(model, c.cfg.Provider, reasoning != nil && reasoning.Enabled)

	req := wireformat.RequestParams{
		Model:        model,
		System:       system,
		WireMessages: wireMessages,
		WireTools:    wireTools,
		MaxTokens:    maxTokens,
		Stream:       streamFlag,
		Temperature:  params.Temperature,
		TopP:         params.TopP,
		TopK:         params.TopK,
		Reasoning:    reasoning,
		ExtraParams:  params.ExtraParams,
		CacheEnabled: c.cfg.CacheEnabled,
	}
	if opts.Temperature != nil {
		req.Temperature = opts.Temperature
	}

	body, err := c.format.BuildRequestBody(req)
	if err != nil {
		return nil, nil, fmt.Errorf("providerclient: build request body: %w", err)
	}
	return body, betaHeaders, nil
}

func resolveMaxTokens(opts CallOptions, reasoning *wireformat.ReasoningParams) int {
	if opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	if reasoning != nil && reasoning.Enabled && reasoning.BudgetTokens > 0 {
		return reasoning.BudgetTokens + 4096
	}
	return 4096
}

// reasoningParams implements §4.4.2: selects a reasoning dialect and
// returns the normalized params plus any beta headers it requires.
func (c *Client) reasoningParams(opts CallOptions, model string) (*wireformat.ReasoningParams, map[string]string) {
	if opts.ReasoningFormat == ReasoningNone {
		return nil, nil
	}
	headers := map[string]string{}
	switch opts.ReasoningFormat {
	case ReasoningAnthropic:
		budget := opts.ThinkingBudget
		if budget <= 0 {
			budget = 32000
		}
		headers["anthropic-beta"] = "interleaved-thinking-2025-05-14"
		if containsOpus45(model) {
			headers["anthropic-beta"] += ",effort-2025-11-24"
		}
		return &wireformat.ReasoningParams{Enabled: true, BudgetTokens: budget}, headers
	case ReasoningOpenAI, ReasoningDeepSeek:
		effort := opts.Effort
		if effort == "" {
			effort = "high"
		}
		return &wireformat.ReasoningParams{Enabled: true, Effort: effort}, nil
	default:
		return nil, nil
	}
}

func containsOpus45(model string) bool {
	return len(model) >= len("opus-4-5") && indexOf(model, "opus-4-5") >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// CoreSystemPrompt is the single process-wide persona constant (spec §9
// Global state), shared across dialects; OpenAI-chat also prefixes it via
// wireformat.CoreSystemPrompt, kept identical so both paths present the
// same persona.
const CoreSystemPrompt = wireformat.CoreSystemPrompt

// doPost issues one POST with retry, returning the raw response body and
// status for callers to interpret.
func (c *Client) doPost(ctx context.Context, path string, body []byte, headers map[string]string, streamFlag bool) (*http.Response, error) {
	ctx, span := tracer.Start(ctx, "providerclient.doPost", trace.WithAttributes(
		attribute.String("provider", c.cfg.Provider),
		attribute.String("model", c.cfg.Model),
		attribute.String("path", path),
		attribute.Bool("stream", streamFlag),
	))
	defer span.End()

	var resp *http.Response

	result, err := retryDo(ctx, c.retry, func(attempt int) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		c.authHeader(req)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		r, doErr := c.http.Do(req)
		if doErr != nil {
			return doErr
		}
		if retry.RetryableStatus(r.StatusCode) {
			retryAfter := r.Header.Get("Retry-After")
			defer r.Body.Close()
			errBody, _ := io.ReadAll(r.Body)
			c.logger.Warn("retryable provider status", "status", r.StatusCode, "attempt", attempt, "body", string(errBody))
			baseErr := fmt.Errorf("providerclient: retryable status %d", r.StatusCode)
			if d, ok := retry.ParseRetryAfter(retryAfter, time.Now()); ok {
				return retry.WithRetryAfter(baseErr, d)
			}
			return baseErr
		}
		resp = r
		return nil
	})

	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
		return nil, result.Err
	}
	_ = err
	return resp, nil
}

func retryDo(ctx context.Context, cfg retry.Config, op func(attempt int) error) (retry.Result, error) {
	res := retry.WithAttemptNumber(ctx, cfg, op)
	return res, res.Err
}
