// Package llm invokes the classification and synthesis model with retry on throttling and cost tracking.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/alan/review-miner/internal/cost"
	"github.com/alan/review-miner/internal/telemetry"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/alan/review-miner/internal/llm"

const (
	synthesisMaxTokens    = 10000
	synthesisTemperature  = 0.2
	classifyBaseTokens    = 300
	classifyTokensPerItem = 80
)

var (
	// ErrThrottled marks a rate-limit rejection from the model provider
	ErrThrottled = errors.New("llm: request throttled")
	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Request is a single model invocation
type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int64
	Temperature float64
}

// Response carries the generated text and its token usage
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Transport performs one model call without retrying
type Transport interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// RetryPolicy controls exponential backoff on transient failures
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy returns 3 attempts starting at 1s, doubling up to 60s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: 60 * time.Second}
}

// Gateway wraps a Transport with retry, the cost ledger and metrics
type Gateway struct {
	transport        Transport
	model            string
	temperature      float64
	maxTokensPerCall int64
	retry            RetryPolicy
	ledger           *cost.Ledger

	requests     metric.Int64Counter
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	duration     metric.Float64Histogram
}

// Option configures a Gateway
type Option func(*Gateway)

// WithRetryPolicy overrides the default retry policy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(g *Gateway) { g.retry = p }
}

// WithTemperature sets the sampling temperature used for classification
func WithTemperature(t float64) Option {
	return func(g *Gateway) { g.temperature = t }
}

// WithMaxTokensPerCall caps the output budget of any single call
func WithMaxTokensPerCall(n int64) Option {
	return func(g *Gateway) { g.maxTokensPerCall = n }
}

// NewGateway creates a gateway for model. Every successful call is recorded in ledger when it is not nil.
func NewGateway(transport Transport, model string, ledger *cost.Ledger, opts ...Option) *Gateway {
	g := &Gateway{
		transport:        transport,
		model:            model,
		temperature:      0.1,
		maxTokensPerCall: 40000,
		retry:            DefaultRetryPolicy(),
		ledger:           ledger,
	}
	for _, opt := range opts {
		opt(g)
	}

	m := telemetry.Meter(instrumentationName)
	g.requests, _ = m.Int64Counter("review_miner.llm.requests",
		metric.WithDescription("Model invocations, including retries"),
	)
	g.inputTokens, _ = m.Int64Counter("review_miner.llm.input_tokens",
		metric.WithDescription("Input tokens consumed"),
		metric.WithUnit("{token}"),
	)
	g.outputTokens, _ = m.Int64Counter("review_miner.llm.output_tokens",
		metric.WithDescription("Output tokens generated"),
		metric.WithUnit("{token}"),
	)
	g.duration, _ = m.Float64Histogram("review_miner.llm.request.duration",
		metric.WithDescription("Model request duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return g
}

// Model returns the model ID used for every call
func (g *Gateway) Model() string {
	return g.model
}

// ClassifyBatch sends a batched classification prompt covering n comments
func (g *Gateway) ClassifyBatch(ctx context.Context, prompt string, n int) (string, error) {
	resp, err := g.Invoke(ctx, "classify", prompt, g.classifyBudget(n), g.temperature)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// SynthesizeGuidelines sends a guideline generation or update prompt
func (g *Gateway) SynthesizeGuidelines(ctx context.Context, prompt string) (string, error) {
	maxTokens := min(int64(synthesisMaxTokens), g.maxTokensPerCall)
	resp, err := g.Invoke(ctx, "synthesize", prompt, maxTokens, synthesisTemperature)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// classifyBudget scales the output budget with the batch size so long batches are not cut short
func (g *Gateway) classifyBudget(n int) int64 {
	budget := int64(classifyBaseTokens + classifyTokensPerItem*n)
	return min(budget, g.maxTokensPerCall)
}

// Invoke calls the model, retrying transient failures with exponential backoff
func (g *Gateway) Invoke(ctx context.Context, operation, prompt string, maxTokens int64, temperature float64) (*Response, error) {
	ctx, span := telemetry.Tracer(instrumentationName).Start(ctx, "llm."+operation)
	defer span.End()

	modelAttr := attribute.String("review_miner.llm.model", g.model)
	opAttr := attribute.String("review_miner.llm.operation", operation)
	span.SetAttributes(modelAttr, opAttr)

	req := Request{Model: g.model, Prompt: prompt, MaxTokens: maxTokens, Temperature: temperature}

	var resp *Response
	attempts := 0
	call := func() error {
		attempts++
		g.requests.Add(ctx, 1, metric.WithAttributes(modelAttr, opAttr))

		start := time.Now()
		r, err := g.transport.Invoke(ctx, req)
		g.duration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(modelAttr, opAttr))

		if err != nil {
			if ctx.Err() != nil || !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		slog.Warn("LLM call failed, retrying", "operation", operation, "attempt", attempts, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(call, g.backOff(ctx), notify); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to invoke model after %d attempt(s): %w", attempts, err)
	}

	var callCost, runningCost float64
	if g.ledger != nil {
		callCost = g.ledger.Record(g.model, resp.InputTokens, resp.OutputTokens)
		runningCost = g.ledger.TotalCost()
	}
	g.inputTokens.Add(ctx, resp.InputTokens, metric.WithAttributes(modelAttr))
	g.outputTokens.Add(ctx, resp.OutputTokens, metric.WithAttributes(modelAttr))
	span.SetAttributes(
		attribute.Int64("review_miner.llm.input_tokens", resp.InputTokens),
		attribute.Int64("review_miner.llm.output_tokens", resp.OutputTokens),
		attribute.Int("review_miner.llm.attempts", attempts),
	)
	slog.Debug("LLM call completed",
		"operation", operation,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"cost", callCost,
		"running_cost", runningCost,
	)

	if strings.TrimSpace(resp.Text) == "" {
		return resp, ErrEmptyResponse
	}
	return resp, nil
}

func (g *Gateway) backOff(ctx context.Context) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.retry.InitialDelay
	bo.MaxInterval = g.retry.MaxDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	retries := 0
	if g.retry.MaxAttempts > 1 {
		retries = g.retry.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx)
}

// IsRetryable reports whether err is throttling, a server-side failure or a network timeout
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrThrottled) {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
