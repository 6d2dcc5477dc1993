package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ward-assistant/internal/agent"
)

// Defaults for the shared call window.
const (
	DefaultMaxCalls = 15
	DefaultWindow   = time.Minute
)

// Response is a gateway reply; FromCache marks cache hits.
type Response struct {
	Text      string `json:"text"`
	FromCache bool   `json:"from_cache"`
}

// RateLimitStatus is the caller-visible limiter state.
type RateLimitStatus struct {
	Allowed bool  `json:"allowed"`
	WaitMs  int64 `json:"wait_ms"`
}

// Gateway is the rate-limited, cached wrapper around the generative
// model. All call sites of a session share one gateway, so the limiter
// window and usage log are shared too.
type Gateway struct {
	client  agent.Client
	limiter *RateLimiter
	cache   *ResponseCache
	usage   *UsageLog
	log     zerolog.Logger
	now     func() time.Time
}

func New(client agent.Client, cache *ResponseCache, log zerolog.Logger) *Gateway {
	return NewWithLimits(client, cache, log, DefaultMaxCalls, DefaultWindow)
}

// NewWithLimits builds a gateway with an explicit call window, for when
// the limits come from configuration.
func NewWithLimits(client agent.Client, cache *ResponseCache, log zerolog.Logger, maxCalls int, window time.Duration) *Gateway {
	return &Gateway{
		client:  client,
		limiter: NewRateLimiter(maxCalls, window),
		cache:   cache,
		usage:   NewUsageLog(),
		log:     log.With().Str("component", "gateway").Logger(),
		now:     time.Now,
	}
}

// CheckRateLimit exposes the limiter state without consuming a slot.
func (g *Gateway) CheckRateLimit() RateLimitStatus {
	allowed, wait := g.limiter.Check(g.now())
	return RateLimitStatus{Allowed: allowed, WaitMs: wait.Milliseconds()}
}

// Usage returns the rolling usage totals.
func (g *Gateway) Usage() UsageTotals {
	return g.usage.Totals()
}

// Generate runs a model call with caching and rate limiting. On model
// failure the provided fallback is returned instead of the error; the
// error is logged and the caller sees degraded but safe text. Rate
// limiting is not recoverable here; it is returned for the UI to
// surface as a visible wait.
func (g *Gateway) Generate(ctx context.Context, operation, prompt string, history []agent.Message, fallback string) (Response, error) {
	resp, err := g.call(ctx, operation, prompt, history)
	if err != nil {
		if _, ok := err.(*RateLimitedError); ok {
			return Response{}, err
		}
		g.log.Error().Err(err).Str("operation", operation).Msg("model call failed, using fallback")
		return Response{Text: fallback}, nil
	}
	return resp, nil
}

// Classify runs the single-turn classification call. Unlike Generate it
// propagates model failure for caller-level handling.
func (g *Gateway) Classify(ctx context.Context, prompt string) (Response, error) {
	return g.call(ctx, "classify", prompt, []agent.Message{{Role: "user", Content: prompt}})
}

func (g *Gateway) call(ctx context.Context, operation, prompt string, history []agent.Message) (Response, error) {
	if text, ok := g.cache.Lookup(ctx, operation, prompt); ok {
		g.log.Debug().Str("operation", operation).Msg("cache hit")
		return Response{Text: text, FromCache: true}, nil
	}

	allowed, wait := g.limiter.Reserve(g.now())
	if !allowed {
		return Response{}, &RateLimitedError{Wait: wait}
	}

	// Every model call gets a usage entry, failed ones included, so the
	// cost readout matches the limiter window.
	text, err := g.client.Generate(ctx, history)
	g.usage.Record(g.now(), operation, g.client.Model(), prompt, text)
	if err != nil {
		return Response{}, fmt.Errorf("model call %s: %w", operation, err)
	}
	if err := g.cache.Insert(ctx, operation, prompt, text); err != nil {
		g.log.Error().Err(err).Str("operation", operation).Msg("cache insert failed")
	}
	return Response{Text: text}, nil
}
