package urgency

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/urgency/internal/taxonomy"
)

var tracer = otel.Tracer("github.com/linnemanlabs/urgency/internal/urgency")

const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxTokens = 512
)

// Notifier is told about fresh High urgency results.
type Notifier interface {
	Send(ctx context.Context, r *Result) error
}

// CompleteEvent describes one finished Classify call.
type CompleteEvent struct {
	Outcome     Outcome
	Cause       Cause
	Urgency     taxonomy.Urgency
	Subcategory string
	Confidence  float64
	Overridden  bool
	Duration    float64
}

// Hooks are optional observation callbacks. Nil fields are skipped.
type Hooks struct {
	OnLLMCall  func(inputTokens, outputTokens int, duration float64, err error)
	OnCache    func(hit bool)
	OnComplete func(e *CompleteEvent)
}

// Options configure a Classifier. Zero values select the defaults.
type Options struct {
	Registry  *taxonomy.Registry
	Hooks     Hooks
	Notifier  Notifier
	Timeout   time.Duration
	MaxTokens int

	// SingleFlight collapses concurrent computations for the same key.
	SingleFlight bool

	// OverrideConfidenceScale multiplies confidence when the subcategory's
	// tier replaces the stated urgency. 0 means 1 (unchanged).
	OverrideConfidenceScale float64
}

// Classifier is the public entry point: cache, model call, normalization and
// fallback, in that order.
type Classifier struct {
	provider Provider
	cache    Cache
	logger   log.Logger
	reg      *taxonomy.Registry
	hooks    Hooks
	notifier Notifier
	system   string

	timeout       time.Duration
	maxTokens     int
	overrideScale float64
	flight        *singleflight.Group
}

// NewClassifier builds a Classifier. The system prompt is rendered once here.
func NewClassifier(provider Provider, cache Cache, logger log.Logger, opts Options) *Classifier {
	if provider == nil {
		panic(xerrors.New("provider is required"))
	}
	if cache == nil {
		panic(xerrors.New("cache is required"))
	}
	if logger == nil {
		logger = log.Nop()
	}

	c := &Classifier{
		provider:      provider,
		cache:         cache,
		logger:        logger,
		reg:           opts.Registry,
		hooks:         opts.Hooks,
		notifier:      opts.Notifier,
		timeout:       opts.Timeout,
		maxTokens:     opts.MaxTokens,
		overrideScale: opts.OverrideConfidenceScale,
	}
	if c.reg == nil {
		c.reg = taxonomy.Default()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.overrideScale <= 0 || c.overrideScale > 1 {
		c.overrideScale = 1
	}
	if opts.SingleFlight {
		c.flight = &singleflight.Group{}
	}
	c.system = BuildSystemPrompt(c.reg)
	return c
}

// Registry returns the taxonomy the classifier validates against.
func (c *Classifier) Registry() *taxonomy.Registry {
	return c.reg
}

// ClearCache drops every cached result.
func (c *Classifier) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// Classify returns the urgency classification of an email. Per-request
// failures degrade to the fallback result; the only error returned wraps
// ErrConfiguration.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	start := time.Now()

	clean := strings.TrimSpace(text)
	if clean == "" {
		r := Fallback(CauseEmptyInput, "")
		c.complete(ctx, &CompleteEvent{Outcome: OutcomeFallback, Cause: CauseEmptyInput}, r, start)
		return r, nil
	}

	key := CacheKey(clean)
	if r, ok := c.lookup(ctx, key); ok {
		c.complete(ctx, &CompleteEvent{Outcome: OutcomeCached}, r, start)
		return r, nil
	}

	if c.flight == nil {
		return c.compute(ctx, key, clean, start)
	}

	// only the caller that runs the function reports its own completion
	leader := false
	v, err, _ := c.flight.Do(key, func() (any, error) {
		leader = true
		// another flight for this key may have stored it since our lookup
		if r, ok := c.peek(ctx, key); ok {
			c.complete(ctx, &CompleteEvent{Outcome: OutcomeCached}, r, start)
			return r, nil
		}
		return c.compute(ctx, key, clean, start)
	})
	if err != nil {
		return Result{}, err
	}
	r := v.(Result)
	if !leader {
		c.complete(ctx, &CompleteEvent{Outcome: OutcomeShared}, r, start)
	}
	return r, nil
}

// lookup reads the cache and reports the hit or miss to the hooks.
func (c *Classifier) lookup(ctx context.Context, key string) (Result, bool) {
	r, ok := c.peek(ctx, key)
	if c.hooks.OnCache != nil {
		c.hooks.OnCache(ok)
	}
	return r, ok
}

func (c *Classifier) peek(ctx context.Context, key string) (Result, bool) {
	r, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn(ctx, "cache get failed, treating as miss", "key", key[:12], "error", err)
		return Result{}, false
	}
	return r, ok
}

func (c *Classifier) compute(ctx context.Context, key, clean string, start time.Time) (Result, error) {
	ctx, span := tracer.Start(ctx, "urgency.classify")
	defer span.End()
	span.SetAttributes(attribute.String("urgency.cache_key", key[:12]))

	ev := &CompleteEvent{Outcome: OutcomeClassified}

	resp, err := c.call(ctx, clean)

	var result Result
	switch {
	case errors.Is(err, ErrConfiguration):
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error(ctx, err, "urgency classifier is not configured")
		return Result{}, err

	case err != nil:
		kind := ErrorKind(err)
		c.logger.Warn(ctx, "urgency classifier API error", "kind", kind, "error", err)
		result = Fallback(CauseAPIError, kind)
		ev.Outcome, ev.Cause = OutcomeFallback, CauseAPIError

	default:
		n, nerr := Normalize(c.reg, resp.Text())
		if nerr != nil {
			c.logger.Warn(ctx, "urgency classifier JSON parse error", "error", nerr)
			result = Fallback(CauseParseError, nerr.Error())
			ev.Outcome, ev.Cause = OutcomeFallback, CauseParseError
			break
		}
		result = n.Result
		if n.UrgencyOverridden {
			ev.Overridden = true
			result.Confidence = clamp01(result.Confidence * c.overrideScale)
			c.logger.Info(ctx, "urgency overridden by subcategory",
				"stated", n.StatedUrgency,
				"subcategory", result.Subcategory,
				"urgency", result.Urgency,
			)
		}
	}

	span.SetAttributes(
		attribute.String("urgency.outcome", string(ev.Outcome)),
		attribute.String("urgency.urgency", string(result.Urgency)),
		attribute.String("urgency.subcategory", result.Subcategory),
	)

	if err := c.cache.Put(ctx, key, result); err != nil {
		c.logger.Warn(ctx, "cache put failed", "key", key[:12], "error", err)
	}

	c.complete(ctx, ev, result, start)

	if ev.Outcome == OutcomeClassified && result.Urgency == taxonomy.High && c.notifier != nil {
		r := result
		go c.notify(context.WithoutCancel(ctx), &r)
	}

	return result, nil
}

// call issues the single completion request. The deadline is fixed and not
// tied to the caller, since the result is cached for every later caller.
func (c *Classifier) call(ctx context.Context, clean string) (*LLMResponse, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	llmStart := time.Now()
	resp, err := c.provider.Send(callCtx, &LLMRequest{
		MaxTokens:   c.maxTokens,
		Temperature: 0,
		System:      c.system,
		Messages: []Message{
			{Role: "user", Content: []ContentBlock{{Type: "text", Text: buildUserMessage(clean)}}},
		},
	})
	if err == nil && resp == nil {
		err = &ProviderError{Kind: "empty_response", Err: errors.New("provider returned no response")}
	}

	if c.hooks.OnLLMCall != nil {
		var in, out int
		if resp != nil {
			in, out = resp.Usage.InputTokens, resp.Usage.OutputTokens
		}
		c.hooks.OnLLMCall(in, out, time.Since(llmStart).Seconds(), err)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Classifier) complete(ctx context.Context, ev *CompleteEvent, r Result, start time.Time) {
	ev.Urgency = r.Urgency
	ev.Subcategory = r.Subcategory
	ev.Confidence = r.Confidence
	ev.Duration = time.Since(start).Seconds()

	c.logger.Info(ctx, "urgency classified",
		"outcome", ev.Outcome,
		"urgency", r.Urgency,
		"subcategory", r.Subcategory,
		"confidence", r.Confidence,
		"duration_ms", ev.Duration*1000,
	)

	if c.hooks.OnComplete != nil {
		c.hooks.OnComplete(ev)
	}
}

func (c *Classifier) notify(ctx context.Context, r *Result) {
	if err := c.notifier.Send(ctx, r); err != nil {
		c.logger.Error(ctx, err, "failed to send urgency notification",
			"urgency", r.Urgency,
			"subcategory", r.Subcategory,
		)
	}
}
