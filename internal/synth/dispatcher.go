package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atlasvoice/atlas-voice-core/internal/observe"
	"github.com/atlasvoice/atlas-voice-core/internal/resilience"
	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/tts"
)

// ErrAllEnginesFailed is returned by [Dispatcher.Render] when every eligible
// engine failed or was quota-exhausted.
var ErrAllEnginesFailed = errors.New("synth: all engines failed")

// DispatcherOption is a functional option for configuring a [Dispatcher].
type DispatcherOption func(*Dispatcher)

// WithBreakerConfig tunes the circuit breaker wrapped around the primary
// engine's renders.
func WithBreakerConfig(cfg resilience.Config) DispatcherOption {
	return func(d *Dispatcher) {
		cfg.Name = d.primary.Name()
		d.breaker = resilience.NewCircuitBreaker(cfg)
	}
}

// WithDispatcherMetrics supplies the metrics instance used for failover and
// chunk accounting. Defaults to [observe.DefaultMetrics].
func WithDispatcherMetrics(m *observe.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher routes chunk renders between the primary (cloud) engine and the
// fallback (local) engine.
//
// Failure handling follows three classes:
//
//   - quota errors mark the engine exhausted for the rest of the session —
//     every later chunk skips it without retrying, until [Dispatcher.ResetQuota];
//   - fatal errors abort the render with no fallback attempt;
//   - transient errors trigger exactly one attempt on the next engine.
//
// A circuit breaker additionally guards the primary so repeated transient
// failures stop costing primary-latency per chunk.
//
// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	primary  tts.Engine
	fallback tts.Engine
	breaker  *resilience.CircuitBreaker
	metrics  *observe.Metrics

	mu        sync.Mutex
	exhausted map[string]bool // engine name -> quota spent this session
}

// NewDispatcher creates a Dispatcher over a primary and an optional fallback
// engine. fallback may be nil, in which case failures are terminal.
func NewDispatcher(primary, fallback tts.Engine, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		primary:   primary,
		fallback:  fallback,
		exhausted: make(map[string]bool),
	}
	d.breaker = resilience.NewCircuitBreaker(resilience.Config{Name: primary.Name()})
	for _, o := range opts {
		o(d)
	}
	if d.metrics == nil {
		d.metrics = observe.DefaultMetrics()
	}
	return d
}

// Render synthesises one chunk, failing over between engines per the policy
// above. It returns the PCM payload and the name of the engine that produced
// it.
func (d *Dispatcher) Render(ctx context.Context, text string, m prosody.Matrix) ([]byte, string, error) {
	var lastErr error

	for _, eng := range d.order() {
		if eng == nil {
			continue
		}
		if d.QuotaExhausted(eng.Name()) {
			continue
		}

		start := time.Now()
		pcm, err := d.render(ctx, eng, text, m)
		d.metrics.RenderDuration.Record(ctx, time.Since(start).Seconds())

		if err == nil {
			return pcm, eng.Name(), nil
		}
		lastErr = err

		switch {
		case tts.IsQuota(err):
			d.markExhausted(eng.Name())
			slog.Warn("engine quota exhausted, routing around it for this session",
				"engine", eng.Name())
			d.recordFailover(ctx, eng.Name(), "quota")
		case tts.IsFatal(err):
			slog.Error("fatal render error, no fallback attempted",
				"engine", eng.Name(), "error", err)
			return nil, "", err
		case errors.Is(err, resilience.ErrCircuitOpen):
			slog.Debug("skipping engine (circuit open)", "engine", eng.Name())
			d.recordFailover(ctx, eng.Name(), "circuit_open")
		default:
			slog.Warn("engine render failed, trying next",
				"engine", eng.Name(), "error", err)
			d.recordFailover(ctx, eng.Name(), "transient")
		}

		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no engine available")
	}
	return nil, "", fmt.Errorf("%w: %w", ErrAllEnginesFailed, lastErr)
}

// render invokes one engine, wrapping the primary with the circuit breaker.
func (d *Dispatcher) render(ctx context.Context, eng tts.Engine, text string, m prosody.Matrix) ([]byte, error) {
	if eng != d.primary {
		return eng.Render(ctx, text, m)
	}
	var pcm []byte
	err := d.breaker.Execute(func() error {
		var renderErr error
		pcm, renderErr = eng.Render(ctx, text, m)
		return renderErr
	})
	return pcm, err
}

// order returns the engines to try, primary first.
func (d *Dispatcher) order() []tts.Engine {
	return []tts.Engine{d.primary, d.fallback}
}

// QuotaExhausted reports whether the named engine is marked quota-spent for
// this session.
func (d *Dispatcher) QuotaExhausted(engine string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exhausted[engine]
}

// markExhausted flags an engine as quota-spent until ResetQuota.
func (d *Dispatcher) markExhausted(engine string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exhausted[engine] = true
}

// ResetQuota clears all quota-exhausted flags and the primary's breaker,
// making every engine eligible again. Call it when a new quota window opens.
func (d *Dispatcher) ResetQuota() {
	d.mu.Lock()
	d.exhausted = make(map[string]bool)
	d.mu.Unlock()
	d.breaker.Reset()
	slog.Info("engine quota flags reset")
}

func (d *Dispatcher) recordFailover(ctx context.Context, from, reason string) {
	to := ""
	if d.fallback != nil && from == d.primary.Name() {
		to = d.fallback.Name()
	}
	d.metrics.RecordFailover(ctx, from, to, reason)
}
