package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atlasvoice/atlas-voice-core/internal/observe"
	"github.com/atlasvoice/atlas-voice-core/pkg/audio"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/duplex"
)

// duckGain is the capture attenuation applied while response audio plays.
// Low enough to suppress acoustic echo, high enough that genuine barge-in
// still reaches the model.
const duckGain = 0.05

// bargeInRMS is the normalised capture energy above which a frame counts as
// the user talking over playback. Such frames are forwarded at full gain so
// the model can detect the interruption; everything quieter is treated as
// echo and ducked.
const bargeInRMS = 0.2

// ErrSessionActive is returned by Start when a session is already running.
var ErrSessionActive = errors.New("live: session already active")

// WatchdogConfig tunes the stall watchdog. The watchdog fires when the model
// owes us a response (responding or playing state) but nothing has arrived
// for longer than Threshold.
type WatchdogConfig struct {
	// Interval is how often the watchdog checks for a stall. Default: 1s.
	Interval time.Duration

	// Threshold is the silence duration that counts as a stall.
	// Default: 1.5s.
	Threshold time.Duration

	// MaxNudges bounds how many recovery nudges are sent for one stall
	// before the session gives up and enters the error state. Default: 3.
	MaxNudges int
}

func (c WatchdogConfig) withDefaults() WatchdogConfig {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.Threshold <= 0 {
		c.Threshold = 1500 * time.Millisecond
	}
	if c.MaxNudges <= 0 {
		c.MaxNudges = 3
	}
	return c
}

// Config assembles everything a live session needs.
type Config struct {
	// Transport opens the duplex model session.
	Transport duplex.Transport

	// Session is the transport session configuration (voice, instructions,
	// sample rates).
	Session duplex.SessionConfig

	// Capture is the microphone device. Acquired first on Start; if it
	// cannot be acquired the session does not start at all.
	Capture audio.CaptureDevice

	// CaptureConfig selects the capture format and acoustic processing.
	CaptureConfig audio.CaptureConfig

	// Sink receives scheduled response audio.
	Sink audio.OutputSink

	// Watchdog tunes stall detection.
	Watchdog WatchdogConfig

	// Metrics may be nil, in which case [observe.DefaultMetrics] is used.
	Metrics *observe.Metrics
}

// Callbacks notifies the caller about session activity. Nil fields are
// skipped. Callbacks are invoked from the controller's goroutines, one at a
// time, and must return quickly.
type Callbacks struct {
	// OnStateChange fires on every state transition.
	OnStateChange func(from, to State)

	// OnTranscript fires for each transcript fragment with the speaker role
	// (duplex.RoleUser or duplex.RoleAssistant).
	OnTranscript func(role, text string)

	// OnFatalError fires once when the session enters the error state.
	OnFatalError func(err error)
}

// Controller owns one live duplex session at a time: the capture upstream,
// the model downstream, the playback timeline, and the stall watchdog.
//
// Controller is safe for concurrent use.
type Controller struct {
	cfg      Config
	metrics  *observe.Metrics
	timeline *Timeline

	mu           sync.Mutex
	state        State
	cb           Callbacks
	sess         duplex.SessionHandle
	cancel       context.CancelFunc
	lastActivity time.Time
	nudges       int
	wg           sync.WaitGroup
}

// NewController creates a Controller in the idle state.
func NewController(cfg Config) *Controller {
	cfg.Watchdog = cfg.Watchdog.withDefaults()
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Controller{
		cfg:      cfg,
		metrics:  cfg.Metrics,
		timeline: NewTimeline(cfg.Sink, cfg.Metrics),
		state:    StateIdle,
	}
}

// State returns the session's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start brings the session up: microphone first, then the model connection.
// A capture failure fails Start outright with nothing half-started. On
// success the state is listening and the session runs until ctx is
// cancelled, the model ends it, or StopAll is called.
func (c *Controller) Start(ctx context.Context, cb Callbacks) error {
	c.mu.Lock()
	if c.state != StateIdle && c.state != StateError {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.cb = cb
	c.mu.Unlock()

	if c.cfg.Transport == nil || c.cfg.Capture == nil || c.cfg.Sink == nil {
		return errors.New("live: transport, capture and sink are all required")
	}

	frames, err := c.cfg.Capture.Start(ctx, c.cfg.CaptureConfig)
	if err != nil {
		return fmt.Errorf("live: acquire capture: %w", err)
	}

	sess, err := c.cfg.Transport.Connect(ctx, c.cfg.Session)
	if err != nil {
		_ = c.cfg.Capture.Stop()
		return fmt.Errorf("live: connect: %w", err)
	}

	sessCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.sess = sess
	c.cancel = cancel
	c.lastActivity = time.Now()
	c.nudges = 0
	c.mu.Unlock()

	c.metrics.ActiveSessions.Add(context.Background(), 1)
	c.setState(StateListening)

	g, gctx := errgroup.WithContext(sessCtx)
	g.Go(func() error { return c.captureLoop(gctx, frames, sess) })
	g.Go(func() error { return c.receiveLoop(gctx, sess) })
	g.Go(func() error { return c.watchdogLoop(gctx, sess) })

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := g.Wait()
		c.teardown(err)
	}()

	return nil
}

// captureLoop streams microphone frames to the model, ducking the payload
// while response audio is scheduled or playing. Frames loud enough to be a
// barge-in pass through at full gain.
func (c *Controller) captureLoop(ctx context.Context, frames <-chan audio.AudioFrame, sess duplex.SessionHandle) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return errors.New("live: capture stream ended")
			}
			data := frame.Data
			if c.timeline.Active() > 0 && audio.RMS(data) < bargeInRMS {
				data = audio.Duck(data, duckGain)
			}
			if err := sess.SendAudio(data); err != nil {
				return fmt.Errorf("live: send audio: %w", err)
			}
		}
	}
}

// receiveLoop consumes model events and drives the state machine. Events
// arrive on a single channel, so transitions happen in model order.
func (c *Controller) receiveLoop(ctx context.Context, sess duplex.SessionHandle) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sess.Events():
			if !ok {
				if err := sess.Err(); err != nil {
					return fmt.Errorf("live: session: %w", err)
				}
				return errors.New("live: session ended")
			}
			c.touch()

			switch ev.Kind {
			case duplex.EventTranscript:
				switch s := c.State(); {
				case ev.Role == duplex.RoleUser && s == StateListening:
					// The model owes a response from the moment user speech
					// is transcribed; the stall watchdog arms here.
					c.setState(StateResponding)
				case ev.Role == duplex.RoleAssistant && (s == StateListening || s == StateRecovering):
					c.setState(StateResponding)
				}
				c.onTranscript(ev.Role, ev.Text)

			case duplex.EventAudio:
				if s := c.State(); s == StateListening || s == StateResponding || s == StateRecovering {
					c.setState(StatePlaying)
				}
				c.timeline.Schedule(audio.AudioFrame{
					Data:       ev.Audio,
					SampleRate: c.cfg.Session.OutputSampleRate,
					Channels:   1,
				})

			case duplex.EventInterrupted:
				// Barge-in: drop everything not yet audible and go back to
				// listening immediately.
				c.timeline.StopAll()
				c.setState(StateListening)

			case duplex.EventTurnComplete:
				c.setState(StateListening)
			}
		}
	}
}

// watchdogLoop detects a stalled model turn and nudges the session. When the
// nudge budget is spent the session enters the error state rather than
// nudging forever.
func (c *Controller) watchdogLoop(ctx context.Context, sess duplex.SessionHandle) error {
	wd := c.cfg.Watchdog
	ticker := time.NewTicker(wd.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		c.mu.Lock()
		state := c.state
		stalled := (state == StateResponding || state == StateRecovering) &&
			time.Since(c.lastActivity) > wd.Threshold &&
			c.timeline.Active() == 0
		nudges := c.nudges
		c.mu.Unlock()

		if !stalled {
			continue
		}

		if nudges >= wd.MaxNudges {
			return fmt.Errorf("live: model stalled after %d nudges", nudges)
		}

		c.setState(StateRecovering)
		c.mu.Lock()
		c.nudges++
		c.mu.Unlock()

		slog.Warn("model turn stalled, sending nudge",
			"nudge", nudges+1, "max", wd.MaxNudges)
		c.metrics.WatchdogNudges.Add(context.Background(), 1)

		// A short silence frame is the cheapest signal that keeps the
		// input stream moving without injecting content.
		rate := c.cfg.Session.InputSampleRate
		if rate <= 0 {
			rate = 16000
		}
		if err := sess.SendAudio(audio.Silence(100*time.Millisecond, rate)); err != nil {
			return fmt.Errorf("live: nudge: %w", err)
		}
	}
}

// touch records model activity and resets the stall nudge budget.
func (c *Controller) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.nudges = 0
	c.mu.Unlock()
}

// teardown releases session resources after the worker group exits and
// settles the final state. Cancellation counts as a clean stop.
func (c *Controller) teardown(err error) {
	c.timeline.StopAll()

	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	cb := c.cb
	c.mu.Unlock()

	if sess != nil {
		_ = sess.Close()
	}
	_ = c.cfg.Capture.Stop()
	c.metrics.ActiveSessions.Add(context.Background(), -1)

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("live session failed", "error", err)
		c.setState(StateError)
		if cb.OnFatalError != nil {
			cb.OnFatalError(err)
		}
		return
	}
	c.setState(StateIdle)
}

// StopAll tears the session down and returns once everything is released:
// no timers pending, no scheduled audio, capture stopped, state idle.
// Safe to call from any state, any number of times.
func (c *Controller) StopAll() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.timeline.StopAll()

	c.mu.Lock()
	changed := c.state != StateIdle
	c.mu.Unlock()
	if changed {
		c.setState(StateIdle)
	}
}

// setState performs one state transition, logging it and notifying the
// callback. No-op when the state is unchanged.
func (c *Controller) setState(to State) {
	c.mu.Lock()
	from := c.state
	if from == to {
		c.mu.Unlock()
		return
	}
	c.state = to
	cb := c.cb.OnStateChange
	c.mu.Unlock()

	slog.Info("live session state changed", "from", from.String(), "to", to.String())
	if cb != nil {
		cb(from, to)
	}
}

func (c *Controller) onTranscript(role, text string) {
	c.mu.Lock()
	cb := c.cb.OnTranscript
	c.mu.Unlock()
	if cb != nil {
		cb(role, text)
	}
}
