// Package geminitts provides the cloud studio TTS engine backed by a duplex
// Gemini Live transport. It implements the tts.Engine interface.
//
// Each Render opens one short-lived session: the prosody matrix is rendered
// into the session's system instructions, the chunk text is sent as a single
// turn, and the audio parts are drained until the model signals turn
// completion. Session-per-utterance keeps prosody strictly chunk-scoped — the
// model never carries style from one chunk into the next.
package geminitts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/duplex"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Engine = (*Engine)(nil)

const (
	// EngineName identifies this engine in logs, metrics and chunk provenance.
	EngineName = "gemini"

	defaultVoice      = "Aoede"
	defaultRenderWait = 30 * time.Second
	outputSampleRate  = 24000
)

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithVoice sets the prebuilt voice used for synthesis.
func WithVoice(name string) Option {
	return func(e *Engine) { e.voice = name }
}

// WithRenderTimeout bounds how long one Render waits for the model to finish
// a turn. Defaults to 30 s.
func WithRenderTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.renderWait = d
		}
	}
}

// Engine implements tts.Engine over a duplex transport. It is safe for
// concurrent use; each Render owns its private session.
type Engine struct {
	transport  duplex.Transport
	voice      string
	renderWait time.Duration
}

// New creates an Engine that renders over the given transport.
func New(transport duplex.Transport, opts ...Option) *Engine {
	e := &Engine{
		transport:  transport,
		voice:      defaultVoice,
		renderWait: defaultRenderWait,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Name implements tts.Engine.
func (e *Engine) Name() string { return EngineName }

// Render synthesises one chunk. The matrix drives the session's system
// instructions; the audio of exactly one model turn is returned.
//
// Quota errors from the transport are surfaced as tts.ErrQuotaExceeded so the
// dispatcher routes around this engine for the rest of the session.
func (e *Engine) Render(ctx context.Context, text string, m prosody.Matrix) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.renderWait)
	defer cancel()

	sess, err := e.transport.Connect(ctx, duplex.SessionConfig{
		VoiceName:        e.voice,
		Instructions:     m.Instruction(),
		OutputSampleRate: outputSampleRate,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("geminitts: connect: %w", err))
	}
	defer sess.Close()

	if err := sess.SendText("Read the following text aloud, exactly as written: "+text, true); err != nil {
		return nil, classify(fmt.Errorf("geminitts: send text: %w", err))
	}

	var pcm []byte
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("geminitts: render: %w", ctx.Err())
		case ev, ok := <-sess.Events():
			if !ok {
				if err := sess.Err(); err != nil {
					return nil, classify(fmt.Errorf("geminitts: session: %w", err))
				}
				// Session closed cleanly without a turn-complete signal;
				// return whatever audio arrived.
				return done(pcm)
			}
			switch ev.Kind {
			case duplex.EventAudio:
				pcm = append(pcm, ev.Audio...)
			case duplex.EventTurnComplete:
				return done(pcm)
			case duplex.EventInterrupted:
				return nil, errors.New("geminitts: render interrupted by model")
			}
		}
	}
}

// Ping verifies the transport can establish a session.
func (e *Engine) Ping(ctx context.Context) error {
	sess, err := e.transport.Connect(ctx, duplex.SessionConfig{VoiceName: e.voice})
	if err != nil {
		return classify(fmt.Errorf("geminitts: ping: %w", err))
	}
	return sess.Close()
}

func done(pcm []byte) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errors.New("geminitts: model produced no audio")
	}
	return pcm, nil
}

// classify maps transport quota errors onto the dispatcher's sentinel.
func classify(err error) error {
	if errors.Is(err, duplex.ErrResourceExhausted) {
		return fmt.Errorf("%w: %w", tts.ErrQuotaExceeded, err)
	}
	return err
}
