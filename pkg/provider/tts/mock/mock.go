// Package mock provides a test double for the tts.Engine interface.
//
// Use Engine to feed controlled audio payloads to consumers and to verify
// which text and prosody matrices reach the backend.
//
// Example:
//
//	e := &mock.Engine{EngineName: "primary", RenderResult: []byte("pcm")}
//	audio, err := e.Render(ctx, "Hello.", m)
package mock

import (
	"context"
	"sync"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/tts"
)

// RenderCall records a single invocation of Render.
type RenderCall struct {
	// Ctx is the context passed to Render.
	Ctx context.Context
	// Text is the chunk text passed to Render.
	Text string
	// Matrix is the prosody matrix passed to Render.
	Matrix prosody.Matrix
}

// Engine is a mock implementation of tts.Engine.
type Engine struct {
	mu sync.Mutex

	// EngineName is returned by Name. Defaults to "mock" when empty.
	EngineName string

	// --- Configurable responses ---

	// RenderResult is the audio payload returned by Render when RenderErr and
	// RenderFunc are nil.
	RenderResult []byte

	// RenderErr, if non-nil, is returned as the error from Render.
	RenderErr error

	// RenderFunc, if non-nil, is invoked to produce the result of Render.
	// Takes precedence over RenderResult and RenderErr. The call is still
	// recorded. Useful for per-call behaviour such as failing once then
	// recovering.
	RenderFunc func(ctx context.Context, text string, m prosody.Matrix) ([]byte, error)

	// PingErr, if non-nil, is returned by Ping.
	PingErr error

	// --- Call records ---

	// RenderCalls records every call to Render in order.
	RenderCalls []RenderCall

	// PingCallCount is the number of times Ping was called.
	PingCallCount int
}

// Name returns EngineName, or "mock" when unset.
func (e *Engine) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.EngineName == "" {
		return "mock"
	}
	return e.EngineName
}

// Render records the call and returns the configured result.
func (e *Engine) Render(ctx context.Context, text string, m prosody.Matrix) ([]byte, error) {
	e.mu.Lock()
	e.RenderCalls = append(e.RenderCalls, RenderCall{Ctx: ctx, Text: text, Matrix: m})
	fn := e.RenderFunc
	result, err := e.RenderResult, e.RenderErr
	e.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, m)
	}
	return result, err
}

// Ping records the call and returns PingErr.
func (e *Engine) Ping(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PingCallCount++
	return e.PingErr
}

// Reset clears all recorded calls. Thread-safe.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.RenderCalls = nil
	e.PingCallCount = 0
}

// Ensure Engine implements tts.Engine and tts.Pinger at compile time.
var (
	_ tts.Engine = (*Engine)(nil)
	_ tts.Pinger = (*Engine)(nil)
)
