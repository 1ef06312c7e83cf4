// Package tts defines the Engine interface for text-to-speech backends.
//
// A TTS engine wraps a speech synthesis service (e.g., a Gemini Live voice
// model or a local Higgs server) and renders one text chunk at a time under an
// explicit prosody matrix. Chunk-at-a-time rendering keeps prosody consistent
// within a chunk and lets the dispatcher fail over between engines at chunk
// granularity.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

// Engine is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use. Multiple render requests
// may run in parallel (e.g., pre-rendering the next chunk while the current
// one plays).
type Engine interface {
	// Name identifies the engine for logging, metrics and chunk provenance.
	// It must be stable for the lifetime of the instance.
	Name() string

	// Render synthesises one text chunk under the given prosody matrix and
	// returns the complete raw PCM payload (16-bit little-endian).
	//
	// Render must respect ctx cancellation. Error classification drives the
	// dispatcher's failover decisions:
	//
	//   - errors matching [ErrQuotaExceeded] mark the engine exhausted for the
	//     rest of the session;
	//   - errors matching [ErrFatal] are not retried on any engine;
	//   - every other error is transient and eligible for one fallback attempt.
	Render(ctx context.Context, text string, m prosody.Matrix) ([]byte, error)
}

// Pinger is optionally implemented by engines that can report reachability.
// The health endpoint uses it for readiness checks.
type Pinger interface {
	// Ping verifies the backend is reachable. It should be cheap and must
	// respect ctx cancellation.
	Ping(ctx context.Context) error
}
