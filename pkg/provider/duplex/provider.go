// Package duplex defines the Transport interface for bidirectional
// speech-to-speech backends.
//
// A duplex transport wraps a real-time voice model that accepts raw audio (or
// text turns) and streams back synthesised audio, transcripts and turn
// lifecycle signals over a single stateful session. Examples include the
// Gemini Live API and similar low-latency voice models.
//
// The central abstraction is SessionHandle: one bidirectional session carrying
// audio and events. Sessions are long-lived (seconds to minutes); the single
// Events channel serialises everything the model emits so consumers never see
// two signals concurrently.
//
// All implementations must be safe for concurrent use.
package duplex

import "context"

// EventKind discriminates the payload of an [Event].
type EventKind int

// Event kinds emitted by a session, in the order the model produced them.
const (
	// EventAudio carries a synthesised PCM audio chunk in Event.Audio.
	EventAudio EventKind = iota

	// EventTranscript carries recognised or generated text in Event.Text,
	// with Event.Role identifying the speaker.
	EventTranscript

	// EventInterrupted signals the model detected barge-in and discarded the
	// rest of the current response. No payload.
	EventInterrupted

	// EventTurnComplete signals the model finished its response turn.
	// No payload.
	EventTurnComplete
)

// String returns the lowercase kind name for logging.
func (k EventKind) String() string {
	switch k {
	case EventAudio:
		return "audio"
	case EventTranscript:
		return "transcript"
	case EventInterrupted:
		return "interrupted"
	case EventTurnComplete:
		return "turn_complete"
	default:
		return "unknown"
	}
}

// Speaker roles carried on transcript events.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Event is one item from the session's multiplexed output stream.
type Event struct {
	// Kind selects which payload fields are meaningful.
	Kind EventKind

	// Audio is raw 16-bit little-endian PCM. Set for EventAudio.
	Audio []byte

	// Text is the transcript fragment. Set for EventTranscript.
	Text string

	// Role is RoleUser or RoleAssistant. Set for EventTranscript.
	Role string
}

// SessionConfig is the initial configuration for a new duplex session.
type SessionConfig struct {
	// Model is the backend model identifier. Empty uses the transport default.
	Model string

	// VoiceName selects the prebuilt voice for synthesised output. Empty uses
	// the transport default.
	VoiceName string

	// Instructions is the system-level prompt applied for the whole session:
	// persona, style directives, behavioural constraints.
	Instructions string

	// InputSampleRate is the PCM rate of audio sent via SendAudio, in Hz.
	InputSampleRate int

	// OutputSampleRate is the PCM rate of audio received on Events, in Hz.
	OutputSampleRate int
}

// SessionHandle represents an open duplex session. It is an interface so test
// code can supply mock implementations without a live connection.
//
// The session is the hot path of the live voice pipeline — every method must
// return quickly. Output is channel-based to avoid blocking the caller's audio
// thread. All methods must be safe for concurrent use.
//
// Callers must call Close when the session is no longer needed.
type SessionHandle interface {
	// SendAudio delivers one raw PCM chunk to the model for processing. The
	// chunk must match SessionConfig.InputSampleRate. Returns an error if the
	// session is closed or the transport cannot accept the chunk.
	SendAudio(chunk []byte) error

	// SendText injects a text turn into the session. When endTurn is true the
	// model is asked to respond immediately; otherwise the text accumulates
	// as context for the next turn.
	SendText(text string, endTurn bool) error

	// Events returns the session's multiplexed output stream. Events arrive
	// in model order; the channel is closed when the session ends or a
	// mid-stream error occurs. After the channel closes, call
	// [SessionHandle.Err] to check whether the session ended cleanly.
	// Consumers must drain promptly to avoid stalling the receive loop.
	Events() <-chan Event

	// Err returns the error that caused the Events channel to close
	// prematurely, or nil if the session ended cleanly. Quota exhaustion is
	// reported as an error matching [ErrResourceExhausted].
	Err() error

	// Close terminates the session, releases all resources, and closes the
	// Events channel. Calling Close more than once is safe and returns nil.
	Close() error
}

// Transport is the abstraction over any duplex backend.
//
// Implementations must be safe for concurrent use; the orchestrator may open
// several sessions over one Transport (e.g., one per utterance for cloud TTS
// rendering plus one live conversation).
type Transport interface {
	// Connect establishes a new session with the given configuration. The
	// returned SessionHandle is ready to accept audio and text immediately.
	//
	// Returns an error if the session cannot be established (authentication
	// failure, quota exhaustion, or ctx already cancelled). The caller owns
	// the SessionHandle and is responsible for calling Close.
	Connect(ctx context.Context, cfg SessionConfig) (SessionHandle, error)
}
