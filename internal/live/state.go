// Package live runs the full-duplex conversation session: microphone capture
// streams up to the model while synthesised audio, transcripts and turn
// signals stream back, all coordinated by a single state machine.
package live

// State is the live session's current mode. Transitions are driven by model
// events, the stall watchdog, and explicit stop requests; all transitions go
// through the controller so consumers observe them in order.
type State int

const (
	// StateIdle means no session is active. The terminal state of StopAll.
	StateIdle State = iota

	// StateListening means the session is up and microphone audio is
	// streaming to the model.
	StateListening

	// StateResponding means the model has started producing a response
	// (transcript seen) but no audio has played yet.
	StateResponding

	// StatePlaying means response audio is scheduled or audibly playing.
	StatePlaying

	// StateRecovering means the watchdog detected a stall and is nudging the
	// model back to life.
	StateRecovering

	// StateError means the session failed unrecoverably. Only StopAll leaves
	// this state.
	StateError
)

// String returns the lowercase state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateResponding:
		return "responding"
	case StatePlaying:
		return "playing"
	case StateRecovering:
		return "recovering"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
