// Package mock provides test doubles for the duplex package interfaces.
//
// Use Transport to verify Connect calls and feed controlled sessions.
// Use Session to drive the event stream and inspect which methods the session
// controller invoked.
//
// Example:
//
//	sess := &mock.Session{EventsCh: make(chan duplex.Event, 16)}
//	tr := &mock.Transport{Session: sess}
//	handle, _ := tr.Connect(ctx, cfg)
package mock

import (
	"context"
	"sync"

	"github.com/atlasvoice/atlas-voice-core/pkg/provider/duplex"
)

// ConnectCall records a single invocation of Transport.Connect.
type ConnectCall struct {
	// Ctx is the context passed to Connect.
	Ctx context.Context
	// Cfg is the SessionConfig passed to Connect.
	Cfg duplex.SessionConfig
}

// Transport is a mock implementation of duplex.Transport.
type Transport struct {
	mu sync.Mutex

	// Session is the SessionHandle returned by Connect. If nil, Connect
	// returns a new default Session with a buffered event channel.
	Session duplex.SessionHandle

	// SessionFunc, if non-nil, is called to produce the SessionHandle for
	// each Connect. Takes precedence over Session. Useful when each
	// connection needs a fresh handle.
	SessionFunc func(cfg duplex.SessionConfig) (duplex.SessionHandle, error)

	// ConnectErr, if non-nil, is returned as the error from Connect.
	ConnectErr error

	// ConnectCalls records every call to Connect in order.
	ConnectCalls []ConnectCall
}

// Connect records the call and returns the configured session or error.
func (t *Transport) Connect(ctx context.Context, cfg duplex.SessionConfig) (duplex.SessionHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ConnectCalls = append(t.ConnectCalls, ConnectCall{Ctx: ctx, Cfg: cfg})
	if t.ConnectErr != nil {
		return nil, t.ConnectErr
	}
	if t.SessionFunc != nil {
		return t.SessionFunc(cfg)
	}
	if t.Session != nil {
		return t.Session, nil
	}
	return &Session{EventsCh: make(chan duplex.Event, 64)}, nil
}

// Reset clears all recorded calls. Thread-safe.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ConnectCalls = nil
}

// Ensure Transport implements duplex.Transport at compile time.
var _ duplex.Transport = (*Transport)(nil)

// SendAudioCall records a single invocation of Session.SendAudio.
type SendAudioCall struct {
	// Chunk is a copy of the audio bytes passed to SendAudio.
	Chunk []byte
}

// SendTextCall records a single invocation of Session.SendText.
type SendTextCall struct {
	// Text is the string passed to SendText.
	Text string
	// EndTurn is the flag passed to SendText.
	EndTurn bool
}

// Session is a mock implementation of duplex.SessionHandle.
// Callers should pre-populate EventsCh, then close it (or call Close) to
// signal end-of-session.
type Session struct {
	mu sync.Mutex

	// EventsCh is the channel returned by Events(). Callers own this channel
	// unless Close is used, which closes it once.
	EventsCh chan duplex.Event

	// --- Configurable errors ---

	// SendAudioErr, if non-nil, is returned by every SendAudio call.
	SendAudioErr error

	// SendTextErr, if non-nil, is returned by every SendText call.
	SendTextErr error

	// SessionErr is returned by Err after the event channel closes.
	SessionErr error

	// CloseErr, if non-nil, is returned by the first Close call.
	CloseErr error

	// --- Call records ---

	// SendAudioCalls records every call to SendAudio in order.
	SendAudioCalls []SendAudioCall

	// SendTextCalls records every call to SendText in order.
	SendTextCalls []SendTextCall

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int

	closed bool
}

// SendAudio records the call and returns SendAudioErr.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.SendAudioCalls = append(s.SendAudioCalls, SendAudioCall{Chunk: cp})
	return s.SendAudioErr
}

// SendText records the call and returns SendTextErr.
func (s *Session) SendText(text string, endTurn bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SendTextCalls = append(s.SendTextCalls, SendTextCall{Text: text, EndTurn: endTurn})
	return s.SendTextErr
}

// Events returns EventsCh.
func (s *Session) Events() <-chan duplex.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.EventsCh
}

// Err returns SessionErr.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SessionErr
}

// Close records the call, closes EventsCh once, and returns CloseErr on the
// first call only.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	if s.closed {
		return nil
	}
	s.closed = true
	if s.EventsCh != nil {
		close(s.EventsCh)
	}
	return s.CloseErr
}

// SentAudio returns a snapshot of the chunks passed to SendAudio. Thread-safe;
// use this instead of reading SendAudioCalls while the session is running.
func (s *Session) SentAudio() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.SendAudioCalls))
	for i, c := range s.SendAudioCalls {
		out[i] = c.Chunk
	}
	return out
}

// ResetCalls clears all recorded calls. Thread-safe.
func (s *Session) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SendAudioCalls = nil
	s.SendTextCalls = nil
	s.CloseCallCount = 0
}

// Ensure Session implements duplex.SessionHandle at compile time.
var _ duplex.SessionHandle = (*Session)(nil)
