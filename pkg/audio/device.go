package audio

import (
	"context"
	"io"
	"sync"
)

// CaptureConfig selects the input stream format and the acoustic processing
// requested from the device stack.
type CaptureConfig struct {
	// SampleRate of the captured PCM, in Hz.
	SampleRate int

	// EchoCancellation enables acoustic echo cancellation on the stream.
	EchoCancellation bool

	// NoiseSuppression enables noise suppression on the stream.
	NoiseSuppression bool

	// AutoGain enables automatic gain control on the stream.
	AutoGain bool
}

// CaptureDevice acquires one audio input device stream.
//
// Implementations must be safe for concurrent use.
type CaptureDevice interface {
	// Start opens the device and returns a channel delivering 16-bit PCM
	// frames continuously until Stop is called or ctx is cancelled. The
	// channel is closed by the implementation on teardown.
	//
	// Start fails outright (no stream, no partial state) when the device is
	// unavailable or permission is denied.
	Start(ctx context.Context, cfg CaptureConfig) (<-chan AudioFrame, error)

	// Stop releases the device and closes the frame channel. Safe to call
	// multiple times; subsequent calls return nil.
	Stop() error
}

// OutputSink accepts synthesised PCM frames for playback.
//
// Implementations must tolerate Write being called from a single goroutine at
// a time (the playback timeline serialises writes).
type OutputSink interface {
	// Write plays or enqueues one frame. It should return promptly; deep
	// device buffering belongs to the implementation.
	Write(frame AudioFrame) error

	// Close flushes and releases the output device. Safe to call multiple
	// times.
	Close() error
}

// WriterSink is an [OutputSink] that appends raw PCM payloads to an
// io.Writer. Useful for piping synthesis output to a file or an external
// player process.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w as an OutputSink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Write implements [OutputSink].
func (s *WriterSink) Write(frame AudioFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return nil
	}
	_, err := s.w.Write(frame.Data)
	return err
}

// Close implements [OutputSink]. It closes the underlying writer if it is an
// io.Closer.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.w.(io.Closer); ok {
		s.w = nil
		return c.Close()
	}
	s.w = nil
	return nil
}
