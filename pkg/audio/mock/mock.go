// Package mock provides test doubles for the audio device interfaces.
//
// Use Capture to feed scripted frames to the session controller and Sink to
// record everything the playback timeline writes.
package mock

import (
	"context"
	"sync"

	"github.com/atlasvoice/atlas-voice-core/pkg/audio"
)

// Capture is a mock implementation of audio.CaptureDevice. It emits the
// configured Frames on Start and closes the channel when they are exhausted,
// Stop is called, or ctx is cancelled.
type Capture struct {
	mu sync.Mutex

	// Frames is the scripted sequence delivered by the channel from Start.
	Frames []audio.AudioFrame

	// StartErr, if non-nil, is returned by Start instead of a channel.
	StartErr error

	// HoldOpen keeps the frame channel open after Frames are exhausted until
	// Stop or ctx cancellation. Set this when the test drives teardown.
	HoldOpen bool

	// StartCallCount is the number of times Start was called.
	StartCallCount int

	// StopCallCount is the number of times Stop was called.
	StopCallCount int

	// LastConfig is the CaptureConfig from the most recent Start.
	LastConfig audio.CaptureConfig

	stopCh chan struct{}
}

// Start implements audio.CaptureDevice.
func (c *Capture) Start(ctx context.Context, cfg audio.CaptureConfig) (<-chan audio.AudioFrame, error) {
	c.mu.Lock()
	c.StartCallCount++
	c.LastConfig = cfg
	if c.StartErr != nil {
		err := c.StartErr
		c.mu.Unlock()
		return nil, err
	}
	frames := make([]audio.AudioFrame, len(c.Frames))
	copy(frames, c.Frames)
	hold := c.HoldOpen
	stop := make(chan struct{})
	c.stopCh = stop
	c.mu.Unlock()

	ch := make(chan audio.AudioFrame, len(frames))
	go func() {
		defer close(ch)
		for _, f := range frames {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case ch <- f:
			}
		}
		if hold {
			select {
			case <-ctx.Done():
			case <-stop:
			}
		}
	}()
	return ch, nil
}

// Stop implements audio.CaptureDevice. Safe to call multiple times.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StopCallCount++
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	return nil
}

// Ensure Capture implements audio.CaptureDevice at compile time.
var _ audio.CaptureDevice = (*Capture)(nil)

// Sink is a mock implementation of audio.OutputSink that records every frame.
type Sink struct {
	mu sync.Mutex

	// WriteErr, if non-nil, is returned by every Write call.
	WriteErr error

	// Frames holds every frame passed to Write, in order.
	Frames []audio.AudioFrame

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int
}

// Write implements audio.OutputSink.
func (s *Sink) Write(frame audio.AudioFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	cp := frame
	cp.Data = make([]byte, len(frame.Data))
	copy(cp.Data, frame.Data)
	s.Frames = append(s.Frames, cp)
	return nil
}

// Close implements audio.OutputSink. Safe to call multiple times.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	return nil
}

// Written returns a snapshot of the recorded frames. Thread-safe.
func (s *Sink) Written() []audio.AudioFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audio.AudioFrame, len(s.Frames))
	copy(out, s.Frames)
	return out
}

// Ensure Sink implements audio.OutputSink at compile time.
var _ audio.OutputSink = (*Sink)(nil)
