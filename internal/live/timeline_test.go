package live

import (
	"testing"
	"time"

	"github.com/atlasvoice/atlas-voice-core/pkg/audio"
	audiomock "github.com/atlasvoice/atlas-voice-core/pkg/audio/mock"
)

// frame returns d worth of mono 16-bit PCM at 16 kHz.
func frame(d time.Duration) audio.AudioFrame {
	return audio.AudioFrame{
		Data:       audio.Silence(d, 16000),
		SampleRate: 16000,
		Channels:   1,
	}
}

func TestTimeline_GaplessScheduling(t *testing.T) {
	tl := NewTimeline(&audiomock.Sink{}, nil)

	f := frame(100 * time.Millisecond)
	first := tl.Schedule(f)
	second := tl.Schedule(f)

	if got, want := second.Sub(first), f.Duration(); got != want {
		t.Errorf("second start offset = %v, want exactly %v", got, want)
	}
	if got := tl.NextStart().Sub(first); got != 2*f.Duration() {
		t.Errorf("playhead offset = %v, want %v", got, 2*f.Duration())
	}
}

func TestTimeline_FramesReachSinkInOrder(t *testing.T) {
	sink := &audiomock.Sink{}
	tl := NewTimeline(sink, nil)

	a := audio.AudioFrame{Data: []byte{1, 1}, SampleRate: 16000, Channels: 1}
	b := audio.AudioFrame{Data: []byte{2, 2}, SampleRate: 16000, Channels: 1}
	tl.Schedule(a)
	tl.Schedule(b)

	deadline := time.After(time.Second)
	for len(sink.Written()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("sink received %d frames, want 2", len(sink.Written()))
		case <-time.After(time.Millisecond):
		}
	}
	frames := sink.Written()
	if frames[0].Data[0] != 1 || frames[1].Data[0] != 2 {
		t.Errorf("frames out of order: %v then %v", frames[0].Data, frames[1].Data)
	}
}

func TestTimeline_StopAllCancelsPending(t *testing.T) {
	sink := &audiomock.Sink{}
	tl := NewTimeline(sink, nil)

	// The first frame plays for 200ms, so the second is pending well into
	// the future and StopAll must cancel it.
	tl.Schedule(frame(200 * time.Millisecond))
	tl.Schedule(frame(200 * time.Millisecond))

	time.Sleep(20 * time.Millisecond) // first timer (due immediately) fires
	tl.StopAll()

	time.Sleep(250 * time.Millisecond)
	if got := len(sink.Written()); got > 1 {
		t.Errorf("sink received %d frames after StopAll, want at most 1", got)
	}
	if tl.Active() != 0 {
		t.Errorf("Active() = %d after StopAll, want 0", tl.Active())
	}
	if !tl.NextStart().IsZero() {
		t.Errorf("NextStart() = %v after StopAll, want zero time", tl.NextStart())
	}
}

func TestTimeline_ActiveIncludesPlayingTail(t *testing.T) {
	tl := NewTimeline(&audiomock.Sink{}, nil)

	if tl.Active() != 0 {
		t.Fatalf("Active() = %d before any Schedule, want 0", tl.Active())
	}

	tl.Schedule(frame(150 * time.Millisecond))
	time.Sleep(30 * time.Millisecond) // frame written, still audibly playing

	if tl.Active() == 0 {
		t.Error("Active() = 0 while the last frame is still playing")
	}

	time.Sleep(200 * time.Millisecond)
	if got := tl.Active(); got != 0 {
		t.Errorf("Active() = %d after playback finished, want 0", got)
	}
}

func TestTimeline_StopAllIdempotent(t *testing.T) {
	tl := NewTimeline(&audiomock.Sink{}, nil)
	tl.Schedule(frame(100 * time.Millisecond))
	tl.StopAll()
	tl.StopAll()
	if tl.Active() != 0 {
		t.Errorf("Active() = %d, want 0", tl.Active())
	}
}
