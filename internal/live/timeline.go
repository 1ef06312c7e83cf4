package live

import (
	"context"
	"sync"
	"time"

	"github.com/atlasvoice/atlas-voice-core/internal/observe"
	"github.com/atlasvoice/atlas-voice-core/pkg/audio"
)

// Timeline schedules response audio for gapless playback. Each scheduled
// frame starts at max(now, end of the previously scheduled frame), so bursts
// of model audio queue back to back without overlap and without gaps.
//
// Timeline is safe for concurrent use.
type Timeline struct {
	sink    audio.OutputSink
	metrics *observe.Metrics

	mu     sync.Mutex
	next   time.Time
	timers map[int]*time.Timer
	seq    int
}

// NewTimeline creates a Timeline writing to sink. metrics may be nil, in
// which case [observe.DefaultMetrics] is used.
func NewTimeline(sink audio.OutputSink, metrics *observe.Metrics) *Timeline {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Timeline{
		sink:    sink,
		metrics: metrics,
		timers:  make(map[int]*time.Timer),
	}
}

// Schedule queues one frame for playback at the next gapless slot and
// returns that slot's start time. The write to the sink happens on a timer
// goroutine; a frame cancelled by [Timeline.StopAll] before its start time
// never reaches the sink.
func (t *Timeline) Schedule(frame audio.AudioFrame) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	start := now
	if t.next.After(now) {
		start = t.next
	}
	t.next = start.Add(frame.Duration())

	id := t.seq
	t.seq++
	t.metrics.ScheduledSources.Add(context.Background(), 1)

	t.timers[id] = time.AfterFunc(time.Until(start), func() {
		t.mu.Lock()
		_, live := t.timers[id]
		delete(t.timers, id)
		t.mu.Unlock()
		if !live {
			return
		}
		t.metrics.ScheduledSources.Add(context.Background(), -1)
		_ = t.sink.Write(frame)
	})
	return start
}

// Active returns the number of frames scheduled but not yet written, plus a
// tail allowance for the frame currently playing: Active is non-zero from the
// first Schedule until the last scheduled frame has finished playing.
func (t *Timeline) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.timers)
	if n == 0 && t.next.After(time.Now()) {
		// Everything is written to the sink but the last frame is still
		// audibly playing.
		return 1
	}
	return n
}

// NextStart returns when the next scheduled frame would begin. Before any
// Schedule (or after StopAll) it returns the zero time.
func (t *Timeline) NextStart() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// StopAll cancels every pending frame and resets the playhead. Frames whose
// timers already fired are unaffected. Idempotent.
func (t *Timeline) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
		t.metrics.ScheduledSources.Add(context.Background(), -1)
	}
	t.next = time.Time{}
}
