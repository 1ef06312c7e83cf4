package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atlasvoice/atlas-voice-core/internal/chunker"
	"github.com/atlasvoice/atlas-voice-core/internal/observe"
	"github.com/atlasvoice/atlas-voice-core/internal/resolver"
	"github.com/atlasvoice/atlas-voice-core/pkg/audio"
	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

// defaultSampleRate is the PCM rate assumed for frames written to the sink.
const defaultSampleRate = 24000

// defaultChunkGap paces consecutive chunks when the resolved matrix carries
// no pause of its own: back-to-back chunks with zero gap sound robotic.
const defaultChunkGap = 100 * time.Millisecond

// Callbacks notifies the caller about chunk lifecycle and engine changes.
// Nil fields are skipped. Callbacks are invoked from the synthesis goroutine
// and must return quickly.
type Callbacks struct {
	// OnChunkUpdate fires on every chunk status change with a snapshot of the
	// chunk.
	OnChunkUpdate func(AudioChunk)

	// OnEngineSwitch fires when a chunk renders on a different engine than
	// the previous chunk.
	OnEngineSwitch func(from, to string)
}

// PipelineOption is a functional option for configuring a [Pipeline].
type PipelineOption func(*Pipeline)

// WithMaxChunkLen overrides the chunker's maximum chunk length.
func WithMaxChunkLen(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxChunkLen = n
		}
	}
}

// WithSampleRate sets the PCM sample rate stamped on frames written to the
// sink. Defaults to 24 kHz.
func WithSampleRate(rate int) PipelineOption {
	return func(p *Pipeline) {
		if rate > 0 {
			p.sampleRate = rate
		}
	}
}

// WithPipelineMetrics supplies the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithPipelineMetrics(m *observe.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline drives one utterance end to end: chunk, resolve, render, play,
// pace. Chunks are processed strictly in order; a failed chunk is marked and
// skipped, never aborting the rest of the utterance.
//
// Pipeline is stateless between SpeakText calls and safe for concurrent use,
// though concurrent utterances sharing one sink will interleave audio.
type Pipeline struct {
	resolver    *resolver.Resolver
	dispatcher  *Dispatcher
	metrics     *observe.Metrics
	maxChunkLen int
	sampleRate  int
}

// NewPipeline creates a Pipeline over the given resolver and dispatcher.
func NewPipeline(res *resolver.Resolver, disp *Dispatcher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		resolver:    res,
		dispatcher:  disp,
		maxChunkLen: chunker.DefaultMaxLen,
		sampleRate:  defaultSampleRate,
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// SpeakText synthesises and plays text as a sequence of prosody-consistent
// chunks. Every chunk gets its own resolved matrix; rendered PCM is written
// to sink in order with pause-driven gaps between chunks and a breath pause
// when the preset's breath model calls for one.
//
// Cancellation is honoured at chunk boundaries: the in-flight chunk finishes
// (or fails) before the loop exits.
//
// The returned slice holds every chunk with its final status. The error is
// non-nil only when the context was cancelled or no chunk completed at all.
func (p *Pipeline) SpeakText(ctx context.Context, text string, profile prosody.VoiceProfile, mem *prosody.Memory, sink audio.OutputSink, cb Callbacks) ([]AudioChunk, error) {
	segments := chunker.Chunk(text, p.maxChunkLen)
	if len(segments) == 0 {
		return nil, nil
	}

	preset, _ := prosody.PresetByID(profile.MasterPresetID)
	base := resolver.ClassifyEmotion(text, prosody.EmotionNeutral)

	chunks := make([]AudioChunk, len(segments))
	var (
		prevEngine string
		completed  int
		lastErr    error
		wordsSince int
	)

	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			return chunks, err
		}

		resolveStart := time.Now()
		m, rep := p.resolver.Resolve(text, segment, profile, mem, base)
		p.metrics.ResolveDuration.Record(ctx, time.Since(resolveStart).Seconds())
		p.metrics.HumanizationScore.Record(ctx, float64(rep.Score))

		chunks[i] = AudioChunk{
			Index:  i,
			Text:   segment,
			Matrix: m,
			Status: StatusPending,
			Report: rep,
		}
		notify(cb, chunks[i])

		pcm, engine, err := p.dispatcher.Render(ctx, segment, m)
		if err != nil {
			chunks[i].Status = StatusError
			chunks[i].Err = err
			lastErr = err
			p.metrics.RecordChunk(ctx, engine, string(StatusError))
			notify(cb, chunks[i])
			slog.Warn("chunk render failed, continuing utterance",
				"chunk", i, "error", err)
			if ctx.Err() != nil {
				return chunks, ctx.Err()
			}
			continue
		}

		if cb.OnEngineSwitch != nil && prevEngine != "" && engine != prevEngine {
			cb.OnEngineSwitch(prevEngine, engine)
		}
		prevEngine = engine

		chunks[i].Engine = engine
		chunks[i].Status = StatusPlaying
		notify(cb, chunks[i])

		frame := audio.AudioFrame{
			Data:       pcm,
			SampleRate: p.sampleRate,
			Channels:   1,
		}
		if err := sink.Write(frame); err != nil {
			chunks[i].Status = StatusError
			chunks[i].Err = err
			lastErr = err
			p.metrics.RecordChunk(ctx, engine, string(StatusError))
			notify(cb, chunks[i])
			slog.Warn("sink write failed, continuing utterance",
				"chunk", i, "error", err)
			continue
		}

		chunks[i].Status = StatusCompleted
		completed++
		p.metrics.RecordChunk(ctx, engine, string(StatusCompleted))
		notify(cb, chunks[i])

		// Pace the gap before the next chunk: the matrix's pause plus a
		// breath when the preset's inhale cadence is due.
		if i < len(segments)-1 {
			gap := time.Duration(m.PauseMs) * time.Millisecond
			if gap <= 0 {
				gap = defaultChunkGap
			}
			wordsSince += len(strings.Fields(segment))
			if preset.Breath.InhaleEveryNWords > 0 && wordsSince >= preset.Breath.InhaleEveryNWords {
				gap += preset.Breath.InhaleLength
				wordsSince = 0
			}
			if err := sleep(ctx, gap); err != nil {
				return chunks, err
			}
		}
	}

	if completed == 0 && lastErr != nil {
		return chunks, fmt.Errorf("%w: %w", ErrNoAudio, lastErr)
	}
	return chunks, nil
}

func notify(cb Callbacks, c AudioChunk) {
	if cb.OnChunkUpdate != nil {
		cb.OnChunkUpdate(c)
	}
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ErrNoAudio is returned by SpeakText when every chunk of the utterance
// failed and nothing reached the sink.
var ErrNoAudio = errors.New("synth: utterance produced no audio")
