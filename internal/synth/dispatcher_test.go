package synth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/tts"
	ttsmock "github.com/atlasvoice/atlas-voice-core/pkg/provider/tts/mock"
)

var testMatrix = prosody.SafeNeutral()

func TestDispatcher_PrimaryHappyPath(t *testing.T) {
	primary := &ttsmock.Engine{EngineName: "primary", RenderResult: []byte("pcm-a")}
	fallback := &ttsmock.Engine{EngineName: "fallback", RenderResult: []byte("pcm-b")}
	d := NewDispatcher(primary, fallback)

	pcm, engine, err := d.Render(context.Background(), "Hello.", testMatrix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine != "primary" {
		t.Errorf("engine = %q, want primary", engine)
	}
	if string(pcm) != "pcm-a" {
		t.Errorf("pcm = %q, want pcm-a", pcm)
	}
	if len(fallback.RenderCalls) != 0 {
		t.Errorf("fallback rendered %d times, want 0", len(fallback.RenderCalls))
	}
}

func TestDispatcher_QuotaStickyFailover(t *testing.T) {
	primary := &ttsmock.Engine{
		EngineName: "primary",
		RenderErr:  fmt.Errorf("%w: out of quota", tts.ErrQuotaExceeded),
	}
	fallback := &ttsmock.Engine{EngineName: "fallback", RenderResult: []byte("local")}
	d := NewDispatcher(primary, fallback)

	pcm, engine, err := d.Render(context.Background(), "One.", testMatrix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine != "fallback" || string(pcm) != "local" {
		t.Fatalf("engine = %q pcm = %q, want fallback/local", engine, pcm)
	}
	if !d.QuotaExhausted("primary") {
		t.Fatal("primary should be marked quota-exhausted")
	}

	// Later chunks must not retry the exhausted primary at all.
	primary.Reset()
	if _, engine, err = d.Render(context.Background(), "Two.", testMatrix); err != nil || engine != "fallback" {
		t.Fatalf("engine = %q err = %v, want fallback/nil", engine, err)
	}
	if len(primary.RenderCalls) != 0 {
		t.Errorf("primary rendered %d times after quota exhaustion, want 0", len(primary.RenderCalls))
	}
}

func TestDispatcher_ResetQuotaReenables(t *testing.T) {
	primary := &ttsmock.Engine{
		EngineName: "primary",
		RenderErr:  fmt.Errorf("%w: out of quota", tts.ErrQuotaExceeded),
	}
	fallback := &ttsmock.Engine{EngineName: "fallback", RenderResult: []byte("local")}
	d := NewDispatcher(primary, fallback)

	if _, _, err := d.Render(context.Background(), "One.", testMatrix); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.ResetQuota()
	if d.QuotaExhausted("primary") {
		t.Fatal("quota flag should be cleared after ResetQuota")
	}

	primary.Reset()
	primary.RenderErr = nil
	primary.RenderResult = []byte("cloud")
	pcm, engine, err := d.Render(context.Background(), "Two.", testMatrix)
	if err != nil || engine != "primary" || string(pcm) != "cloud" {
		t.Fatalf("engine = %q pcm = %q err = %v, want primary/cloud/nil", engine, pcm, err)
	}
}

func TestDispatcher_FatalErrorNoFailover(t *testing.T) {
	primary := &ttsmock.Engine{
		EngineName: "primary",
		RenderErr:  fmt.Errorf("%w: bad request", tts.ErrFatal),
	}
	fallback := &ttsmock.Engine{EngineName: "fallback", RenderResult: []byte("local")}
	d := NewDispatcher(primary, fallback)

	_, _, err := d.Render(context.Background(), "One.", testMatrix)
	if !tts.IsFatal(err) {
		t.Fatalf("err = %v, want fatal", err)
	}
	if len(fallback.RenderCalls) != 0 {
		t.Errorf("fallback rendered %d times on fatal error, want 0", len(fallback.RenderCalls))
	}
}

func TestDispatcher_TransientErrorOneFallbackTry(t *testing.T) {
	primary := &ttsmock.Engine{
		EngineName: "primary",
		RenderErr:  errors.New("connection reset"),
	}
	fallback := &ttsmock.Engine{EngineName: "fallback", RenderResult: []byte("local")}
	d := NewDispatcher(primary, fallback)

	pcm, engine, err := d.Render(context.Background(), "One.", testMatrix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine != "fallback" || string(pcm) != "local" {
		t.Fatalf("engine = %q pcm = %q, want fallback/local", engine, pcm)
	}
	// Transient errors are per-chunk: the primary stays eligible.
	if d.QuotaExhausted("primary") {
		t.Error("transient failure must not mark the primary exhausted")
	}

	// Next chunk tries the primary again first.
	primary.Reset()
	primary.RenderErr = nil
	primary.RenderResult = []byte("cloud")
	if _, engine, _ := d.Render(context.Background(), "Two.", testMatrix); engine != "primary" {
		t.Errorf("engine = %q, want primary on the next chunk", engine)
	}
}

func TestDispatcher_AllEnginesFailed(t *testing.T) {
	primary := &ttsmock.Engine{EngineName: "primary", RenderErr: errors.New("down")}
	fallback := &ttsmock.Engine{EngineName: "fallback", RenderErr: errors.New("also down")}
	d := NewDispatcher(primary, fallback)

	_, _, err := d.Render(context.Background(), "One.", testMatrix)
	if !errors.Is(err, ErrAllEnginesFailed) {
		t.Fatalf("err = %v, want ErrAllEnginesFailed", err)
	}
}

func TestDispatcher_NilFallback(t *testing.T) {
	primary := &ttsmock.Engine{EngineName: "primary", RenderErr: errors.New("down")}
	d := NewDispatcher(primary, nil)

	_, _, err := d.Render(context.Background(), "One.", testMatrix)
	if !errors.Is(err, ErrAllEnginesFailed) {
		t.Fatalf("err = %v, want ErrAllEnginesFailed", err)
	}
}

func TestDispatcher_ContextCancelledMidRender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	primary := &ttsmock.Engine{
		EngineName: "primary",
		RenderFunc: func(context.Context, string, prosody.Matrix) ([]byte, error) {
			cancel()
			return nil, errors.New("interrupted")
		},
	}
	fallback := &ttsmock.Engine{EngineName: "fallback", RenderResult: []byte("local")}
	d := NewDispatcher(primary, fallback)

	_, _, err := d.Render(ctx, "One.", testMatrix)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(fallback.RenderCalls) != 0 {
		t.Error("fallback must not be tried after cancellation")
	}
}
