package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atlasvoice/atlas-voice-core/internal/app"
	"github.com/atlasvoice/atlas-voice-core/internal/live"
	"github.com/atlasvoice/atlas-voice-core/internal/resolver"
	"github.com/atlasvoice/atlas-voice-core/internal/synth"
	"github.com/atlasvoice/atlas-voice-core/pkg/audio"
	audiomock "github.com/atlasvoice/atlas-voice-core/pkg/audio/mock"
	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
	duplexmock "github.com/atlasvoice/atlas-voice-core/pkg/provider/duplex/mock"
	ttsmock "github.com/atlasvoice/atlas-voice-core/pkg/provider/tts/mock"
)

// testOrchestrator wires an orchestrator over mocks. The capture stream is
// held open so live sessions stay up until the test tears them down.
func testOrchestrator(engine *ttsmock.Engine) (*app.Orchestrator, *audiomock.Sink) {
	res := resolver.New(resolver.WithPersonas(prosody.DefaultPersonas))
	sink := &audiomock.Sink{}
	orch := app.New(app.Config{
		Resolver: res,
		Pipeline: synth.NewPipeline(res, synth.NewDispatcher(engine, nil)),
		Live: live.Config{
			Transport: &duplexmock.Transport{},
			Capture:   &audiomock.Capture{HoldOpen: true},
			Sink:      sink,
		},
		Sink:    sink,
		Profile: prosody.VoiceProfile{MasterPresetID: "calm_professional"},
	})
	return orch, sink
}

func waitForLiveState(t *testing.T, orch *app.Orchestrator, want live.State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for orch.LiveState() != want {
		select {
		case <-deadline:
			t.Fatalf("live state = %v, want %v", orch.LiveState(), want)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSpeakText(t *testing.T) {
	engine := &ttsmock.Engine{RenderResult: []byte{1, 2, 3, 4}}
	orch, sink := testOrchestrator(engine)

	chunks, err := orch.SpeakText(context.Background(), "Hello there.", synth.Callbacks{})
	if err != nil {
		t.Fatalf("SpeakText: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Status != synth.StatusCompleted {
		t.Fatalf("chunks = %+v, want one completed chunk", chunks)
	}
	if written := sink.Written(); len(written) != 1 {
		t.Errorf("sink frames = %d, want 1", len(written))
	}
}

func TestSpeakText_BusyDuringLiveSession(t *testing.T) {
	orch, _ := testOrchestrator(&ttsmock.Engine{RenderResult: []byte{1, 2}})
	defer orch.StopAll()

	if err := orch.StartLiveSession(context.Background(), live.Callbacks{}); err != nil {
		t.Fatalf("StartLiveSession: %v", err)
	}
	waitForLiveState(t, orch, live.StateListening)

	if _, err := orch.SpeakText(context.Background(), "x", synth.Callbacks{}); !errors.Is(err, app.ErrBusy) {
		t.Fatalf("SpeakText during live session err = %v, want ErrBusy", err)
	}
}

func TestStartLiveSession_BusyWhileSpeaking(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	engine := &ttsmock.Engine{
		RenderFunc: func(context.Context, string, prosody.Matrix) ([]byte, error) {
			close(started)
			<-release
			return []byte{1, 2}, nil
		},
	}
	orch, _ := testOrchestrator(engine)

	done := make(chan error, 1)
	go func() {
		_, err := orch.SpeakText(context.Background(), "x", synth.Callbacks{})
		done <- err
	}()
	<-started

	if err := orch.StartLiveSession(context.Background(), live.Callbacks{}); !errors.Is(err, app.ErrBusy) {
		t.Fatalf("StartLiveSession while speaking err = %v, want ErrBusy", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("SpeakText: %v", err)
	}

	// The utterance finished, so a live session may start now.
	if err := orch.StartLiveSession(context.Background(), live.Callbacks{}); err != nil {
		t.Fatalf("StartLiveSession after utterance: %v", err)
	}
	orch.StopAll()
}

func TestSetVoiceConfig_AppliesToNextCall(t *testing.T) {
	var seen []prosody.Matrix
	engine := &ttsmock.Engine{
		RenderFunc: func(_ context.Context, _ string, m prosody.Matrix) ([]byte, error) {
			seen = append(seen, m)
			return []byte{1, 2}, nil
		},
	}
	orch, _ := testOrchestrator(engine)

	if _, err := orch.SpeakText(context.Background(), "x", synth.Callbacks{}); err != nil {
		t.Fatalf("SpeakText: %v", err)
	}

	pitch := 0.3
	orch.SetVoiceConfig(prosody.VoiceProfile{
		MasterPresetID: "calm_professional",
		ManualOverride: true,
		Overrides:      prosody.Overlay{Pitch: &pitch},
	}, prosody.Memory{})

	profile, _ := orch.VoiceConfig()
	if !profile.ManualOverride {
		t.Fatal("VoiceConfig did not reflect the update")
	}

	if _, err := orch.SpeakText(context.Background(), "x", synth.Callbacks{}); err != nil {
		t.Fatalf("SpeakText: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("renders = %d, want 2", len(seen))
	}
	if seen[1].Pitch != 0.3 {
		t.Errorf("second render pitch = %v, want the override 0.3", seen[1].Pitch)
	}
}

func TestLiveState_IdleWithoutSession(t *testing.T) {
	orch, _ := testOrchestrator(&ttsmock.Engine{RenderResult: []byte{1, 2}})
	if got := orch.LiveState(); got != live.StateIdle {
		t.Errorf("LiveState = %v, want idle", got)
	}
}

func TestStopAll_TearsDownLiveSessionAndAllowsRestart(t *testing.T) {
	orch, _ := testOrchestrator(&ttsmock.Engine{RenderResult: []byte{1, 2}})

	if err := orch.StartLiveSession(context.Background(), live.Callbacks{}); err != nil {
		t.Fatalf("StartLiveSession: %v", err)
	}
	waitForLiveState(t, orch, live.StateListening)

	orch.StopAll()
	if got := orch.LiveState(); got != live.StateIdle {
		t.Errorf("LiveState after StopAll = %v, want idle", got)
	}
	orch.StopAll() // idempotent

	if err := orch.StartLiveSession(context.Background(), live.Callbacks{}); err != nil {
		t.Fatalf("restart after StopAll: %v", err)
	}
	waitForLiveState(t, orch, live.StateListening)
	orch.StopAll()
}

// Sending audio output through the orchestrator's sink must use the frame
// metadata from the synthesis pipeline, not the live session.
func TestSpeakText_FrameMetadata(t *testing.T) {
	engine := &ttsmock.Engine{RenderResult: audio.Silence(50*time.Millisecond, 24000)}
	orch, sink := testOrchestrator(engine)

	if _, err := orch.SpeakText(context.Background(), "x", synth.Callbacks{}); err != nil {
		t.Fatalf("SpeakText: %v", err)
	}
	written := sink.Written()
	if len(written) != 1 {
		t.Fatalf("sink frames = %d, want 1", len(written))
	}
	if written[0].SampleRate != 24000 || written[0].Channels != 1 {
		t.Errorf("frame = rate %d / channels %d, want 24000 mono",
			written[0].SampleRate, written[0].Channels)
	}
}
