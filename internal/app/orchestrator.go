// Package app wires the synthesis pipeline and the live session controller
// behind one façade. The orchestrator owns the active voice configuration and
// enforces that chunked synthesis and a live duplex session never run at the
// same time.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/atlasvoice/atlas-voice-core/internal/live"
	"github.com/atlasvoice/atlas-voice-core/internal/resolver"
	"github.com/atlasvoice/atlas-voice-core/internal/synth"
	"github.com/atlasvoice/atlas-voice-core/pkg/audio"
	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

// ErrBusy is returned when a speak or live-session request arrives while the
// other mode is active.
var ErrBusy = errors.New("app: another voice mode is active")

// Config assembles the orchestrator's collaborators.
type Config struct {
	// Resolver produces prosody matrices. Also used to derive the live
	// session's style instructions from the current voice profile.
	Resolver *resolver.Resolver

	// Pipeline drives chunked synthesis.
	Pipeline *synth.Pipeline

	// Live is the live session configuration. Session.Instructions is
	// overwritten per session from the current voice profile.
	Live live.Config

	// Sink receives synthesised audio from SpeakText.
	Sink audio.OutputSink

	// Profile is the initial voice profile.
	Profile prosody.VoiceProfile

	// Memory is the initial remembered voice preferences.
	Memory prosody.Memory
}

// Orchestrator is the single entry point for making the system speak: either
// one chunked utterance at a time (SpeakText) or one live duplex conversation
// (StartLiveSession). It is safe for concurrent use.
type Orchestrator struct {
	resolver *resolver.Resolver
	pipeline *synth.Pipeline
	sink     audio.OutputSink
	liveCfg  live.Config

	mu         sync.Mutex
	profile    prosody.VoiceProfile
	memory     prosody.Memory
	controller *live.Controller
	speakStop  context.CancelFunc
	speaking   bool
}

// New creates an Orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		resolver: cfg.Resolver,
		pipeline: cfg.Pipeline,
		sink:     cfg.Sink,
		liveCfg:  cfg.Live,
		profile:  cfg.Profile,
		memory:   cfg.Memory,
	}
}

// SetVoiceConfig replaces the active voice profile and memory. The change
// applies to the next utterance or session; in-flight work keeps the
// configuration it started with.
func (o *Orchestrator) SetVoiceConfig(profile prosody.VoiceProfile, mem prosody.Memory) {
	o.mu.Lock()
	o.profile = profile
	o.memory = mem
	o.mu.Unlock()
	slog.Info("voice configuration updated",
		"preset", profile.MasterPresetID,
		"archetype", profile.Archetype,
		"manual_override", profile.ManualOverride)
}

// VoiceConfig returns the active voice profile and memory.
func (o *Orchestrator) VoiceConfig() (prosody.VoiceProfile, prosody.Memory) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.profile, o.memory
}

// SpeakText synthesises text as paced, prosody-resolved chunks and plays it
// through the configured sink. Blocks until the utterance finishes, fails, or
// is stopped. Returns ErrBusy while a live session is active.
func (o *Orchestrator) SpeakText(ctx context.Context, text string, cb synth.Callbacks) ([]synth.AudioChunk, error) {
	o.mu.Lock()
	if o.controller != nil || o.speaking {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	speakCtx, cancel := context.WithCancel(ctx)
	o.speakStop = cancel
	o.speaking = true
	profile, mem := o.profile, o.memory
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.speaking = false
		o.speakStop = nil
		o.mu.Unlock()
	}()

	return o.pipeline.SpeakText(speakCtx, text, profile, &mem, o.sink, cb)
}

// StartLiveSession opens the full-duplex conversation session. The current
// voice profile is rendered into the model's style instructions. Returns
// ErrBusy while an utterance is playing or a session is already up.
func (o *Orchestrator) StartLiveSession(ctx context.Context, cb live.Callbacks) error {
	o.mu.Lock()
	if o.controller != nil || o.speaking {
		o.mu.Unlock()
		return ErrBusy
	}
	profile, mem := o.profile, o.memory

	cfg := o.liveCfg
	m, _ := o.resolver.Resolve("", "", profile, &mem, prosody.EmotionNeutral)
	cfg.Session.Instructions = m.Instruction()

	ctrl := live.NewController(cfg)
	o.controller = ctrl
	o.mu.Unlock()

	if err := ctrl.Start(ctx, cb); err != nil {
		o.mu.Lock()
		o.controller = nil
		o.mu.Unlock()
		return err
	}
	return nil
}

// LiveState reports the live session's current state, or live.StateIdle when
// no session exists.
func (o *Orchestrator) LiveState() live.State {
	o.mu.Lock()
	ctrl := o.controller
	o.mu.Unlock()
	if ctrl == nil {
		return live.StateIdle
	}
	return ctrl.State()
}

// StopAll halts everything: the in-flight utterance is cancelled at its next
// chunk boundary and the live session is torn down completely. Idempotent and
// safe from any state; afterwards the orchestrator is idle with no scheduled
// audio.
func (o *Orchestrator) StopAll() {
	o.mu.Lock()
	cancel := o.speakStop
	ctrl := o.controller
	o.controller = nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ctrl != nil {
		ctrl.StopAll()
	}
}
