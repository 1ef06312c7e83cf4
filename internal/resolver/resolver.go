package resolver

import (
	"log/slog"
	"time"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

// DefaultBudget is the resolution latency design target. Exceeding it logs a
// degradation warning but never aborts the speech turn.
const DefaultBudget = 300 * time.Millisecond

// Intent-shaping constants applied after the preset's pacing multipliers.
const (
	instructionPauseScale   = 1.2
	reassuranceTensionDelta = -0.1
	storytellingVarDelta    = 0.15
)

// Option is a functional option for configuring a [Resolver].
type Option func(*Resolver)

// WithBudget overrides the resolution latency budget. Useful in tests.
func WithBudget(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.budget = d
		}
	}
}

// WithPersonas supplies the read-only persona directory consulted by the
// auto-persona layer. A nil directory disables the layer.
func WithPersonas(dir prosody.PersonaDirectory) Option {
	return func(r *Resolver) {
		r.personas = dir
	}
}

// Resolver produces one effective [prosody.Matrix] per chunk by folding an
// ordered list of partial overlays onto a preset baseline. It never panics
// and never blocks indefinitely: any failure mid-merge yields the fixed
// safe-neutral matrix so audio still plays.
//
// Resolver is stateless between calls and safe for concurrent use.
type Resolver struct {
	personas prosody.PersonaDirectory
	budget   time.Duration
}

// New creates a Resolver with the given options.
func New(opts ...Option) *Resolver {
	r := &Resolver{budget: DefaultBudget}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the effective matrix for one chunk.
//
// doc is the full document being spoken (used for persona classification);
// chunk is the text unit being synthesised. base is the caller-provided
// fallback emotion when no cue matches. mem may be nil.
//
// The merge order is: preset baseline, archetype, auto-persona, intent
// pacing, emotion auto-tune, explicit profile overrides, memory overrides,
// then safety and hard clamps. A humanization report is produced for the
// result, including one bounded correction round when the score is low.
func (r *Resolver) Resolve(doc, chunk string, profile prosody.VoiceProfile, mem *prosody.Memory, base prosody.Emotion) (m prosody.Matrix, rep Report) {
	start := time.Now()

	// Any panic in the merge (malformed profile, misbehaving persona
	// directory) discards all partial work in favour of the safe-neutral
	// matrix. Degraded prosody always beats an aborted speech turn.
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("prosody resolution failed, using safe-neutral matrix", "panic", rec)
			m = prosody.SafeNeutral()
			rep = Score(chunk, m)
		}
	}()

	presetID := profile.MasterPresetID
	if presetID == "" && mem != nil && mem.Enabled {
		presetID = mem.PreferredPreset
	}
	preset, found := prosody.PresetByID(presetID)
	if !found && presetID != "" {
		slog.Warn("unknown master preset, using default",
			"preset_id", presetID, "default", prosody.DefaultPresetID)
	}

	// Layer 1: preset baseline.
	m = preset.BaselineMatrix()
	m.Emotion = ClassifyEmotion(chunk, base)
	m.Intent = ClassifyIntent(chunk)

	// Layer 2: archetype overlay.
	if profile.Archetype != "" {
		if arch, ok := prosody.ArchetypeByName(profile.Archetype); ok {
			m = arch.Overlay.Apply(m)
		} else {
			slog.Warn("unknown archetype, skipping overlay", "archetype", profile.Archetype)
		}
	}

	// Layer 3: auto-persona overlay, from the document, not the chunk.
	// Skipped entirely when the caller pinned the voice by hand.
	if !profile.ManualOverride && r.personas != nil {
		if name := ClassifyDocumentPersona(doc); name != "" {
			if overlay, ok := r.personas.Lookup(name); ok {
				m = overlay.Apply(m)
			}
		}
	}

	// Layer 4: per-intent pacing.
	m.Rate *= preset.Pacing.Scale(m.Intent)
	switch m.Intent {
	case prosody.IntentInstruction:
		m.PauseMs *= instructionPauseScale
	case prosody.IntentReassurance:
		m.VocalTension += reassuranceTensionDelta
	case prosody.IntentStorytelling:
		m.Variability += storytellingVarDelta
	}

	// Layer 5: emotion auto-tune, gated by memory.
	if mem != nil && mem.Enabled && mem.AutoTuneEmotion {
		m = autoTuneByEmotion(m)
	}

	// Layer 6: explicit caller overrides always win over 1–5.
	m = profile.Overrides.Apply(m)

	// Layer 7: remembered numeric values, last among numeric layers.
	if mem != nil && mem.Enabled {
		m = numericOnly(mem.Overrides).Apply(m)
	}

	// Layer 8: preset safety clamps, then hard bounds.
	m = preset.ClampToSafety(m).Clamp()

	rep = Score(chunk, m)
	m, rep = correct(chunk, m, rep, preset)

	if elapsed := time.Since(start); elapsed > r.budget {
		slog.Warn("prosody resolution exceeded latency budget",
			"elapsed", elapsed, "budget", r.budget)
	}
	return m, rep
}

// autoTuneByEmotion nudges the matrix toward its classified emotion. Deltas
// are small by design; the safety clamps still apply afterwards.
func autoTuneByEmotion(m prosody.Matrix) prosody.Matrix {
	switch m.Emotion {
	case prosody.EmotionExcited:
		m.Rate += 0.15
		m.Pitch += 0.15
		m.Emphasis += 0.1
	case prosody.EmotionEmpathetic:
		m.Rate -= 0.1
		m.Pitch -= 0.05
		m.Breathiness += 0.05
	case prosody.EmotionSerious:
		m.Rate -= 0.05
		m.Emphasis += 0.05
	case prosody.EmotionCurious:
		m.Pitch += 0.05
	}
	return m
}

// numericOnly strips label fields from an overlay, leaving the remembered
// numeric values.
func numericOnly(o prosody.Overlay) prosody.Overlay {
	o.Emotion = ""
	o.Intent = ""
	return o
}
