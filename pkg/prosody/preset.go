package prosody

import "time"

// DefaultPresetID is the conservative preset selected when a profile names no
// preset, or names one that does not exist.
const DefaultPresetID = "calm_professional"

// SafeNeutralPresetID identifies the high-reliability fallback preset whose
// baseline equals [SafeNeutral].
const SafeNeutralPresetID = "safe_neutral"

// MicroBounds are the micro-variation drift ranges a preset allows at
// synthesis time. They are rendering hints, never stored per chunk.
type MicroBounds struct {
	// PitchDrift is the maximum per-phrase pitch wander.
	PitchDrift float64

	// RateVariance is the maximum per-phrase rate wander.
	RateVariance float64

	// Variability seeds Matrix.Variability for this preset.
	Variability float64

	// ProsodyVariance seeds Matrix.ProsodyVariance for this preset.
	ProsodyVariance float64
}

// BreathModel describes the simulated breathing of a preset.
type BreathModel struct {
	// InhaleEveryNWords inserts a simulated inhale after roughly this many
	// spoken words. Zero disables breath simulation.
	InhaleEveryNWords int

	// InhaleLength is the duration of the inserted inhale pause.
	InhaleLength time.Duration

	// MicroPauses enables short intra-phrase pauses.
	MicroPauses bool
}

// IntentPacing holds per-intent rate multipliers.
type IntentPacing struct {
	Instruction  float64
	Reassurance  float64
	Storytelling float64
}

// Scale returns the rate multiplier for the given intent. Intents without an
// explicit multiplier pace at 1.0.
func (p IntentPacing) Scale(i Intent) float64 {
	switch i {
	case IntentInstruction:
		return p.Instruction
	case IntentReassurance:
		return p.Reassurance
	case IntentStorytelling:
		return p.Storytelling
	default:
		return 1.0
	}
}

// SafetyClamps are per-preset caps applied after all merge layers, before the
// hard matrix bounds.
type SafetyClamps struct {
	// MaxPitch caps the absolute pitch shift.
	MaxPitch float64

	// MaxRate caps the speaking rate.
	MaxRate float64
}

// baseline holds the prosody starting values of a preset, prior to any
// overlay. Kept separate from Matrix so a preset cannot carry labels.
type baseline struct {
	Pitch        float64
	Rate         float64
	Timbre       float64
	Emphasis     float64
	Breathiness  float64
	VocalTension float64
	PauseMs      float64
}

// Preset is a named, immutable prosody bundle. Presets are defined at startup
// in [Presets] and selected by ID; they are never mutated.
type Preset struct {
	ID          string
	DisplayName string
	Description string

	base   baseline
	Micro  MicroBounds
	Breath BreathModel
	Pacing IntentPacing
	Safety SafetyClamps
}

// BaselineMatrix returns the preset's starting matrix: baseline prosody plus
// the preset's micro-variation seeds and neutral labels.
func (p Preset) BaselineMatrix() Matrix {
	return Matrix{
		Pitch:           p.base.Pitch,
		Rate:            p.base.Rate,
		Timbre:          p.base.Timbre,
		Emphasis:        p.base.Emphasis,
		Breathiness:     p.base.Breathiness,
		VocalTension:    p.base.VocalTension,
		PauseMs:         p.base.PauseMs,
		ProsodyVariance: p.Micro.ProsodyVariance,
		Variability:     p.Micro.Variability,
		Emotion:         EmotionNeutral,
		Intent:          IntentExplanation,
	}
}

// ClampToSafety returns m with the preset's safety caps applied: |pitch| is
// limited to MaxPitch and rate to MaxRate.
func (p Preset) ClampToSafety(m Matrix) Matrix {
	if m.Pitch > p.Safety.MaxPitch {
		m.Pitch = p.Safety.MaxPitch
	}
	if m.Pitch < -p.Safety.MaxPitch {
		m.Pitch = -p.Safety.MaxPitch
	}
	if m.Rate > p.Safety.MaxRate {
		m.Rate = p.Safety.MaxRate
	}
	return m
}

// PresetByID returns the preset registered under id. Unknown or empty ids
// fall back to the default preset; the second return reports whether the
// lookup hit the requested id.
func PresetByID(id string) (Preset, bool) {
	if p, ok := presets[id]; ok {
		return p, true
	}
	return presets[DefaultPresetID], false
}

// PresetIDs returns the ids of all registered presets.
func PresetIDs() []string {
	ids := make([]string, 0, len(presets))
	for id := range presets {
		ids = append(ids, id)
	}
	return ids
}

// presets is the master preset table. Values are the tuned studio defaults;
// they are read-only after package initialisation.
var presets = map[string]Preset{
	"calm_professional": {
		ID:          "calm_professional",
		DisplayName: "Calm Professional",
		Description: "Measured, deliberate, and authoritative narration.",
		base: baseline{
			Pitch: 0, Rate: 0.96, Timbre: 0.05, Emphasis: 0.8,
			Breathiness: 0.04, VocalTension: 0, PauseMs: 450,
		},
		Micro:  MicroBounds{PitchDrift: 0.015, RateVariance: 0.04, Variability: 0.2, ProsodyVariance: 0.18},
		Breath: BreathModel{InhaleEveryNWords: 25, InhaleLength: 180 * time.Millisecond, MicroPauses: true},
		Pacing: IntentPacing{Instruction: 0.92, Reassurance: 1.05, Storytelling: 1.05},
		Safety: SafetyClamps{MaxPitch: 0.7, MaxRate: 1.4},
	},
	"natural_conversational": {
		ID:          "natural_conversational",
		DisplayName: "Natural Conversational",
		Description: "Dynamic rhythm with human-like variation and expressive contouring.",
		base: baseline{
			Pitch: 0.1, Rate: 1.0, Timbre: 0.08, Emphasis: 0.7,
			Breathiness: 0.1, VocalTension: -0.05, PauseMs: 300,
		},
		Micro:  MicroBounds{PitchDrift: 0.025, RateVariance: 0.06, Variability: 0.45, ProsodyVariance: 0.5},
		Breath: BreathModel{InhaleEveryNWords: 21, InhaleLength: 140 * time.Millisecond, MicroPauses: true},
		Pacing: IntentPacing{Instruction: 0.95, Reassurance: 1.1, Storytelling: 1.2},
		Safety: SafetyClamps{MaxPitch: 0.9, MaxRate: 1.8},
	},
	"thoughtful_analyst": {
		ID:          "thoughtful_analyst",
		DisplayName: "Thoughtful Analyst",
		Description: "Analytical weight with precise clause-level pausing and steady delivery.",
		base: baseline{
			Pitch: -0.05, Rate: 0.9, Timbre: -0.05, Emphasis: 0.6,
			Breathiness: 0.01, VocalTension: 0.12, PauseMs: 550,
		},
		Micro:  MicroBounds{PitchDrift: 0.01, RateVariance: 0.02, Variability: 0.1, ProsodyVariance: 0.08},
		Breath: BreathModel{InhaleEveryNWords: 35, InhaleLength: 100 * time.Millisecond, MicroPauses: false},
		Pacing: IntentPacing{Instruction: 1.0, Reassurance: 0.95, Storytelling: 0.9},
		Safety: SafetyClamps{MaxPitch: 0.4, MaxRate: 1.2},
	},
	"warm_guide": {
		ID:          "warm_guide",
		DisplayName: "Warm Guide",
		Description: "Soft, approachable, and emotionally supportive presence.",
		base: baseline{
			Pitch: 0.12, Rate: 0.94, Timbre: 0.15, Emphasis: 0.75,
			Breathiness: 0.15, VocalTension: -0.15, PauseMs: 400,
		},
		Micro:  MicroBounds{PitchDrift: 0.02, RateVariance: 0.04, Variability: 0.35, ProsodyVariance: 0.3},
		Breath: BreathModel{InhaleEveryNWords: 14, InhaleLength: 180 * time.Millisecond, MicroPauses: true},
		Pacing: IntentPacing{Instruction: 0.9, Reassurance: 1.25, Storytelling: 1.15},
		Safety: SafetyClamps{MaxPitch: 0.8, MaxRate: 1.5},
	},
	"safe_neutral": {
		ID:          "safe_neutral",
		DisplayName: "Safe Neutral",
		Description: "High-reliability synthesis fallback. No micro-variation or complex prosody.",
		base: baseline{
			Pitch: 0, Rate: 1.0, Timbre: 0, Emphasis: 0.1,
			Breathiness: 0, VocalTension: 0, PauseMs: 200,
		},
		Micro:  MicroBounds{},
		Breath: BreathModel{InhaleEveryNWords: 0, InhaleLength: 0, MicroPauses: false},
		Pacing: IntentPacing{Instruction: 1, Reassurance: 1, Storytelling: 1},
		Safety: SafetyClamps{MaxPitch: 1, MaxRate: 2},
	},
}
