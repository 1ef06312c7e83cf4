// Package prosody defines the speech-control data model shared by the
// synthesis pipeline and its engine providers.
//
// The central type is [Matrix] — the per-utterance bundle of numeric prosody
// controls (pitch, rate, timbre, emphasis, pauses, micro-variation) plus the
// classified emotion and discourse intent. Matrices are produced by the
// resolver, validated and clamped before use, and handed to TTS engines for
// rendering.
//
// [Preset], [Archetype] and [Overlay] are the three configuration layers that
// contribute to a resolved Matrix, in increasing order of specificity.
//
// This package lives under pkg/ because external TTS engine implementations
// accept a Matrix in their render contract.
package prosody

import (
	"fmt"
	"math"
)

// Hard bounds for every numeric Matrix field. A matrix is never sent to
// synthesis with a field outside its declared range.
const (
	MinPitch     = -1.0
	MaxPitch     = 1.0
	MinRate      = 0.5
	MaxRate      = 2.0
	MinTimbre    = -0.5
	MaxTimbre    = 0.5
	MinEmphasis  = 0.0
	MaxEmphasis  = 1.5
	MinBreath    = 0.0
	MaxBreath    = 0.4
	MinTension   = -0.5
	MaxTension   = 0.5
	MinVariance  = 0.0
	MaxVariance  = 1.0
	MinPauseMs   = 0.0
)

// Emotion is a coarse emotional colour assigned to a chunk of text.
type Emotion string

const (
	EmotionNeutral    Emotion = "neutral"
	EmotionExcited    Emotion = "excited"
	EmotionCurious    Emotion = "curious"
	EmotionEmpathetic Emotion = "empathetic"
	EmotionSerious    Emotion = "serious"
	EmotionCheerful   Emotion = "cheerful"
)

// IsValid reports whether e is a recognised emotion label.
func (e Emotion) IsValid() bool {
	switch e {
	case EmotionNeutral, EmotionExcited, EmotionCurious,
		EmotionEmpathetic, EmotionSerious, EmotionCheerful:
		return true
	}
	return false
}

// Intent is the discourse intent of a chunk of text, used for pacing.
type Intent string

const (
	IntentInstruction  Intent = "instruction"
	IntentReassurance  Intent = "reassurance"
	IntentWarning      Intent = "warning"
	IntentStorytelling Intent = "storytelling"
	IntentExplanation  Intent = "explanation"
)

// IsValid reports whether i is a recognised intent label.
func (i Intent) IsValid() bool {
	switch i {
	case IntentInstruction, IntentReassurance, IntentWarning,
		IntentStorytelling, IntentExplanation:
		return true
	}
	return false
}

// Matrix is the atomic unit of speech control: one resolved set of prosody
// parameters for one chunk of text.
type Matrix struct {
	// Pitch shifts the fundamental frequency. Range [-1, 1], 0 = default.
	Pitch float64

	// Rate scales the speaking speed. Range [0.5, 2.0], 1.0 = default.
	Rate float64

	// Timbre shifts tonal resonance quality. Range [-0.5, 0.5].
	Timbre float64

	// Emphasis is the intensity of stressed syllables. Range [0, 1.5].
	Emphasis float64

	// Breathiness adds audible breath to the voice. Range [0, 0.4].
	Breathiness float64

	// VocalTension tightens or relaxes the voice. Range [-0.5, 0.5].
	VocalTension float64

	// PauseMs is the pause inserted after the chunk, in milliseconds. >= 0.
	PauseMs float64

	// ProsodyVariance is the allowed drift of pitch/rate within the chunk.
	// Range [0, 1].
	ProsodyVariance float64

	// Variability is the macro-level expressive variation. Range [0, 1].
	Variability float64

	// Emotion is the classified emotional colour for this chunk.
	Emotion Emotion

	// Intent is the classified discourse intent for this chunk.
	Intent Intent
}

// SafeNeutral returns the fixed minimal-risk matrix used whenever resolution
// cannot complete safely. It matches the safe_neutral preset baseline: no
// micro-variation, moderate pause, guaranteed to validate.
func SafeNeutral() Matrix {
	return Matrix{
		Pitch:           0,
		Rate:            1.0,
		Timbre:          0,
		Emphasis:        0.1,
		Breathiness:     0,
		VocalTension:    0,
		PauseMs:         200,
		ProsodyVariance: 0,
		Variability:     0,
		Emotion:         EmotionNeutral,
		Intent:          IntentExplanation,
	}
}

// clampFloat bounds v to [min, max]. NaN collapses to min so that a malformed
// override can never leak past validation.
func clampFloat(v, min, max float64) float64 {
	if math.IsNaN(v) {
		return min
	}
	return math.Min(max, math.Max(min, v))
}

// Clamp returns a copy of m with every numeric field forced into its hard
// bounds and unknown labels replaced by their defaults.
func (m Matrix) Clamp() Matrix {
	m.Pitch = clampFloat(m.Pitch, MinPitch, MaxPitch)
	m.Rate = clampFloat(m.Rate, MinRate, MaxRate)
	m.Timbre = clampFloat(m.Timbre, MinTimbre, MaxTimbre)
	m.Emphasis = clampFloat(m.Emphasis, MinEmphasis, MaxEmphasis)
	m.Breathiness = clampFloat(m.Breathiness, MinBreath, MaxBreath)
	m.VocalTension = clampFloat(m.VocalTension, MinTension, MaxTension)
	m.PauseMs = math.Max(MinPauseMs, m.PauseMs)
	if math.IsNaN(m.PauseMs) || math.IsInf(m.PauseMs, 0) {
		m.PauseMs = 0
	}
	m.ProsodyVariance = clampFloat(m.ProsodyVariance, MinVariance, MaxVariance)
	m.Variability = clampFloat(m.Variability, MinVariance, MaxVariance)
	if !m.Emotion.IsValid() {
		m.Emotion = EmotionNeutral
	}
	if !m.Intent.IsValid() {
		m.Intent = IntentExplanation
	}
	return m
}

// Validate returns an error describing the first field of m that lies outside
// its hard bounds, or nil if the matrix is safe to synthesise.
func (m Matrix) Validate() error {
	checks := []struct {
		name     string
		v        float64
		min, max float64
	}{
		{"pitch", m.Pitch, MinPitch, MaxPitch},
		{"rate", m.Rate, MinRate, MaxRate},
		{"timbre", m.Timbre, MinTimbre, MaxTimbre},
		{"emphasis", m.Emphasis, MinEmphasis, MaxEmphasis},
		{"breathiness", m.Breathiness, MinBreath, MaxBreath},
		{"vocalTension", m.VocalTension, MinTension, MaxTension},
		{"prosodyVariance", m.ProsodyVariance, MinVariance, MaxVariance},
		{"variability", m.Variability, MinVariance, MaxVariance},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || c.v < c.min || c.v > c.max {
			return fmt.Errorf("prosody: %s %v out of range [%v, %v]", c.name, c.v, c.min, c.max)
		}
	}
	if math.IsNaN(m.PauseMs) || m.PauseMs < MinPauseMs {
		return fmt.Errorf("prosody: pauseMs %v out of range", m.PauseMs)
	}
	return nil
}

// Overlay is a partial matrix: only non-nil numeric fields and non-empty
// labels override the accumulator during the layered merge. Overlays are the
// unit of archetypes, personas, user overrides and memory overrides.
type Overlay struct {
	Pitch           *float64 `yaml:"pitch"`
	Rate            *float64 `yaml:"rate"`
	Timbre          *float64 `yaml:"timbre"`
	Emphasis        *float64 `yaml:"emphasis"`
	Breathiness     *float64 `yaml:"breathiness"`
	VocalTension    *float64 `yaml:"vocal_tension"`
	PauseMs         *float64 `yaml:"pause_ms"`
	ProsodyVariance *float64 `yaml:"prosody_variance"`
	Variability     *float64 `yaml:"variability"`
	Emotion         Emotion  `yaml:"emotion"`
	Intent          Intent   `yaml:"intent"`
}

// IsZero reports whether the overlay sets no fields at all.
func (o Overlay) IsZero() bool {
	return o.Pitch == nil && o.Rate == nil && o.Timbre == nil &&
		o.Emphasis == nil && o.Breathiness == nil && o.VocalTension == nil &&
		o.PauseMs == nil && o.ProsodyVariance == nil && o.Variability == nil &&
		o.Emotion == "" && o.Intent == ""
}

// Apply returns m with every set field of o overriding the corresponding
// field, field-by-field rather than wholesale.
func (o Overlay) Apply(m Matrix) Matrix {
	if o.Pitch != nil {
		m.Pitch = *o.Pitch
	}
	if o.Rate != nil {
		m.Rate = *o.Rate
	}
	if o.Timbre != nil {
		m.Timbre = *o.Timbre
	}
	if o.Emphasis != nil {
		m.Emphasis = *o.Emphasis
	}
	if o.Breathiness != nil {
		m.Breathiness = *o.Breathiness
	}
	if o.VocalTension != nil {
		m.VocalTension = *o.VocalTension
	}
	if o.PauseMs != nil {
		m.PauseMs = *o.PauseMs
	}
	if o.ProsodyVariance != nil {
		m.ProsodyVariance = *o.ProsodyVariance
	}
	if o.Variability != nil {
		m.Variability = *o.Variability
	}
	if o.Emotion != "" {
		m.Emotion = o.Emotion
	}
	if o.Intent != "" {
		m.Intent = o.Intent
	}
	return m
}

// Float returns a pointer to v. Convenience for building Overlay literals.
func Float(v float64) *float64 {
	return &v
}
