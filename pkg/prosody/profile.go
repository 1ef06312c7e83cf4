package prosody

import "strings"

// VoiceProfile is the caller-controlled override layer. The core only reads
// it per resolution; ownership and persistence stay with the caller.
type VoiceProfile struct {
	// MasterPresetID selects the base preset. Empty or unknown ids fall back
	// to [DefaultPresetID].
	MasterPresetID string

	// Archetype optionally names a role-shaping overlay (see [ArchetypeByName]).
	Archetype string

	// Overrides holds fields the caller set directly. They win over preset,
	// archetype, persona and intent pacing.
	Overrides Overlay

	// ManualOverride, when true, disables automatic persona re-selection for
	// subsequent chunks: the caller has pinned the voice by hand.
	ManualOverride bool
}

// Memory is the optional persisted voice memory blob. The core merges it
// read-only; how and where it is stored is the caller's concern.
type Memory struct {
	// Enabled gates the whole memory layer.
	Enabled bool

	// AutoTuneEmotion enables the per-emotion matrix deltas.
	AutoTuneEmotion bool

	// PreferredPreset overrides the profile's preset when the profile names
	// none.
	PreferredPreset string

	// Overrides are remembered field values, applied last among the numeric
	// merge layers.
	Overrides Overlay
}

// PersonaDirectory is a read-only lookup for caller-registered named
// personas. Implementations are supplied by the caller; lookups must be
// cheap and side-effect free.
type PersonaDirectory interface {
	// Lookup returns the overlay registered under name and whether it exists.
	// Name matching is implementation-defined; [StaticPersonas] matches
	// case-insensitively.
	Lookup(name string) (Overlay, bool)
}

// StaticPersonas is a fixed, case-insensitive PersonaDirectory backed by a map.
type StaticPersonas map[string]Overlay

// Lookup implements [PersonaDirectory].
func (s StaticPersonas) Lookup(name string) (Overlay, bool) {
	for k, v := range s {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return Overlay{}, false
}

// DefaultPersonas covers the names the document classifier suggests, so the
// auto-persona layer works out of the box. Callers with their own persona
// store supply a different directory.
var DefaultPersonas = StaticPersonas{
	"Instructor": {
		Rate: Float(0.88), Emphasis: Float(0.9), PauseMs: Float(480),
		Variability: Float(0.2),
	},
	"Storyteller": {
		Pitch: Float(0.1), Rate: Float(0.9), Emphasis: Float(1.1),
		PauseMs: Float(520), Variability: Float(0.6),
	},
	"Serious": {
		Pitch: Float(-0.1), Rate: Float(0.92), Emphasis: Float(0.7),
		PauseMs: Float(500), VocalTension: Float(0.2),
	},
	"Analyst": {
		Rate: Float(0.9), Emphasis: Float(0.85), PauseMs: Float(550),
		Variability: Float(0.2),
	},
	"Friendly": {
		Pitch: Float(0.15), Rate: Float(1.0), Emphasis: Float(0.75),
		PauseMs: Float(280), Variability: Float(0.4),
	},
}
