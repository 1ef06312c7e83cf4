package prosody

// Archetype is a coarse role-shaping overlay applied on top of a preset
// baseline (narrator, educator, executive, ...). Archetypes are less specific
// than personas and more specific than presets.
type Archetype struct {
	// Label is the human-readable archetype name.
	Label string

	// Overlay holds the fields the archetype overrides.
	Overlay Overlay
}

// ArchetypeByName returns the archetype registered under name, or false if
// no such archetype exists. Lookup is exact; archetype keys are lowercase.
func ArchetypeByName(name string) (Archetype, bool) {
	a, ok := archetypes[name]
	return a, ok
}

// ArchetypeNames returns the keys of all registered archetypes.
func ArchetypeNames() []string {
	names := make([]string, 0, len(archetypes))
	for n := range archetypes {
		names = append(names, n)
	}
	return names
}

var archetypes = map[string]Archetype{
	"narrator": {
		Label: "Professional Narrator",
		Overlay: Overlay{
			Pitch: Float(-0.1), Rate: Float(0.92), Emphasis: Float(0.85),
			PauseMs: Float(420), Timbre: Float(0.1), Variability: Float(0.25),
		},
	},
	"educator": {
		Label: "Academic Educator",
		Overlay: Overlay{
			Pitch: Float(0.05), Rate: Float(0.88), Emphasis: Float(0.9),
			PauseMs: Float(480), Timbre: Float(0), Variability: Float(0.2),
		},
	},
	"conversational": {
		Label: "Natural Dialogue",
		Overlay: Overlay{
			Pitch: Float(0.15), Rate: Float(1.0), Emphasis: Float(0.75),
			PauseMs: Float(280), Timbre: Float(0.05), Variability: Float(0.4),
		},
	},
	"storyteller": {
		Label: "Dynamic Storyteller",
		Overlay: Overlay{
			Pitch: Float(0.1), Rate: Float(0.9), Emphasis: Float(1.1),
			PauseMs: Float(520), Timbre: Float(0.15), Variability: Float(0.6),
		},
	},
	"executive": {
		Label: "Executive Authority",
		Overlay: Overlay{
			Pitch: Float(-0.15), Rate: Float(0.85), Emphasis: Float(0.7),
			PauseMs: Float(600), Timbre: Float(-0.05), Variability: Float(0.15),
		},
	},
}
