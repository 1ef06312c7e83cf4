package resolver

import (
	"testing"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

func TestClassifyEmotion(t *testing.T) {
	tests := []struct {
		name string
		text string
		base prosody.Emotion
		want prosody.Emotion
	}{
		{"double exclaim", "That worked!!", prosody.EmotionNeutral, prosody.EmotionExcited},
		{"excited keyword", "This is an amazing result.", prosody.EmotionNeutral, prosody.EmotionExcited},
		{"serious keyword", "Warning: the disk is nearly full.", prosody.EmotionNeutral, prosody.EmotionSerious},
		{"empathetic phrase", "I'm sorry you ran into this.", prosody.EmotionNeutral, prosody.EmotionEmpathetic},
		{"question mark", "Did the deploy finish?", prosody.EmotionNeutral, prosody.EmotionCurious},
		{"cheerful keyword", "Great, everything passed.", prosody.EmotionNeutral, prosody.EmotionCheerful},
		{"no cue falls back to base", "The sky is blue.", prosody.EmotionSerious, prosody.EmotionSerious},
		{"invalid base falls back to neutral", "The sky is blue.", prosody.Emotion("angry"), prosody.EmotionNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyEmotion(tt.text, tt.base); got != tt.want {
				t.Errorf("ClassifyEmotion(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyEmotion_PunctuationBeatsKeywords(t *testing.T) {
	// "!!" is more specific than the cheerful keyword and is checked first.
	if got := ClassifyEmotion("Great!!", prosody.EmotionNeutral); got != prosody.EmotionExcited {
		t.Errorf("got %q, want %q", got, prosody.EmotionExcited)
	}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		text string
		want prosody.Intent
	}{
		{"Warning: never unplug the drive.", prosody.IntentWarning},
		{"Step one: open the panel.", prosody.IntentInstruction},
		{"Don't worry, the backup is safe.", prosody.IntentReassurance},
		{"Once upon a time in a small village.", prosody.IntentStorytelling},
		{"The cache reduces latency.", prosody.IntentExplanation},
	}
	for _, tt := range tests {
		if got := ClassifyIntent(tt.text); got != tt.want {
			t.Errorf("ClassifyIntent(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestClassifyIntent_WarningWinsOverInstruction(t *testing.T) {
	// Both cues match; warning is evaluated first by policy.
	got := ClassifyIntent("Warning: follow each step exactly.")
	if got != prosody.IntentWarning {
		t.Errorf("got %q, want %q", got, prosody.IntentWarning)
	}
}

func TestClassifyDocumentPersona(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{"A step by step tutorial for installing the agent.", "Instructor"},
		{"A short story about a lighthouse keeper.", "Storyteller"},
		{"Company policy on compliance and legal review.", "Serious"},
		{"Research paper with statistics and data analysis.", "Analyst"},
		{"FAQ: how do I reset my password?", "Friendly"},
		{"Plain text with no signals at all", ""},
	}
	for _, tt := range tests {
		if got := ClassifyDocumentPersona(tt.doc); got != tt.want {
			t.Errorf("ClassifyDocumentPersona(%q) = %q, want %q", tt.doc, got, tt.want)
		}
	}
}

// Every name the classifier can suggest must have a default persona, or the
// auto-persona layer is a no-op in any deployment using the defaults.
func TestDefaultPersonasCoverClassifierNames(t *testing.T) {
	docs := []string{
		"A step by step tutorial for installing the agent.",
		"A short story about a lighthouse keeper.",
		"Company policy on compliance and legal review.",
		"Research paper with statistics and data analysis.",
		"FAQ: how do I reset my password?",
	}
	for _, doc := range docs {
		name := ClassifyDocumentPersona(doc)
		if name == "" {
			t.Fatalf("doc %q produced no persona", doc)
		}
		overlay, ok := prosody.DefaultPersonas.Lookup(name)
		if !ok {
			t.Errorf("no default persona registered for %q", name)
			continue
		}
		if overlay.IsZero() {
			t.Errorf("default persona %q sets no fields", name)
		}
	}
}
