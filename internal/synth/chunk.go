// Package synth turns response text into played audio: it chunks the text,
// resolves one prosody matrix per chunk, renders each chunk through the
// engine dispatcher, and paces playback with natural gaps.
package synth

import (
	"github.com/atlasvoice/atlas-voice-core/internal/resolver"
	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

// Status is the lifecycle state of one audio chunk.
type Status string

// Chunk lifecycle states, in order. A chunk that fails rendering moves to
// StatusError; the rest of the utterance continues.
const (
	StatusPending   Status = "pending"
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// AudioChunk is the unit of synthesis bookkeeping: one text segment, the
// matrix it was rendered under, and where it is in its lifecycle.
type AudioChunk struct {
	// Index is the chunk's position within the utterance, starting at 0.
	Index int

	// Text is the chunk's text segment.
	Text string

	// Matrix is the effective prosody matrix the chunk was rendered under.
	Matrix prosody.Matrix

	// Engine names the engine that rendered the chunk. Empty until a render
	// succeeds.
	Engine string

	// Status is the chunk's current lifecycle state.
	Status Status

	// Report is the humanization report for the resolved matrix.
	Report resolver.Report

	// Err holds the render failure when Status is StatusError.
	Err error
}

// HeatmapEntry is one cell of the per-utterance emotion heatmap: which
// emotion a chunk carried and how strongly.
type HeatmapEntry struct {
	// ChunkIndex is the chunk this entry describes.
	ChunkIndex int

	// Emotion is the chunk's classified emotion.
	Emotion prosody.Emotion

	// Intensity is a 0–1 signal strength derived from the chunk's matrix.
	Intensity float64
}

// BuildHeatmap derives the emotion heatmap for an utterance from its chunks.
// Intensity prefers emphasis, falls back to absolute pitch displacement, and
// bottoms out at a fixed floor so every chunk registers.
func BuildHeatmap(chunks []AudioChunk) []HeatmapEntry {
	const floor = 0.3

	entries := make([]HeatmapEntry, 0, len(chunks))
	for _, c := range chunks {
		intensity := c.Matrix.Emphasis
		if intensity <= 0 {
			intensity = abs(c.Matrix.Pitch)
		}
		if intensity <= 0 {
			intensity = floor
		}
		if intensity > 1 {
			intensity = 1
		}
		entries = append(entries, HeatmapEntry{
			ChunkIndex: c.Index,
			Emotion:    c.Matrix.Emotion,
			Intensity:  intensity,
		})
	}
	return entries
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
