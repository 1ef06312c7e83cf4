// Package chunker splits response text into bounded, sentence-respecting
// segments. Each segment is synthesised as one prosody-consistent unit.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultMaxLen is the default upper bound on chunk length in bytes.
const DefaultMaxLen = 250

// Chunk splits text into an ordered sequence of non-empty segments, each at
// most maxLen bytes except when a single sentence exceeds maxLen — such a
// sentence is emitted whole, never broken mid-word. Splitting happens only at
// sentence boundaries (terminal '.', '?' or '!' followed by whitespace or end
// of input). maxLen values < 1 use [DefaultMaxLen].
//
// Chunk is deterministic and has no side effects. Joining the returned chunks
// reproduces the input text up to whitespace normalisation.
func Chunk(text string, maxLen int) []string {
	if maxLen < 1 {
		maxLen = DefaultMaxLen
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var (
		chunks  []string
		current string
	)
	for _, s := range sentences {
		switch {
		case current == "":
			current = s
		case len(current)+1+len(s) > maxLen:
			chunks = append(chunks, current)
			current = s
		default:
			current += " " + s
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitSentences cuts text at terminal punctuation followed by whitespace.
// Sentences are returned trimmed; empty sentences are dropped.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	flush := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		// Consume a run of terminal punctuation ("?!", "...").
		j := i
		for j+1 < len(runes) && isTerminal(runes[j+1]) {
			j++
		}
		if j+1 >= len(runes) || unicode.IsSpace(runes[j+1]) {
			flush(j + 1)
		}
		i = j
	}
	flush(len(runes))
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}
