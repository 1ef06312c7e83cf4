// Package resolver implements the prosody resolution pipeline: lightweight
// text classifiers, the layered matrix merge, and the humanization scorer
// with its bounded correction pass.
//
// The classifiers are intentionally cheap ordered-regex heuristics, not ML
// models — their precision ceiling is a known limitation. Tie-break order is
// policy, encoded as the order of the cue tables below; changing priority is
// a data edit, not a code change.
package resolver

import (
	"regexp"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

// emotionCue pairs a compiled cue with the emotion it selects. Cues are
// evaluated in order; the first match wins. Most specific cues
// (punctuation-based) come first.
type emotionCue struct {
	re      *regexp.Regexp
	emotion prosody.Emotion
}

var emotionCues = []emotionCue{
	{regexp.MustCompile(`!{2,}`), prosody.EmotionExcited},
	{regexp.MustCompile(`(?i)\b(excited|amazing|wow|incredible|awesome|fantastic)\b`), prosody.EmotionExcited},
	{regexp.MustCompile(`(?i)\b(warning|important|caution|critical|serious|danger)\b`), prosody.EmotionSerious},
	{regexp.MustCompile(`(?i)\b(sorry|understand how|difficult|tough time|here for you|it must be)\b`), prosody.EmotionEmpathetic},
	{regexp.MustCompile(`\?`), prosody.EmotionCurious},
	{regexp.MustCompile(`(?i)\b(wonder|curious|what if|ask|question)\b`), prosody.EmotionCurious},
	{regexp.MustCompile(`(?i)\b(great|wonderful|happy|glad|delighted|nice)\b`), prosody.EmotionCheerful},
}

// ClassifyEmotion tags text with the first matching emotion cue, or returns
// base when nothing matches. Pure function: no state, no I/O.
func ClassifyEmotion(text string, base prosody.Emotion) prosody.Emotion {
	for _, c := range emotionCues {
		if c.re.MatchString(text) {
			return c.emotion
		}
	}
	if base.IsValid() {
		return base
	}
	return prosody.EmotionNeutral
}

type intentCue struct {
	re     *regexp.Regexp
	intent prosody.Intent
}

var intentCues = []intentCue{
	{regexp.MustCompile(`(?i)\b(warning|caution|critical|danger|must not|never)\b`), prosody.IntentWarning},
	{regexp.MustCompile(`(?i)\b(step|instruction|how to|firstly|secondly|finally|guide|procedure)\b`), prosody.IntentInstruction},
	{regexp.MustCompile(`(?i)\b(don'?t worry|rest assured|it'?s okay|no need to|you'?re safe|everything will)\b`), prosody.IntentReassurance},
	{regexp.MustCompile(`(?i)\b(story|imagine|once upon|long ago|chapter|narrative)\b`), prosody.IntentStorytelling},
}

// ClassifyIntent tags text with the first matching discourse intent, defaulting
// to explanation. Pure function: no state, no I/O.
func ClassifyIntent(text string) prosody.Intent {
	for _, c := range intentCues {
		if c.re.MatchString(text) {
			return c.intent
		}
	}
	return prosody.IntentExplanation
}

type personaCue struct {
	re      *regexp.Regexp
	persona string
}

// personaCues classify an entire document into a suggested persona name.
// Order preserved from the tuned production table.
var personaCues = []personaCue{
	{regexp.MustCompile(`(?i)step|guide|tutorial|how to|procedure|instruction`), "Instructor"},
	{regexp.MustCompile(`(?i)story|novel|narrative|fiction|once upon|imagine`), "Storyteller"},
	{regexp.MustCompile(`(?i)warning|important|policy|legal|compliance|critical|caution`), "Serious"},
	{regexp.MustCompile(`(?i)research|study|analysis|paper|data|statistics|technical`), "Analyst"},
	{regexp.MustCompile(`(?i)question|faq|help|support|\?`), "Friendly"},
}

// ClassifyDocumentPersona suggests a persona name for an entire document, or
// "" when no cue matches. Runs over the document being spoken, not the chunk.
func ClassifyDocumentPersona(doc string) string {
	for _, c := range personaCues {
		if c.re.MatchString(doc) {
			return c.persona
		}
	}
	return ""
}
