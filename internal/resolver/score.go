package resolver

import (
	"math"
	"strings"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

const (
	// correctionThreshold is the score below which one corrective
	// re-resolution round is attempted.
	correctionThreshold = 65

	// weakMetricThreshold marks an individual sub-score as the weak metric
	// driving a correction.
	weakMetricThreshold = 65

	// idealVarianceBand is the combined variance divisor: real human speech
	// sits around 0.5–0.7 combined variance for standard conversation.
	idealVarianceBand = 0.8

	// idealEmphasis and theatricalEmphasis bound the emphasis sub-score.
	idealEmphasis      = 0.9
	theatricalEmphasis = 1.2
)

// ScoreMetrics are the four independent naturalness sub-scores, each in
// [0, 100].
type ScoreMetrics struct {
	PitchVariance    float64
	PauseNaturalness float64
	MonotonyPenalty  float64
	EmphasisBalance  float64
}

// Report is the humanization verdict for one resolved matrix. It is created
// fresh per chunk for observability and never persisted by the core.
type Report struct {
	// Score is the weighted naturalness score in [0, 100].
	Score int

	// Metrics holds the individual sub-scores.
	Metrics ScoreMetrics

	// CorrectionsApplied names the corrective deltas applied by the bounded
	// correction pass, empty when none were needed or they did not help.
	CorrectionsApplied []string
}

// Score evaluates the human-likeness of matrix m applied to text.
// Deterministic for identical input; the result is always in [0, 100].
// Weighting: 30/30/20/20 across pitch variance, pause naturalness, inverted
// monotony, and emphasis balance.
func Score(text string, m prosody.Matrix) Report {
	metrics := ScoreMetrics{
		PitchVariance:    evalPitchVariance(m),
		PauseNaturalness: evalPauseNaturalness(text, m),
		MonotonyPenalty:  evalMonotony(m),
		EmphasisBalance:  evalEmphasis(m),
	}

	raw := metrics.PitchVariance*0.3 +
		metrics.PauseNaturalness*0.3 +
		(100-metrics.MonotonyPenalty)*0.2 +
		metrics.EmphasisBalance*0.2

	return Report{
		Score:   int(math.Round(math.Min(100, math.Max(0, raw)))),
		Metrics: metrics,
	}
}

func evalPitchVariance(m prosody.Matrix) float64 {
	variance := m.ProsodyVariance + m.Variability
	return math.Min(100, variance/idealVarianceBand*100)
}

// expectedPauseMs derives the pause a chunk of this length should carry:
// longer text needs more significant breathing room.
func expectedPauseMs(text string) float64 {
	if len(strings.Fields(text)) > 15 {
		return 400
	}
	return 200
}

func evalPauseNaturalness(text string, m prosody.Matrix) float64 {
	ratio := m.PauseMs / expectedPauseMs(text)
	score := (1 - math.Abs(1-ratio)) * 100
	return math.Min(100, math.Max(0, score))
}

func evalMonotony(m prosody.Matrix) float64 {
	switch {
	case m.ProsodyVariance < 0.1:
		return 80
	case m.ProsodyVariance < 0.2:
		return 40
	default:
		return 10
	}
}

func evalEmphasis(m prosody.Matrix) float64 {
	if m.Emphasis > theatricalEmphasis {
		return 60
	}
	return math.Min(100, m.Emphasis/idealEmphasis*100)
}

// correct applies at most one bounded correction round to m when its report
// falls below the correction threshold. The corrected matrix is re-clamped to
// the preset's safety constraints and rescored once; if the rescore does not
// improve on the original, the correction is discarded entirely. The returned
// report's CorrectionsApplied lists what was kept.
func correct(text string, m prosody.Matrix, rep Report, preset prosody.Preset) (prosody.Matrix, Report) {
	if rep.Score >= correctionThreshold {
		return m, rep
	}

	corrected := m
	var applied []string

	if rep.Metrics.PitchVariance < weakMetricThreshold {
		corrected.ProsodyVariance += 0.2
		corrected.Variability += 0.15
		applied = append(applied, "raise_variance")
	}
	if rep.Metrics.PauseNaturalness < weakMetricThreshold {
		// Widen only: a pause already longer than the expectation is a
		// deliberate style choice, not a naturalness defect.
		if want := expectedPauseMs(text); want > corrected.PauseMs {
			corrected.PauseMs = want
			applied = append(applied, "extend_pause")
		}
	}
	if corrected.Rate > 1.0 {
		corrected.Rate *= 0.97
		applied = append(applied, "soften_rate")
	}
	if len(applied) == 0 {
		return m, rep
	}

	// Corrections are advisory: they never violate the safety clamps.
	corrected = preset.ClampToSafety(corrected).Clamp()

	newRep := Score(text, corrected)
	if newRep.Score < rep.Score {
		return m, rep
	}
	newRep.CorrectionsApplied = applied
	return corrected, newRep
}
