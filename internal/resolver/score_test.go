package resolver

import (
	"testing"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

func TestScore_Deterministic(t *testing.T) {
	m := prosody.Matrix{
		Rate: 1.0, Emphasis: 0.8, PauseMs: 300,
		ProsodyVariance: 0.3, Variability: 0.3,
	}
	text := "A steady sentence for scoring."

	a := Score(text, m)
	b := Score(text, m)
	if a.Score != b.Score || a.Metrics != b.Metrics {
		t.Errorf("Score is not deterministic: %+v vs %+v", a, b)
	}
}

func TestScore_InRange(t *testing.T) {
	matrices := []prosody.Matrix{
		{},
		prosody.SafeNeutral(),
		{Rate: 2, Emphasis: 1.5, PauseMs: 5000, ProsodyVariance: 1, Variability: 1},
		{Rate: 0.5, Emphasis: 0, PauseMs: 0},
	}
	for i, m := range matrices {
		rep := Score("Some text to score for bounds.", m)
		if rep.Score < 0 || rep.Score > 100 {
			t.Errorf("matrix %d: score %d out of [0, 100]", i, rep.Score)
		}
	}
}

func TestScore_ExpressiveBeatsFlat(t *testing.T) {
	text := "Comparing a flat delivery to an expressive one."

	flat := prosody.Matrix{Rate: 1, Emphasis: 0.1, PauseMs: 50}
	expressive := prosody.Matrix{
		Rate: 1, Emphasis: 0.85, PauseMs: 200,
		ProsodyVariance: 0.4, Variability: 0.4,
	}

	if f, e := Score(text, flat), Score(text, expressive); f.Score >= e.Score {
		t.Errorf("flat score %d >= expressive score %d", f.Score, e.Score)
	}
}

func TestScore_LongTextExpectsLongerPause(t *testing.T) {
	short := "Just a few words."
	long := "This is a much longer piece of text that easily crosses the fifteen word threshold used for pause expectations in the scorer."

	m := prosody.Matrix{Rate: 1, Emphasis: 0.8, PauseMs: 400, ProsodyVariance: 0.3, Variability: 0.3}
	if s, l := Score(short, m), Score(long, m); l.Metrics.PauseNaturalness <= s.Metrics.PauseNaturalness {
		t.Errorf("long text pause sub-score %v <= short text %v for a 400ms pause",
			l.Metrics.PauseNaturalness, s.Metrics.PauseNaturalness)
	}
}

func TestScore_TheatricalEmphasisPenalised(t *testing.T) {
	m := prosody.Matrix{Emphasis: 1.4}
	rep := Score("text", m)
	if rep.Metrics.EmphasisBalance != 60 {
		t.Errorf("EmphasisBalance = %v, want 60 for theatrical emphasis", rep.Metrics.EmphasisBalance)
	}
}

func TestCorrect_LowScoreImprovedOrUnchanged(t *testing.T) {
	preset, _ := prosody.PresetByID(prosody.DefaultPresetID)
	text := "A sentence that needs correcting."

	// Flat, low-variance matrix scores below the correction threshold.
	m := prosody.Matrix{Rate: 1, Emphasis: 0.1, PauseMs: 30}
	rep := Score(text, m)
	if rep.Score >= 65 {
		t.Fatalf("fixture score %d should be below the correction threshold", rep.Score)
	}

	cm, crep := correct(text, m, rep, preset)
	if crep.Score < rep.Score {
		t.Errorf("corrected score %d worse than original %d", crep.Score, rep.Score)
	}
	if crep.Score > rep.Score && len(crep.CorrectionsApplied) == 0 {
		t.Error("improved report should name its corrections")
	}
	if err := cm.Validate(); err != nil {
		t.Errorf("corrected matrix invalid: %v", err)
	}
}

func TestCorrect_PreservesCalmBaseline(t *testing.T) {
	preset, _ := prosody.PresetByID("calm_professional")
	text := "Short text."

	// calm_professional baseline: deliberate slow rate and long pause. The
	// correction pass may raise variance but must not speed up, slow down, or
	// shorten what the preset chose on purpose.
	m := preset.BaselineMatrix()
	rep := Score(text, m)
	if rep.Score >= correctionThreshold {
		t.Fatalf("fixture score %d should be below the correction threshold", rep.Score)
	}

	cm, crep := correct(text, m, rep, preset)
	if cm.Rate != m.Rate {
		t.Errorf("Rate = %v, want the %v baseline untouched", cm.Rate, m.Rate)
	}
	if cm.PauseMs != m.PauseMs {
		t.Errorf("PauseMs = %v, want the %v baseline untouched", cm.PauseMs, m.PauseMs)
	}
	if cm.Pitch != m.Pitch {
		t.Errorf("Pitch = %v, want %v", cm.Pitch, m.Pitch)
	}
	for _, c := range crep.CorrectionsApplied {
		if c == "soften_rate" || c == "extend_pause" {
			t.Errorf("correction %q applied to a baseline that was not weak there", c)
		}
	}
}

func TestCorrect_HighScoreUntouched(t *testing.T) {
	preset, _ := prosody.PresetByID(prosody.DefaultPresetID)
	text := "Nothing wrong with this delivery at all."

	m := prosody.Matrix{Rate: 1, Emphasis: 0.85, PauseMs: 200, ProsodyVariance: 0.5, Variability: 0.4}
	rep := Score(text, m)
	if rep.Score < 65 {
		t.Fatalf("fixture score %d should be above the correction threshold", rep.Score)
	}

	cm, crep := correct(text, m, rep, preset)
	if cm != m {
		t.Errorf("matrix changed despite a passing score: %+v", cm)
	}
	if len(crep.CorrectionsApplied) != 0 {
		t.Errorf("CorrectionsApplied = %v, want empty", crep.CorrectionsApplied)
	}
}
