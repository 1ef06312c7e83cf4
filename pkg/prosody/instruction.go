package prosody

import (
	"fmt"
	"strings"
)

// Instruction renders m as a natural-language style directive for synthesis
// engines that are steered by text instructions rather than numeric
// parameters (e.g. live speech models). The directive is rebuilt per request
// and never stored on a chunk.
func (m Matrix) Instruction() string {
	var b strings.Builder
	b.WriteString("Speak conversationally.")

	switch {
	case m.Rate <= 0.88:
		b.WriteString(" Speak slowly and deliberately.")
	case m.Rate >= 1.12:
		b.WriteString(" Speak briskly with clear, logical pacing.")
	}

	switch {
	case m.Pitch <= -0.2:
		b.WriteString(" Use a lower, warmer register.")
	case m.Pitch >= 0.2:
		b.WriteString(" Use a brighter, lighter register.")
	}

	if m.Emphasis >= 1.0 {
		b.WriteString(" Stress key words assertively.")
	}
	if m.Breathiness >= 0.12 {
		b.WriteString(" Keep the delivery soft and breathy.")
	}
	if m.Variability >= 0.5 {
		b.WriteString(" Use dramatic pauses and expressive narration.")
	}
	if m.PauseMs >= 500 {
		b.WriteString(" Leave unhurried pauses between thoughts.")
	}

	switch m.Emotion {
	case EmotionExcited:
		b.WriteString(" Sound genuinely excited.")
	case EmotionEmpathetic:
		b.WriteString(" Sound compassionate and understanding.")
	case EmotionSerious:
		b.WriteString(" Keep a serious, measured tone.")
	case EmotionCurious:
		b.WriteString(" Sound curious, with rising inflections.")
	case EmotionCheerful:
		b.WriteString(" Keep a bright, welcoming energy.")
	}

	fmt.Fprintf(&b, " [tone=%s pacing=%.2f emphasis=%.2f]", m.Emotion, m.Rate, m.Emphasis)
	return b.String()
}
