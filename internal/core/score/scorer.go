// Package score orchestrates the per-message emotion pipeline: signal
// detection, sarcasm check, LLM classification, and the final fallback.
// Score never fails; every stage that can error is recovered by falling
// through to the next one.
package score

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/empathyengine/resonance/internal/core/classify"
	"github.com/empathyengine/resonance/internal/core/model"
	"github.com/empathyengine/resonance/internal/core/signal"
	"github.com/empathyengine/resonance/internal/logger"
)

type Scorer struct {
	Adapter *classify.Adapter
	Log     *logger.Logger
}

func NewScorer(adapter *classify.Adapter, log *logger.Logger) *Scorer {
	return &Scorer{Adapter: adapter, Log: log}
}

// Score produces one normalized distribution for text. Stages short-circuit
// in order: keyword/emoji signal, sarcasm, LLM classifier, fixed fallback.
func (s *Scorer) Score(ctx context.Context, text string, history []classify.Turn) model.Distribution {
	if has, label := signal.Detect(text); has && label != signal.LabelEmphasis {
		s.log("keyword detection", "emotion", label)
		return keywordDistribution(label)
	}

	if signal.IsSarcastic(text) {
		s.log("sarcasm detected")
		return sarcasmDistribution()
	}

	if s.Adapter != nil {
		probs, err := s.Adapter.Classify(ctx, text, history)
		if err == nil {
			return probs
		}
		s.log("classifier unavailable, using fallback", "error", err.Error())
	}

	return fallbackDistribution(text)
}

// keywordDistribution builds the high-confidence shape for a detected
// emotion: 0.80 on the hit, 0.02 elsewhere, 0.01 on neutral, plus fixed
// secondary boosts, then renormalized.
func keywordDistribution(emotion string) model.Distribution {
	probs := make(model.Distribution, len(model.Emotions))
	for _, e := range model.Emotions {
		probs[e] = 0.02
	}
	probs[emotion] = 0.80
	probs[model.EmotionNeutral] = 0.01

	switch emotion {
	case model.EmotionDisgust:
		probs[model.EmotionAnger] = 0.12
	case model.EmotionAnger:
		probs[model.EmotionDisgust] = 0.08
	case model.EmotionSadness:
		probs[model.EmotionFear] = 0.05
	}

	probs.Normalize()
	return probs
}

func sarcasmDistribution() model.Distribution {
	probs := make(model.Distribution, len(model.Emotions))
	for _, e := range model.Emotions {
		probs[e] = 0.05
	}
	probs[model.EmotionAnger] = 0.5
	probs[model.EmotionDisgust] = 0.2
	probs[model.EmotionNeutral] = 0.05
	probs.Normalize()
	return probs
}

// fallbackDistribution covers classifier unavailability. Very short text
// without punctuation reads as a plain acknowledgment and gets a flat
// distribution; anything else gets the fixed "genuinely ambiguous" shape
// leaning slightly toward neutral.
func fallbackDistribution(text string) model.Distribution {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < 10 && !strings.Contains(text, "?") && !strings.Contains(text, "!") {
		probs := make(model.Distribution, len(model.Emotions))
		for _, e := range model.Emotions {
			probs[e] = 0.1
		}
		return probs
	}

	return model.Distribution{
		model.EmotionJoy:          0.10,
		model.EmotionSadness:      0.10,
		model.EmotionAnger:        0.10,
		model.EmotionFear:         0.10,
		model.EmotionSurprise:     0.10,
		model.EmotionStress:       0.08,
		model.EmotionTension:      0.08,
		model.EmotionDisgust:      0.08,
		model.EmotionAnticipation: 0.10,
		model.EmotionNeutral:      0.16,
	}
}

// Entropy returns the normalized Shannon entropy of a distribution,
// clamped to [0,1]. Max entropy for 10 labels is log2(10).
func Entropy(probs model.Distribution) float64 {
	entropy := 0.0
	for _, p := range probs {
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	maxEntropy := math.Log2(float64(len(probs)))
	if maxEntropy <= 0 {
		return 0
	}
	h := entropy / maxEntropy
	if h < 0 {
		return 0
	}
	if h > 1 {
		return 1
	}
	return h
}

// ConfidenceBucket maps entropy to a coarse confidence level: low entropy
// means a clear emotion, high entropy means ambiguity.
func ConfidenceBucket(entropy float64) model.ConfidenceLevel {
	switch {
	case entropy < 0.3:
		return model.ConfidenceHigh
	case entropy < 0.6:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func (s *Scorer) log(msg string, kv ...interface{}) {
	if s.Log != nil {
		s.Log.Debug(msg, kv...)
	}
}
