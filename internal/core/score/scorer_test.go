package score

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empathyengine/resonance/internal/core/classify"
	"github.com/empathyengine/resonance/internal/core/model"
	"github.com/empathyengine/resonance/internal/logger"
)

func newTestScorer(mock *classify.MockLLMClient) *Scorer {
	var adapter *classify.Adapter
	if mock != nil {
		adapter = classify.NewAdapter(mock)
	}
	return NewScorer(adapter, logger.NewNop())
}

func TestScore_AlwaysSumsToOne(t *testing.T) {
	// Every pipeline stage must emit a normalized distribution over the
	// full label set, with or without a classifier available.
	texts := []string{
		"I'm FURIOUS about this!",
		"Yeah great job... not.",
		"😢 lost my wallet today",
		"Ok.",
		"The meeting is at 3pm",
		"this is unbelievable!!!",
		"",
	}

	scorer := newTestScorer(nil) // classifier unavailable
	for _, text := range texts {
		probs := scorer.Score(context.Background(), text, nil)
		assert.Len(t, probs, len(model.Emotions), text)
		assert.InDelta(t, 1.0, sum(probs), 0.01, text)
	}
}

func TestScore_KeywordDominance(t *testing.T) {
	// A keyword hit must dominate regardless of classifier availability.
	scorer := newTestScorer(&classify.MockLLMClient{Err: fmt.Errorf("down")})

	probs := scorer.Score(context.Background(), "I'm FURIOUS about this!", nil)
	assert.Equal(t, model.EmotionAnger, probs.Dominant())
	assert.GreaterOrEqual(t, probs[model.EmotionAnger], 0.5)
	assert.Less(t, probs[model.EmotionNeutral], 0.05)

	entropy := Entropy(probs)
	assert.NotEqual(t, model.ConfidenceLow, ConfidenceBucket(entropy))
}

func TestScore_SecondaryBoosts(t *testing.T) {
	scorer := newTestScorer(nil)

	// disgust keyword boosts anger above the 0.02 floor.
	probs := scorer.Score(context.Background(), "that was gross", nil)
	assert.Equal(t, model.EmotionDisgust, probs.Dominant())
	assert.Greater(t, probs[model.EmotionAnger], probs[model.EmotionSadness])

	probs = scorer.Score(context.Background(), "I'm so sad", nil)
	assert.Equal(t, model.EmotionSadness, probs.Dominant())
	assert.Greater(t, probs[model.EmotionFear], probs[model.EmotionJoy])
}

func TestScore_SarcasmPath(t *testing.T) {
	scorer := newTestScorer(nil)

	probs := scorer.Score(context.Background(), "Yeah great job... not.", nil)
	assert.Equal(t, model.EmotionAnger, probs.Dominant())
	assert.Greater(t, probs[model.EmotionAnger], probs[model.EmotionDisgust])
	assert.Greater(t, probs[model.EmotionDisgust], probs[model.EmotionJoy])
	assert.InDelta(t, 1.0, sum(probs), 0.01)
}

func TestScore_ClassifierPath(t *testing.T) {
	mock := &classify.MockLLMClient{
		Response: "anticipation: 0.7, joy: 0.2, neutral: 0.1",
	}
	scorer := newTestScorer(mock)

	probs := scorer.Score(context.Background(), "the trip starts tomorrow", nil)
	assert.Equal(t, model.EmotionAnticipation, probs.Dominant())
	require.Len(t, mock.Prompts, 1)
}

func TestScore_FallbackShortAcknowledgment(t *testing.T) {
	scorer := newTestScorer(&classify.MockLLMClient{Err: fmt.Errorf("unavailable")})

	probs := scorer.Score(context.Background(), "Ok.", nil)
	for _, e := range model.Emotions {
		assert.InDelta(t, 0.1, probs[e], 1e-9, e)
	}
}

func TestScore_FallbackAmbiguous(t *testing.T) {
	scorer := newTestScorer(&classify.MockLLMClient{Err: fmt.Errorf("unavailable")})

	// Long enough to miss the short-acknowledgment branch, no signals.
	probs := scorer.Score(context.Background(), "the report covers the third quarter", nil)
	assert.Equal(t, model.EmotionNeutral, probs.Dominant())
	assert.InDelta(t, 0.16, probs[model.EmotionNeutral], 1e-9)
	assert.InDelta(t, 0.08, probs[model.EmotionStress], 1e-9)
	assert.InDelta(t, 1.0, sum(probs), 1e-9)
}

func TestEntropy(t *testing.T) {
	assert.InDelta(t, 1.0, Entropy(model.UniformDistribution()), 1e-9)

	certain := model.NewDistribution()
	certain[model.EmotionJoy] = 1.0
	assert.InDelta(t, 0.0, Entropy(certain), 1e-9)
}

func TestConfidenceBucket(t *testing.T) {
	assert.Equal(t, model.ConfidenceHigh, ConfidenceBucket(0.0))
	assert.Equal(t, model.ConfidenceHigh, ConfidenceBucket(0.29))
	assert.Equal(t, model.ConfidenceMedium, ConfidenceBucket(0.3))
	assert.Equal(t, model.ConfidenceMedium, ConfidenceBucket(0.59))
	assert.Equal(t, model.ConfidenceLow, ConfidenceBucket(0.6))
	assert.Equal(t, model.ConfidenceLow, ConfidenceBucket(1.0))
}

func sum(d model.Distribution) float64 {
	total := 0.0
	for _, v := range d {
		total += v
	}
	return total
}
