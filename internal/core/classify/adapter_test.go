package classify

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empathyengine/resonance/internal/core/model"
)

func TestClassify_ParsesDistribution(t *testing.T) {
	mockLLM := &MockLLMClient{
		Response: "joy: 0.8, sadness: 0.1, anger: 0.05, fear: 0.05, surprise: 0.0, stress: 0.0, tension: 0.0, disgust: 0.0, anticipation: 0.0, neutral: 0.0",
	}
	adapter := NewAdapter(mockLLM)

	probs, err := adapter.Classify(context.Background(), "what a day", nil)
	require.NoError(t, err)

	assert.Len(t, probs, len(model.Emotions))
	assert.InDelta(t, 0.8, probs[model.EmotionJoy], 1e-9)
	assert.InDelta(t, 1.0, sum(probs), 1e-9)
	assert.Equal(t, model.EmotionJoy, probs.Dominant())
}

func TestClassify_IgnoresUnknownLabelsAndClamps(t *testing.T) {
	mockLLM := &MockLLMClient{
		Response: "joy: 1.7, boredom: 0.9, anger: -0.5, neutral: 0.3",
	}
	adapter := NewAdapter(mockLLM)

	probs, err := adapter.Classify(context.Background(), "hm", nil)
	require.NoError(t, err)

	// joy clamps to 1.0, anger to 0.0, boredom dropped, then renormalize.
	assert.InDelta(t, 1.0/1.3, probs[model.EmotionJoy], 1e-9)
	assert.InDelta(t, 0.0, probs[model.EmotionAnger], 1e-9)
	assert.InDelta(t, 1.0, sum(probs), 1e-9)
}

func TestClassify_AllZeroParseFallsBackToUniform(t *testing.T) {
	mockLLM := &MockLLMClient{
		Response: "I cannot classify this message.",
	}
	adapter := NewAdapter(mockLLM)

	probs, err := adapter.Classify(context.Background(), "hm", nil)
	require.NoError(t, err)

	for _, e := range model.Emotions {
		assert.InDelta(t, 0.1, probs[e], 1e-9, e)
	}
}

func TestClassify_NeutralCorrection(t *testing.T) {
	// Neutral 0.6 with a 0.35 sadness candidate triggers redistribution.
	mockLLM := &MockLLMClient{
		Response: "sadness: 0.35, neutral: 0.60, joy: 0.05",
	}
	adapter := NewAdapter(mockLLM)

	probs, err := adapter.Classify(context.Background(), "hm", nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.6, probs[model.EmotionSadness], 1e-9)
	assert.InDelta(t, 0.2, probs[model.EmotionNeutral], 1e-9)
	assert.InDelta(t, 0.2/8, probs[model.EmotionJoy], 1e-9)
	assert.InDelta(t, 1.0, sum(probs), 1e-9)
	assert.Equal(t, model.EmotionSadness, probs.Dominant())
}

func TestClassify_NeutralCorrectionNotTriggered(t *testing.T) {
	// Max non-neutral below 0.30 after normalization: neutral stands.
	mockLLM := &MockLLMClient{
		Response: "sadness: 0.15, neutral: 0.85",
	}
	adapter := NewAdapter(mockLLM)

	probs, err := adapter.Classify(context.Background(), "hm", nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.85, probs[model.EmotionNeutral], 1e-9)
	assert.Equal(t, model.EmotionNeutral, probs.Dominant())
}

func TestClassify_FailurePropagates(t *testing.T) {
	mockLLM := &MockLLMClient{Err: fmt.Errorf("quota exceeded")}
	adapter := NewAdapter(mockLLM)

	_, err := adapter.Classify(context.Background(), "hm", nil)
	assert.Error(t, err)
	// Exactly one attempt, no retry.
	assert.Len(t, mockLLM.Prompts, 1)
}

func TestClassify_PromptIncludesRecentHistory(t *testing.T) {
	mockLLM := &MockLLMClient{Response: "neutral: 1.0"}
	adapter := NewAdapter(mockLLM)

	history := make([]Turn, 0, 7)
	for i := 1; i <= 7; i++ {
		history = append(history, Turn{Role: "user", Content: fmt.Sprintf("turn-%d", i)})
	}

	_, err := adapter.Classify(context.Background(), "Ok.", history)
	require.NoError(t, err)
	require.Len(t, mockLLM.Prompts, 1)

	prompt := mockLLM.Prompts[0]
	assert.Contains(t, prompt, "turn-7")
	assert.Contains(t, prompt, "turn-3")
	// Only the last 5 turns make it into the prompt.
	assert.NotContains(t, prompt, "turn-2")
	assert.Contains(t, prompt, `Current message to analyze: "Ok."`)
}

func sum(d model.Distribution) float64 {
	total := 0.0
	for _, v := range d {
		total += v
	}
	return total
}
