// Package classify adapts a pluggable text-generation client into an
// emotion classifier: prompt construction, response parsing, and the
// anti-neutral correction applied to model output.
package classify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/empathyengine/resonance/internal/core/model"
	"github.com/empathyengine/resonance/internal/llm"
)

// Turn is one prior conversation message supplied as classification context.
type Turn struct {
	Role    string
	Content string
}

// Adapter classifies message text through an LLM. It makes exactly one
// generation call per Classify: a failure is treated as "unavailable" and
// returned to the caller, which falls through to the next pipeline stage.
type Adapter struct {
	LLM llm.LLMClient
}

func NewAdapter(client llm.LLMClient) *Adapter {
	return &Adapter{LLM: client}
}

const maxContextTurns = 5

// Classify sends the classification prompt and parses the response into a
// normalized distribution. The returned distribution has already been
// through the anti-neutral correction.
func (a *Adapter) Classify(ctx context.Context, text string, history []Turn) (model.Distribution, error) {
	if a.LLM == nil {
		return nil, fmt.Errorf("no generation client configured")
	}

	response, err := a.LLM.Generate(ctx, buildPrompt(text, history))
	if err != nil {
		return nil, fmt.Errorf("classifier generation failed: %w", err)
	}

	probs := parseResponse(response)
	applyNeutralCorrection(probs)
	return probs, nil
}

func buildPrompt(text string, history []Turn) string {
	var contextBlock strings.Builder
	if len(history) > 0 {
		recent := history
		if len(recent) > maxContextTurns {
			recent = recent[len(recent)-maxContextTurns:]
		}
		contextBlock.WriteString("\n\nRecent conversation context:\n")
		for _, turn := range recent {
			contextBlock.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
		}
	}

	return fmt.Sprintf(`Analyze the emotional content of this message and classify it into one or more of these emotions:
%s

CRITICAL RULES:
1. NEVER classify as neutral if the text contains:
   - Emotion words (angry, sad, happy, scared, etc.)
   - Emojis (😢, 😡, 😊, etc.)
   - Multiple exclamation marks (!!!)
   - ALL CAPS WORDS
   - Sarcasm or passive-aggressive tone

2. For short responses ("Ok.", "Sure.", "Fine."), inherit emotion from previous context if available.

3. Only return neutral when:
   - Confidence in all other emotions < 0.40
   - No emotion keywords, emojis, or emphasis detected
   - Text is purely factual/informational

4. Sarcasm ("Yeah great job... not") should map to anger or disgust, NOT neutral.
%s
Current message to analyze: "%s"

Respond with ONLY emotion probabilities in this exact format:
joy: X.XX, sadness: X.XX, anger: X.XX, fear: X.XX, surprise: X.XX, stress: X.XX, tension: X.XX, disgust: X.XX, anticipation: X.XX, neutral: X.XX

Probabilities must sum to 1.0.`, strings.Join(model.Emotions, ", "), contextBlock.String(), text)
}

// parseResponse reads a "label: value, label: value" listing. Unknown
// labels are ignored and values clamped to [0,1]. An all-zero parse
// yields a uniform distribution rather than defaulting to neutral.
func parseResponse(response string) model.Distribution {
	probs := model.NewDistribution()

	for _, pair := range strings.Split(strings.ToLower(strings.TrimSpace(response)), ",") {
		label, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		if _, known := probs[label]; !known {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			continue
		}
		probs[label] = clamp01(v)
	}

	total := 0.0
	for _, v := range probs {
		total += v
	}
	if total <= 0 {
		return model.UniformDistribution()
	}
	probs.Normalize()
	return probs
}

// applyNeutralCorrection redistributes mass when the model leans neutral
// despite a strong non-neutral candidate: max non-neutral gets 0.6,
// neutral 0.2, and the remaining 0.2 splits evenly over the other labels.
func applyNeutralCorrection(probs model.Distribution) {
	maxEmotion := ""
	maxVal := 0.0
	for _, e := range model.Emotions {
		if e == model.EmotionNeutral {
			continue
		}
		if v := probs[e]; v > maxVal {
			maxEmotion = e
			maxVal = v
		}
	}

	if probs[model.EmotionNeutral] <= 0.5 || maxVal < 0.30 {
		return
	}

	share := 0.2 / float64(len(model.Emotions)-2)
	for _, e := range model.Emotions {
		switch e {
		case maxEmotion:
			probs[e] = 0.6
		case model.EmotionNeutral:
			probs[e] = 0.2
		default:
			probs[e] = share
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
