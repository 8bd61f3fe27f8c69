// Package aggregate derives conversation-level views from stored
// per-message distributions. Everything here is a pure function of its
// inputs: recomputing on unchanged messages yields identical output.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/empathyengine/resonance/internal/core/model"
)

// Summarize computes the aggregated emotion summary for a chat. An empty
// message list yields a zero-confidence placeholder.
func Summarize(chatID string, messages []model.ScoredMessage, includeText bool, generatedAt string) model.EmotionSummary {
	if len(messages) == 0 {
		scores := make(model.Distribution, len(model.Emotions))
		for _, e := range model.Emotions {
			scores[e] = 0.1
		}
		summary := model.EmotionSummary{
			ChatID:          chatID,
			ID:              chatID,
			DominantEmotion: model.EmotionNeutral,
			Scores:          scores,
			Confidence:      0.0,
			GeneratedAt:     generatedAt,
		}
		if includeText {
			summary.SummaryText = "No messages yet."
		}
		return summary
	}

	scores := model.NewDistribution()
	totalEntropy := 0.0
	for _, msg := range messages {
		for emotion, p := range msg.Probs {
			scores[emotion] += p
		}
		totalEntropy += msg.Entropy
	}

	n := float64(len(messages))
	for emotion := range scores {
		scores[emotion] /= n
	}

	dominant := scores.Dominant()
	confidence := round2(1.0 - totalEntropy/n)

	summary := model.EmotionSummary{
		ChatID:          chatID,
		ID:              chatID,
		DominantEmotion: dominant,
		Scores:          scores,
		Confidence:      confidence,
		GeneratedAt:     generatedAt,
	}
	if includeText {
		summary.SummaryText = summaryText(dominant, scores, confidence)
	}
	return summary
}

// DominantByVote recomputes a conversation's dominant emotion by majority
// vote over per-message dominant labels. Ties break by the fixed keyword
// priority order, never by recency.
func DominantByVote(messages []model.ScoredMessage) string {
	if len(messages) == 0 {
		return model.EmotionNeutral
	}

	counts := make(map[string]int)
	for _, msg := range messages {
		counts[msg.Dominant]++
	}

	best := model.EmotionNeutral
	bestCount := -1
	for _, e := range model.KeywordPriority {
		if c := counts[e]; c > bestCount {
			best = e
			bestCount = c
		}
	}
	return best
}

// summaryText renders the deterministic one-line description from the top
// two scoring emotions and the aggregate confidence.
func summaryText(dominant string, scores model.Distribution, confidence float64) string {
	type labelScore struct {
		emotion string
		score   float64
	}
	ranked := make([]labelScore, 0, len(scores))
	for _, e := range model.Emotions {
		ranked = append(ranked, labelScore{e, scores[e]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	secondary := ""
	if len(ranked) > 1 && ranked[1].score > 0.1 {
		secondary = ranked[1].emotion
	}

	var summary string
	switch {
	case confidence > 0.7:
		summary = fmt.Sprintf("The conversation is strongly dominated by %s", dominant)
	case confidence > 0.4:
		summary = fmt.Sprintf("The conversation shows %s", dominant)
	default:
		summary = fmt.Sprintf("The conversation has mixed emotions with some %s", dominant)
	}

	if secondary != "" && secondary != dominant {
		summary += fmt.Sprintf(", with occasional %s", secondary)
	}

	return summary + "."
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
