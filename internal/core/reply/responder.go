// Package reply generates emotion-conditioned assistant replies. The LLM
// path is best-effort: on failure a fixed per-emotion response table
// answers instead, so a reply is always produced.
package reply

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/empathyengine/resonance/internal/core/classify"
	"github.com/empathyengine/resonance/internal/core/model"
	"github.com/empathyengine/resonance/internal/llm"
	"github.com/empathyengine/resonance/internal/logger"
)

type Responder struct {
	LLM llm.LLMClient
	Log *logger.Logger
}

func NewResponder(client llm.LLMClient, log *logger.Logger) *Responder {
	return &Responder{LLM: client, Log: log}
}

const maxHistoryTurns = 10

var fallbackReplies = map[string]string{
	model.EmotionJoy:          "I'm so glad you're feeling happy! It's wonderful to share in your positive energy.",
	model.EmotionSadness:      "I hear you, and I'm here for you. It's okay to feel this way, and your feelings are valid.",
	model.EmotionAnger:        "I understand you're frustrated. Let's work through this together. What would help most right now?",
	model.EmotionFear:         "I can sense your worry. Remember, you're not alone in this. Let's take it one step at a time.",
	model.EmotionSurprise:     "That's quite unexpected! How are you feeling about it?",
	model.EmotionStress:       "It sounds like you're under a lot of pressure. Remember to take care of yourself.",
	model.EmotionTension:      "I sense some tension. Would you like to talk about what's on your mind?",
	model.EmotionDisgust:      "I understand that doesn't sit well with you. Your feelings are completely valid.",
	model.EmotionAnticipation: "It sounds like you're looking forward to something! Tell me more.",
	model.EmotionNeutral:      "I'm here and listening. What's on your mind?",
}

var safetyPattern = regexp.MustCompile(`\b(suicide|suicidal|kill myself|end my life|self[- ]harm|hurt myself|want to die)\b`)

// Reply produces a supportive response matched to the detected emotion and
// a safety flag for self-harm language. It never returns an error: LLM
// failure falls back to the canned response table.
func (r *Responder) Reply(ctx context.Context, text, emotion string, history []classify.Turn) (string, bool) {
	safety := safetyPattern.MatchString(strings.ToLower(text))

	if r.LLM != nil {
		response, err := r.LLM.Generate(ctx, buildReplyPrompt(text, emotion, history))
		if err == nil {
			return strings.TrimSpace(response), safety
		}
		if r.Log != nil {
			r.Log.Warn("reply generation failed, using fallback", "error", err.Error())
		}
	}

	if reply, ok := fallbackReplies[emotion]; ok {
		return reply, safety
	}
	return "I'm here to support you. Tell me more about how you're feeling.", safety
}

// Summarize produces a short narrative summary of an analyzed session. Like
// Reply it never fails: no client or a generation error yields a fixed
// placeholder instead.
func (r *Responder) Summarize(ctx context.Context, messages []model.ScoredMessage) string {
	if len(messages) == 0 {
		return "No conversation to summarize yet."
	}

	if r.LLM != nil {
		response, err := r.LLM.Generate(ctx, buildSummaryPrompt(messages))
		if err == nil {
			return strings.TrimSpace(response)
		}
		if r.Log != nil {
			r.Log.Warn("summary generation failed", "error", err.Error())
		}
	}

	return "Unable to generate summary at this time."
}

func buildSummaryPrompt(messages []model.ScoredMessage) string {
	var conversation strings.Builder
	for _, msg := range messages {
		conversation.WriteString(fmt.Sprintf("%s (%s): %s\n", msg.Speaker, msg.Dominant, msg.Text))
	}

	return fmt.Sprintf(`Summarize this conversation, focusing on:
1. Main topics discussed
2. Emotional journey of the user
3. Key concerns or needs expressed
4. Overall tone and outcome

Conversation:
%s
Provide a concise summary (3-4 sentences):`, conversation.String())
}

func buildReplyPrompt(text, emotion string, history []classify.Turn) string {
	var contextBlock strings.Builder
	if len(history) > 0 {
		recent := history
		if len(recent) > maxHistoryTurns {
			recent = recent[len(recent)-maxHistoryTurns:]
		}
		contextBlock.WriteString("Conversation history:\n")
		for _, turn := range recent {
			contextBlock.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
		}
	}

	return fmt.Sprintf(`You are an empathetic AI assistant. The user just sent you a message with detected emotion: %s.

%s
User's current message: "%s"

Generate a compassionate, supportive response that:
1. Acknowledges their emotional state
2. Provides validation and understanding
3. Offers helpful perspective or support
4. Keeps response concise (2-3 sentences)
5. Matches the intensity of their emotion

Response:`, emotion, contextBlock.String(), text)
}
