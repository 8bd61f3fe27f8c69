package reply

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/empathyengine/resonance/internal/core/classify"
	"github.com/empathyengine/resonance/internal/core/model"
	"github.com/empathyengine/resonance/internal/logger"
)

type stubLLM struct {
	response string
	err      error
	prompts  []string
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func TestReply_LLMResponseTrimmed(t *testing.T) {
	llm := &stubLLM{response: "  That sounds really hard. I'm here with you.  \n"}
	r := NewResponder(llm, logger.NewNop())

	text, safety := r.Reply(context.Background(), "I feel awful", model.EmotionSadness, nil)

	assert.Equal(t, "That sounds really hard. I'm here with you.", text)
	assert.False(t, safety)
}

func TestReply_FallbackOnLLMError(t *testing.T) {
	llm := &stubLLM{err: errors.New("rate limited")}
	r := NewResponder(llm, logger.NewNop())

	for emotion, want := range fallbackReplies {
		text, _ := r.Reply(context.Background(), "some message", emotion, nil)
		assert.Equal(t, want, text, emotion)
	}
}

func TestReply_NoClientUsesFallback(t *testing.T) {
	r := NewResponder(nil, logger.NewNop())

	text, safety := r.Reply(context.Background(), "this is so frustrating", model.EmotionAnger, nil)

	assert.Equal(t, fallbackReplies[model.EmotionAnger], text)
	assert.False(t, safety)
}

func TestReply_UnknownEmotionUsesGenericFallback(t *testing.T) {
	r := NewResponder(nil, logger.NewNop())

	text, _ := r.Reply(context.Background(), "hello", "confusion", nil)

	assert.Equal(t, "I'm here to support you. Tell me more about how you're feeling.", text)
}

func TestReply_SafetyFlag(t *testing.T) {
	r := NewResponder(nil, logger.NewNop())

	cases := []struct {
		text string
		want bool
	}{
		{"I want to die", true},
		{"sometimes I think about suicide", true},
		{"I might hurt myself", true},
		{"thinking about self-harm again", true},
		{"this deadline is killing me", false},
		{"I could die of embarrassment", false},
	}
	for _, tc := range cases {
		_, safety := r.Reply(context.Background(), tc.text, model.EmotionSadness, nil)
		assert.Equal(t, tc.want, safety, tc.text)
	}
}

func TestReply_PromptIncludesEmotionAndHistory(t *testing.T) {
	llm := &stubLLM{response: "ok"}
	r := NewResponder(llm, logger.NewNop())

	history := []classify.Turn{
		{Role: "user", Content: "my cat is missing"},
		{Role: "assistant", Content: "I'm sorry to hear that."},
	}
	_, _ = r.Reply(context.Background(), "still no sign of her", model.EmotionSadness, history)

	if assert.Len(t, llm.prompts, 1) {
		prompt := llm.prompts[0]
		assert.Contains(t, prompt, "detected emotion: sadness")
		assert.Contains(t, prompt, "user: my cat is missing")
		assert.Contains(t, prompt, `User's current message: "still no sign of her"`)
	}
}

func TestSummarize_EmptyConversation(t *testing.T) {
	r := NewResponder(&stubLLM{response: "should not be called"}, logger.NewNop())

	got := r.Summarize(context.Background(), nil)

	assert.Equal(t, "No conversation to summarize yet.", got)
}

func TestSummarize_LLMResponseTrimmed(t *testing.T) {
	llm := &stubLLM{response: "  The user worked through a billing frustration and left reassured.  \n"}
	r := NewResponder(llm, logger.NewNop())

	got := r.Summarize(context.Background(), []model.ScoredMessage{
		{Speaker: "user", Text: "I was double charged", Dominant: model.EmotionAnger},
	})

	assert.Equal(t, "The user worked through a billing frustration and left reassured.", got)
}

func TestSummarize_FallbackOnLLMError(t *testing.T) {
	llm := &stubLLM{err: errors.New("rate limited")}
	r := NewResponder(llm, logger.NewNop())

	got := r.Summarize(context.Background(), []model.ScoredMessage{
		{Speaker: "user", Text: "hello", Dominant: model.EmotionNeutral},
	})

	assert.Equal(t, "Unable to generate summary at this time.", got)
}

func TestSummarize_NoClientUsesFallback(t *testing.T) {
	r := NewResponder(nil, logger.NewNop())

	got := r.Summarize(context.Background(), []model.ScoredMessage{
		{Speaker: "user", Text: "hello", Dominant: model.EmotionNeutral},
	})

	assert.Equal(t, "Unable to generate summary at this time.", got)
}

func TestSummarize_PromptCarriesSpeakerEmotionAndText(t *testing.T) {
	llm := &stubLLM{response: "ok"}
	r := NewResponder(llm, logger.NewNop())

	_ = r.Summarize(context.Background(), []model.ScoredMessage{
		{Speaker: "user", Text: "I was double charged", Dominant: model.EmotionAnger},
		{Speaker: "assistant", Text: "Let me look into that.", Dominant: model.EmotionNeutral},
	})

	if assert.Len(t, llm.prompts, 1) {
		prompt := llm.prompts[0]
		assert.Contains(t, prompt, "user (anger): I was double charged\n")
		assert.Contains(t, prompt, "assistant (neutral): Let me look into that.\n")
		assert.Contains(t, prompt, "Emotional journey of the user")
	}
}

func TestReply_HistoryTruncatedToLastTen(t *testing.T) {
	llm := &stubLLM{response: "ok"}
	r := NewResponder(llm, logger.NewNop())

	var history []classify.Turn
	for i := 0; i < 12; i++ {
		history = append(history, classify.Turn{Role: "user", Content: string(rune('a' + i))})
	}
	_, _ = r.Reply(context.Background(), "hello", model.EmotionNeutral, history)

	prompt := llm.prompts[0]
	assert.NotContains(t, prompt, "user: a\n")
	assert.NotContains(t, prompt, "user: b\n")
	assert.Contains(t, prompt, "user: c\n")
	assert.Contains(t, prompt, "user: l\n")
}
