// Package signal implements deterministic lexical emotion detection:
// keyword, emoji, emphasis, and sarcasm scanning. It is the cheap first
// stage of the scoring pipeline and never calls out to a model.
package signal

import (
	"regexp"
	"strings"

	"github.com/empathyengine/resonance/internal/core/model"
)

// Sentinel labels returned by Detect alongside the real emotion labels.
const (
	LabelEmphasis = "emphasis_detected"
	LabelNone     = "no_signal"
)

// keywordSet binds one emotion to its trigger words. Evaluation walks
// these in declaration order, first match wins, so sharper negative
// signals (insults) cannot be masked by an incidental positive keyword
// later in the message.
type keywordSet struct {
	emotion string
	pattern *regexp.Regexp
}

func compileKeywords(words ...string) *regexp.Regexp {
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(escaped, "|") + `)\b`)
}

var keywordSets = []keywordSet{
	{model.EmotionDisgust, compileKeywords("disgusted", "gross", "sick", "revolting", "nasty", "eww", "yuck", "idiot", "stupid", "dumb", "moron")},
	{model.EmotionAnger, compileKeywords("angry", "mad", "furious", "irritated", "annoyed", "pissed", "hate", "ridiculous", "outrageous", "dislike", "frustrated", "frustrating", "frustration")},
	{model.EmotionSadness, compileKeywords("sad", "depressed", "unhappy", "miserable", "heartbroken", "devastated", "lonely", "hurt", "crying", "low", "down", "blue")},
	{model.EmotionFear, compileKeywords("scared", "afraid", "terrified", "anxious", "worried", "nervous", "frightened", "panic")},
	{model.EmotionSurprise, compileKeywords("surprised", "shocked", "amazed", "unexpected", "wow", "omg", "incredible")},
	{model.EmotionJoy, compileKeywords("happy", "excited", "wonderful", "amazing", "love", "fantastic", "excellent", "thrilled", "delighted", "glad", "joyful")},
	{model.EmotionStress, compileKeywords("stressed", "overwhelmed", "pressure", "tense", "exhausted", "burned out")},
	{model.EmotionTension, compileKeywords("tension", "awkward", "uncomfortable", "uneasy")},
	{model.EmotionAnticipation, compileKeywords("looking forward", "can't wait", "eager", "anticipating", "hopeful", "expecting")},
}

// emojiSet order matters the same way: earlier tables win ties when an
// emoji appears in more than one.
type emojiSet struct {
	emotion string
	emojis  []string
}

var emojiSets = []emojiSet{
	{model.EmotionJoy, []string{"😊", "😃", "😄", "😁", "😆", "🤗", "🥰", "😍", "🎉", "✨"}},
	{model.EmotionSadness, []string{"😢", "😭", "😔", "😞", "💔", "😿"}},
	{model.EmotionAnger, []string{"😡", "😠", "🤬", "😤", "💢"}},
	{model.EmotionFear, []string{"😱", "😨", "😰", "😧", "😦"}},
	{model.EmotionSurprise, []string{"😲", "😮", "😯", "🤯"}},
	{model.EmotionDisgust, []string{"🤢", "🤮", "😖", "😣"}},
	{model.EmotionStress, []string{"😫", "😩", "😓", "😰"}},
	{model.EmotionAnticipation, []string{"🤩", "😍", "🥳"}},
}

// Repeated punctuation or shouting: emotional, but which emotion is unknown.
var emphasisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`!!+`),
	regexp.MustCompile(`\?\?+`),
	regexp.MustCompile(`[A-Z]{3,}`),
}

// Negative affect disguised as positive phrasing.
var sarcasmPatterns = []*regexp.Regexp{
	regexp.MustCompile(`yeah\s+(right|sure|great|okay).*not`),
	regexp.MustCompile(`oh\s+(great|wonderful|fantastic).*\.\.\.`),
	regexp.MustCompile(`sure\s*[,.]?\s*whatever`),
	regexp.MustCompile(`fine\s*[.!]+\s*$`),
}

// Detect scans text for emotion signals in strict order: keywords, then
// emojis, then emphasis patterns. It returns (true, emotion) on a keyword
// or emoji hit, (true, LabelEmphasis) when only emphasis is present, and
// (false, LabelNone) otherwise. LabelEmphasis is not a final emotion
// label; callers must resolve it through the classifier.
func Detect(text string) (bool, string) {
	lower := strings.ToLower(text)

	for _, ks := range keywordSets {
		if ks.pattern.MatchString(lower) {
			return true, ks.emotion
		}
	}

	for _, es := range emojiSets {
		for _, emoji := range es.emojis {
			if strings.Contains(text, emoji) {
				return true, es.emotion
			}
		}
	}

	for _, p := range emphasisPatterns {
		if p.MatchString(text) {
			return true, LabelEmphasis
		}
	}

	return false, LabelNone
}

// IsSarcastic reports whether the text matches a sarcasm pattern. Run by
// the scorer only after keyword and emoji detection have failed.
func IsSarcastic(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range sarcasmPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}
