package model

// The fixed emotion label set. Order here is the canonical enumeration
// order used for arg-max tie-breaking and wire output.
const (
	EmotionJoy          = "joy"
	EmotionSadness      = "sadness"
	EmotionAnger        = "anger"
	EmotionFear         = "fear"
	EmotionSurprise     = "surprise"
	EmotionStress       = "stress"
	EmotionTension      = "tension"
	EmotionDisgust      = "disgust"
	EmotionAnticipation = "anticipation"
	EmotionNeutral      = "neutral"
)

var Emotions = []string{
	EmotionJoy,
	EmotionSadness,
	EmotionAnger,
	EmotionFear,
	EmotionSurprise,
	EmotionStress,
	EmotionTension,
	EmotionDisgust,
	EmotionAnticipation,
	EmotionNeutral,
}

// KeywordPriority orders emotions for keyword detection and for breaking
// majority-vote ties. Insults and negative affect outrank positive signals
// so a stray positive keyword cannot mask them. Neutral is last: it never
// wins a tie against a real emotion.
var KeywordPriority = []string{
	EmotionDisgust,
	EmotionAnger,
	EmotionSadness,
	EmotionFear,
	EmotionSurprise,
	EmotionJoy,
	EmotionStress,
	EmotionTension,
	EmotionAnticipation,
	EmotionNeutral,
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Distribution maps every emotion label to a probability. A well-formed
// Distribution carries all 10 labels and sums to 1.0.
type Distribution map[string]float64

// NewDistribution returns a zero-valued distribution with every label present.
func NewDistribution() Distribution {
	d := make(Distribution, len(Emotions))
	for _, e := range Emotions {
		d[e] = 0.0
	}
	return d
}

// UniformDistribution spreads probability evenly over all labels.
func UniformDistribution() Distribution {
	d := make(Distribution, len(Emotions))
	for _, e := range Emotions {
		d[e] = 1.0 / float64(len(Emotions))
	}
	return d
}

// Normalize scales the distribution in place so it sums to 1.0.
// An all-zero distribution is left untouched.
func (d Distribution) Normalize() {
	total := 0.0
	for _, v := range d {
		total += v
	}
	if total <= 0 {
		return
	}
	for k, v := range d {
		d[k] = v / total
	}
}

// Dominant returns the arg-max label. Ties go to the label that appears
// first in the canonical enumeration order.
func (d Distribution) Dominant() string {
	best := EmotionNeutral
	bestVal := -1.0
	for _, e := range Emotions {
		if v := d[e]; v > bestVal {
			best = e
			bestVal = v
		}
	}
	return best
}

// Clone returns an independent copy.
func (d Distribution) Clone() Distribution {
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
