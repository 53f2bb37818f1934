// Package sentiment provides lexicon-based sentiment scoring for transcripts
// and synthesis requests. Analysis never fails; text the lexicon cannot score
// comes back neutral.
package sentiment

import (
	"strings"
)

// Score holds the sentiment of a piece of text.
type Score struct {
	// Polarity ranges from -1 (negative) to 1 (positive).
	Polarity float64 `json:"polarity"`

	// Subjectivity ranges from 0 (objective) to 1 (subjective).
	Subjectivity float64 `json:"subjectivity"`

	// Label is "positive", "negative", or "neutral".
	Label string `json:"label"`
}

// Classification thresholds. Polarity within (-0.1, 0.1] is neutral.
const (
	positiveThreshold = 0.1
	negativeThreshold = -0.1
)

// wordScore is a lexicon entry.
type wordScore struct {
	polarity     float64
	subjectivity float64
}

// negators flip the polarity of the following scored word.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true,
	"nobody": true, "nothing": true, "dont": true, "don't": true,
	"cant": true, "can't": true, "wont": true, "won't": true,
	"isnt": true, "isn't": true, "wasnt": true, "wasn't": true,
}

// intensifiers scale the polarity of the following scored word.
var intensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "extremely": 1.5, "incredibly": 1.5,
	"so": 1.2, "totally": 1.3, "absolutely": 1.5, "quite": 1.1,
	"somewhat": 0.7, "slightly": 0.5, "barely": 0.4, "hardly": 0.4,
}

// Analyze scores the text and labels it. Empty or unscorable text is neutral.
func Analyze(text string) Score {
	words := tokenize(text)
	if len(words) == 0 {
		return Score{Label: "neutral"}
	}

	var polaritySum, subjectivitySum float64
	scored := 0
	negate := false
	scale := 1.0

	for _, word := range words {
		if negators[word] {
			negate = true
			continue
		}
		if mult, ok := intensifiers[word]; ok {
			scale *= mult
			continue
		}

		entry, ok := lexicon[word]
		if !ok {
			negate = false
			scale = 1.0
			continue
		}

		polarity := entry.polarity * scale
		if negate {
			polarity = -polarity * 0.5
		}
		polaritySum += clamp(polarity, -1, 1)
		subjectivitySum += entry.subjectivity
		scored++
		negate = false
		scale = 1.0
	}

	if scored == 0 {
		return Score{Label: "neutral"}
	}

	score := Score{
		Polarity:     round3(clamp(polaritySum/float64(scored), -1, 1)),
		Subjectivity: round3(clamp(subjectivitySum/float64(scored), 0, 1)),
	}
	score.Label = label(score.Polarity)
	return score
}

// Emotion maps a sentiment score to a coarse emotion label.
func Emotion(text string) string {
	score := Analyze(text)
	switch {
	case score.Polarity > 0.5:
		if score.Subjectivity > 0.5 {
			return "joy"
		}
		return "satisfaction"
	case score.Polarity > positiveThreshold:
		return "content"
	case score.Polarity < -0.5:
		if score.Subjectivity > 0.5 {
			return "anger"
		}
		return "sadness"
	case score.Polarity < negativeThreshold:
		return "disappointment"
	default:
		return "neutral"
	}
}

func label(polarity float64) string {
	switch {
	case polarity > positiveThreshold:
		return "positive"
	case polarity < negativeThreshold:
		return "negative"
	default:
		return "neutral"
	}
}

// tokenize lowercases and splits on whitespace, stripping edge punctuation
// but keeping inner apostrophes so contractions survive.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\'')
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round3(v float64) float64 {
	if v >= 0 {
		return float64(int64(v*1000+0.5)) / 1000
	}
	return float64(int64(v*1000-0.5)) / 1000
}
