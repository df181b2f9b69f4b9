// Package sentiment scores free text by keyword lookup. The score is a
// coarse heuristic used to pick a tone hint and to order suggested
// replies; it is not a clinical signal of any kind.
package sentiment

import "strings"

// negativeKeywords are distress-associated terms. Matching is by
// case-insensitive substring, so "stress" also catches "stressed".
var negativeKeywords = []string{
	"sad", "stress", "anxious", "anxiety", "depress", "angry", "lonely",
	"tired", "exhausted", "worried", "overwhelm", "hopeless", "cry",
	"panic", "afraid", "scared", "hurt", "guilt",
}

// positiveKeywords are relief and positive-affect terms.
var positiveKeywords = []string{
	"happy", "calm", "grateful", "relieved", "better", "hopeful",
	"excited", "proud", "joy", "peaceful", "thankful", "good",
}

// Score returns (#positive keywords present) - (#negative keywords
// present). Each keyword contributes at most once regardless of how many
// times it occurs. Deterministic and side-effect free.
func Score(text string) int {
	lower := strings.ToLower(text)

	score := 0
	for _, kw := range positiveKeywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			score--
		}
	}
	return score
}

// Tone maps a sentiment score to the tone descriptor injected into the
// model prompt.
func Tone(score int) string {
	switch {
	case score < 0:
		return "gentle, validating, non-judgmental"
	case score > 0:
		return "encouraging, balanced"
	default:
		return "neutral, respectful"
	}
}

// comfortReplies lead when the score indicates distress.
var comfortReplies = []string{
	"That sounds really hard.",
	"Can you tell me more about what happened?",
	"What would help you feel a little safer right now?",
}

// forwardReplies lead when the score is neutral or positive.
var forwardReplies = []string{
	"What went well for you today?",
	"What's one small step you could take next?",
	"Is there anything else on your mind?",
}

// SuggestReplies returns canned follow-up suggestions ordered by the
// given sentiment score: comfort-oriented first when negative,
// forward-looking first otherwise.
func SuggestReplies(score int) []string {
	var out []string
	if score < 0 {
		out = append(out, comfortReplies...)
		out = append(out, forwardReplies...)
	} else {
		out = append(out, forwardReplies...)
		out = append(out, comfortReplies...)
	}
	return out
}
