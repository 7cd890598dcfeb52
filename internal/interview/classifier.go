package interview

import "strings"

// Classifier decides whether one AI question probes the candidate's previous
// answer instead of opening a new topic. Pluggable so the cue-phrase
// heuristic can later be replaced by a real semantic classifier without
// touching the policy engine or the driver.
type Classifier func(text string) bool

// Cue phrases that reference a prior answer or ask to clarify/expand,
// with French, Spanish, and Arabic equivalents. Matching is substring on
// lowercased text; false positives and negatives are accepted.
var followUpCues = []string{
	"you said",
	"you mentioned",
	"elaborate",
	"clarify",
	"can you explain",
	"pourquoi",
	"pouvez-vous",
	"¿puedes",
	"¿podrías",
	"لماذا",
	"هل يمكنك",
}

// IsFollowUp is the default Classifier.
func IsFollowUp(text string) bool {
	q := strings.ToLower(text)
	for _, cue := range followUpCues {
		if strings.Contains(q, cue) {
			return true
		}
	}
	return false
}

// CountFollowUps scans the AI questions asked so far, in order, and counts
// the ones classified as follow-ups. Stateless; recomputed on every call.
func CountFollowUps(aiQuestions []string, isFollowUp Classifier) int {
	if isFollowUp == nil {
		isFollowUp = IsFollowUp
	}
	n := 0
	for _, q := range aiQuestions {
		if isFollowUp(q) {
			n++
		}
	}
	return n
}
