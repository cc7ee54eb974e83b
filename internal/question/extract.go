package question

import "strings"

const minQuestionLength = 3

// Extract finds the question in a finalized turn, if any.
// The turn is split into lines, the last line containing a question mark
// wins, and it is truncated at its last question mark. Preceding sentences
// on the same line are stripped so only the final interrogative survives.
// Fragments shorter than three characters are discarded as noise.
func Extract(turn string) (string, bool) {
	lines := strings.Split(turn, "\n")

	var candidate string
	for _, line := range lines {
		if strings.Contains(line, "?") {
			candidate = line
		}
	}
	if candidate == "" {
		return "", false
	}

	candidate = candidate[:strings.LastIndex(candidate, "?")+1]
	if i := strings.LastIndexAny(candidate[:len(candidate)-1], ".!?"); i >= 0 {
		candidate = candidate[i+1:]
	}
	candidate = strings.TrimSpace(candidate)

	if len(candidate) < minQuestionLength {
		return "", false
	}
	return candidate, true
}
