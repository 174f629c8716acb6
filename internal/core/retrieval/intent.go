package retrieval

import "strings"

var summaryPhrases = []string{
	"summarize", "summary", "summarise", "overview", "what is this about",
	"what does this say", "what's in this", "tell me about this",
}

// IsSummaryRequest reports whether the question asks for a summary of the
// whole document rather than a targeted answer.
func IsSummaryRequest(question string) bool {
	q := strings.ToLower(question)
	for _, p := range summaryPhrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}
