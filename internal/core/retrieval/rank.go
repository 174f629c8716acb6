package retrieval

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// minQueryLen is the raw query length below which ranking is skipped.
	minQueryLen = 5
	// phraseBonus is added when the whole query appears verbatim in a chunk.
	phraseBonus = 5
)

// shortWords are kept despite being two characters or fewer.
var shortWords = map[string]bool{
	"is": true, "are": true, "was": true, "the": true, "a": true, "an": true,
}

type scoredChunk struct {
	index int
	score int
}

// queryWords lower-cases and splits the query, keeping words longer than two
// characters plus the short-word whitelist. Duplicates are removed.
func queryWords(query string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if seen[w] {
			continue
		}
		if utf8.RuneCountInString(w) > 2 || shortWords[w] {
			seen[w] = true
			words = append(words, w)
		}
	}
	return words
}

// Rank returns up to topK chunks ordered by keyword overlap with query.
// Ties keep the original chunk order. Queries too short or unspecific to
// score, and queries that match nothing, yield the first topK chunks.
func Rank(chunks []string, query string, topK int) []string {
	ranked, _ := rank(chunks, query, topK)
	return ranked
}

// rank additionally reports whether any chunk scored above zero.
func rank(chunks []string, query string, topK int) ([]string, bool) {
	if topK <= 0 {
		return nil, false
	}
	words := queryWords(query)
	if len(words) == 0 || utf8.RuneCountInString(query) < minQueryLen {
		return head(chunks, topK), false
	}

	phrase := strings.ToLower(query)
	var scored []scoredChunk
	for i, c := range chunks {
		lc := strings.ToLower(c)
		score := 0
		for _, w := range words {
			if strings.Contains(lc, w) {
				score++
			}
		}
		if strings.Contains(lc, phrase) {
			score += phraseBonus
		}
		if score > 0 {
			scored = append(scored, scoredChunk{index: i, score: score})
		}
	}
	if len(scored) == 0 {
		return head(chunks, topK), false
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = chunks[s.index]
	}
	return out, true
}

func head(chunks []string, n int) []string {
	if len(chunks) <= n {
		return append([]string(nil), chunks...)
	}
	return append([]string(nil), chunks[:n]...)
}
