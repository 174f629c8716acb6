package ingestion_engine

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// sentenceRe matches a sentence with its run of terminal punctuation, or a
// trailing fragment with none.
var sentenceRe = regexp.MustCompile(`[^.!?]*[.!?]+|[^.!?]+`)

// SplitSentences breaks text on '.', '!' and '?' keeping the punctuation.
// Blank sentences are dropped.
func SplitSentences(text string) []string {
	var out []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Chunk greedily packs sentences into chunks of at most size characters.
// When the next sentence would overflow a non-empty chunk, the chunk is closed
// and the next one starts with the last overlap words of the closed chunk
// (all of it when it has no more than overlap words).
// A single sentence longer than size becomes its own oversized chunk.
func Chunk(text string, size, overlap int) []string {
	var (
		chunks  []string
		current string
	)

	for _, sentence := range SplitSentences(text) {
		if current != "" && utf8.RuneCountInString(current)+utf8.RuneCountInString(sentence) > size {
			chunks = append(chunks, current)
			if tail := overlapTail(current, overlap); tail != "" {
				current = tail + " " + sentence
			} else {
				current = sentence
			}
			continue
		}
		if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
	}

	if current = strings.TrimSpace(current); current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

func overlapTail(chunk string, overlap int) string {
	words := strings.Fields(chunk)
	if overlap <= 0 {
		return ""
	}
	if len(words) > overlap {
		return strings.Join(words[len(words)-overlap:], " ")
	}
	return chunk
}
