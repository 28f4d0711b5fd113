// Package parser turns course documents into courses and embeddable chunks.
package parser

import (
	"strings"
	"unicode"
)

// ChunkConfig defines chunking parameters.
type ChunkConfig struct {
	// Size is the maximum chunk length in characters. Single sentences
	// longer than this are emitted whole rather than split mid-word.
	Size int
	// Overlap is the approximate character overlap between adjacent
	// chunks, snapped to sentence boundaries.
	Overlap int
}

// DefaultChunkConfig returns sensible defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    800,
		Overlap: 100,
	}
}

// Chunk splits text into overlapping, sentence-aware segments. Sentences
// are accumulated greedily until the next one would exceed cfg.Size; the
// following chunk re-includes trailing sentences totalling at most
// cfg.Overlap characters. Deterministic and side-effect-free. Empty or
// whitespace-only input yields nil.
func Chunk(text string, cfg ChunkConfig) []string {
	sentences := splitSentences(normalizeWhitespace(text))
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		if currentLen > 0 && currentLen+1+len(sentence) > cfg.Size {
			chunks = append(chunks, strings.Join(current, " "))
			current = overlapTail(current, cfg.Overlap)
			currentLen = joinedLen(current)
		}

		current = append(current, sentence)
		if currentLen == 0 {
			currentLen = len(sentence)
		} else {
			currentLen += 1 + len(sentence)
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// normalizeWhitespace collapses all whitespace runs to single spaces.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// splitSentences splits text at punctuation-aware sentence boundaries.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Boundary only when followed by space or end of text
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				if r == '.' && isAbbreviation(runes, i) {
					continue
				}
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// isAbbreviation reports whether the period at index i most likely ends
// an abbreviation such as "Dr." or "Ms.": a capitalized word of at most
// three letters.
func isAbbreviation(runes []rune, i int) bool {
	start := i
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	word := i - start
	return word > 0 && word <= 3 && unicode.IsUpper(runes[start])
}

// overlapTail returns the trailing sentences of a chunk whose combined
// length fits within overlap characters. A sentence longer than the
// overlap budget yields an empty tail.
func overlapTail(sentences []string, overlap int) []string {
	if overlap <= 0 {
		return nil
	}

	total := 0
	start := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		add := len(sentences[i])
		if total > 0 {
			add++ // joining space
		}
		if total+add > overlap {
			break
		}
		total += add
		start = i
	}

	if start == len(sentences) {
		return nil
	}
	tail := make([]string, len(sentences)-start)
	copy(tail, sentences[start:])
	return tail
}

// joinedLen is the length of sentences joined with single spaces.
func joinedLen(sentences []string) int {
	if len(sentences) == 0 {
		return 0
	}
	n := len(sentences) - 1
	for _, s := range sentences {
		n += len(s)
	}
	return n
}
