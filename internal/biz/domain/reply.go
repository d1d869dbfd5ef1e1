package domain

import (
	"strings"
	"unicode"
)

// chunkLookback is how far back from a hard cut the chunker searches for a
// whitespace boundary before giving up and splitting mid-word.
const chunkLookback = 24

// NormalizeReply collapses all whitespace runs in a model completion to
// single spaces and trims the ends. Mesh messages are single-line; embedded
// newlines from the model would otherwise waste transport budget.
func NormalizeReply(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// EnforceMaxLength caps text at maxChars characters (runes, not bytes) and
// trims any trailing whitespace left by the cut.
func EnforceMaxLength(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return strings.TrimRightFunc(string(runes[:maxChars]), unicode.IsSpace)
}

// ChunkText splits text into pieces of at most chunkSize characters,
// preferring to break on whitespace within a small lookback window so words
// and identifiers survive intact when a clean boundary exists. Chunks are
// trimmed; empty chunks are never returned.
func ChunkText(text string, chunkSize int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= chunkSize {
			chunks = append(chunks, strings.TrimSpace(string(runes)))
			break
		}

		cut := chunkSize
		for back := 0; back < chunkLookback && cut-back > 0; back++ {
			if unicode.IsSpace(runes[cut-back]) {
				cut = cut - back
				break
			}
		}

		chunk := strings.TrimSpace(string(runes[:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = []rune(strings.TrimLeftFunc(string(runes[cut:]), unicode.IsSpace))
	}

	return chunks
}

// NormalizeForDedup derives the dedup key text from a prompt: trimmed and
// case-folded, so retransmitted frames that differ only in case or edge
// whitespace still collapse to one key.
func NormalizeForDedup(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}
