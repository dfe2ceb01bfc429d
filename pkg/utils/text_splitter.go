package utils

import (
	"strings"
	"unicode"
)

// SplitText splits a long string into chunks of at most 'chunkSize' runes.
// It includes an 'overlap' to preserve context at boundaries and prefers to
// cut at whitespace found in the second half of a window.
// Output is deterministic for a given (text, chunkSize, overlap).
func SplitText(text string, chunkSize int, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if chunkSize <= 0 {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	runes := []rune(text)
	totalLen := len(runes)
	if totalLen <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < totalLen {
		end := start + chunkSize
		if end >= totalLen {
			end = totalLen
		} else if cut := lastSpace(runes, start+chunkSize/2, end); cut > 0 {
			end = cut
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == totalLen {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// lastSpace returns the index just past the last whitespace rune in runes[from:to], or -1.
func lastSpace(runes []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return -1
}
