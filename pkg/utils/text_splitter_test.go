package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		size      int
		overlap   int
		wantCount int
	}{
		{name: "Empty", text: "   ", size: 10, overlap: 2, wantCount: 0},
		{name: "Short text is one chunk", text: "annual leave", size: 100, overlap: 10, wantCount: 1},
		{name: "Hard cut without spaces", text: strings.Repeat("a", 25), size: 10, overlap: 0, wantCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitText(tt.text, tt.size, tt.overlap)
			assert.Len(t, got, tt.wantCount)
		})
	}
}

func TestSplitText_PrefersWhitespaceAndBoundsSize(t *testing.T) {
	text := strings.Repeat("policy words here ", 40)
	chunks := SplitText(text, 50, 10)

	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 50)
		assert.False(t, strings.HasSuffix(c, "wor"), "chunk cut mid-word: %q", c)
	}
}

func TestSplitText_Deterministic(t *testing.T) {
	text := strings.Repeat("Employees may work remotely two days a week. ", 60)
	assert.Equal(t, SplitText(text, 120, 30), SplitText(text, 120, 30))
}

func TestSplitText_OverlapCarriesContext(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	withOverlap := SplitText(text, 20, 8)
	without := SplitText(text, 20, 0)

	total := func(chunks []string) int {
		n := 0
		for _, c := range chunks {
			n += len(c)
		}
		return n
	}
	assert.Greater(t, total(withOverlap), total(without))
	assert.True(t, strings.HasPrefix(withOverlap[0], "alpha"))
	assert.True(t, strings.HasSuffix(withOverlap[len(withOverlap)-1], "kappa"))
}
