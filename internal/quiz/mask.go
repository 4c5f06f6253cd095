package quiz

import (
	"strings"
	"unicode"
)

// Mask renders a partially revealed answer. Whitespace renders as a double
// space and is never counted as revealable; revealed rune positions render
// literally; everything else renders as a placeholder. Pure function, safe
// to call without any lock.
func Mask(answer string, revealed map[int]bool) string {
	var b strings.Builder
	for idx, ch := range []rune(answer) {
		switch {
		case unicode.IsSpace(ch):
			b.WriteString("  ")
		case revealed[idx]:
			b.WriteRune(ch)
		default:
			b.WriteString("_ ")
		}
	}
	return strings.TrimSpace(b.String())
}

// RevealablePositions returns the rune indices of answer that a reveal tick
// may disclose, i.e. every non-whitespace position.
func RevealablePositions(answer string) []int {
	var positions []int
	for idx, ch := range []rune(answer) {
		if !unicode.IsSpace(ch) {
			positions = append(positions, idx)
		}
	}
	return positions
}
