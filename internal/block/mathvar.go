package block

import "strings"

const (
	italicSmallA   = 0x1D44E
	italicCapitalA = 0x1D434
	// U+1D455 is unassigned; italic h lives in the letterlike block.
	italicSmallH = 0x210E
	minusSign    = 0x2212
)

// MathVar rewrites ASCII letters as mathematical italic and '-' as the
// minus sign. Other runes pass through.
func MathVar(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteRune(mathRune(r))
	}
	return b.String()
}

func mathRune(r rune) rune {
	switch {
	case r == 'h':
		return italicSmallH
	case r >= 'a' && r <= 'z':
		return italicSmallA + (r - 'a')
	case r >= 'A' && r <= 'Z':
		return italicCapitalA + (r - 'A')
	case r == '-':
		return minusSign
	}
	return r
}
