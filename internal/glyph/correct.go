package glyph

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Corrector applies positional look-alike substitutions to plate text.
type Corrector struct {
	// LetterCount is the length of the leading letter segment.
	LetterCount int

	// ToLetter remaps characters in the letter segment.
	ToLetter map[rune]rune

	// ToDigit remaps characters in the numeric segment.
	ToDigit map[rune]rune
}

// NewCorrector returns a corrector for plates whose first letterCount
// characters are letters, with the 0/O, 1/I, 6/G and 8/B tables.
func NewCorrector(letterCount int) *Corrector {
	return &Corrector{
		LetterCount: letterCount,
		ToLetter:    map[rune]rune{'0': 'O', '1': 'I', '6': 'G', '8': 'B'},
		ToDigit:     map[rune]rune{'O': '0', 'I': '1', 'G': '6', 'B': '8'},
	}
}

// Correct returns text with the substitution tables applied to each segment.
// Characters with no table entry are kept as they are.
func (c *Corrector) Correct(text string) string {
	runes := []rune(text)
	for i, r := range runes {
		table := c.ToDigit
		if i < c.LetterCount {
			table = c.ToLetter
		}
		if sub, ok := table[r]; ok {
			runes[i] = sub
		}
	}
	return string(runes)
}

// WellFormed checks a corrected reading against the expected plate shape:
// exactly length characters, the last length-letterCount of them digits.
// It returns ErrEmptyReading or ErrMalformedReading (wrapped) otherwise.
func WellFormed(text string, length, letterCount int) error {
	runes := []rune(text)
	if len(runes) == 0 {
		return ErrEmptyReading
	}
	if len(runes) != length {
		return errors.Wrapf(ErrMalformedReading, "%q has %d characters, want %d", text, len(runes), length)
	}
	trailing := runes[min(letterCount, len(runes)):]
	if strings.IndexFunc(string(trailing), func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return errors.Wrapf(ErrMalformedReading, "%q: trailing segment %q is not numeric", text, string(trailing))
	}
	return nil
}
