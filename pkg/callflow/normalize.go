package callflow

import (
	"fmt"
	"strings"
)

const (
	// Utterances whose digit projection falls in this range are treated as
	// numeric answers.
	minNumericDigits = 5
	maxNumericDigits = 12

	// nationalIDDigits is the length of an Israeli ID number.
	nationalIDDigits = 9
)

// AnnotateDigits appends an explicit digit count and digit string when the
// utterance is a numeric answer with exactly nine digits, which is what a
// spoken ID number looks like after transcription ("1 2 3 45 6789"). Other
// utterances are returned unchanged.
func AnnotateDigits(utterance string) string {
	digits := digitsOnly(utterance)
	n := len(digits)
	if n < minNumericDigits || n > maxNumericDigits {
		return utterance
	}
	if n != nationalIDDigits {
		return utterance
	}
	return fmt.Sprintf("%s (זה %d ספרות: %s)", utterance, n, digits)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
