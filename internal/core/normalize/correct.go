// Package normalize turns noisy OCR field values into canonical forms.
// Every function here is total: bad input yields a rejection, never an error.
package normalize

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

var (
	// numeric fields: letters that OCR commonly reads in place of digits
	numericReplacer = strings.NewReplacer(
		"O", "0", "o", "0",
		"S", "5", "s", "5",
		"I", "1", "l", "1",
		"B", "8", "Z", "2",
		" ", "",
	)
	// alpha fields: the inverse
	alphaReplacer = strings.NewReplacer(
		"0", "O",
		"5", "S",
		"1", "I",
		"8", "B",
		"2", "Z",
	)
	// mixed strings only get the unambiguous repairs
	conservativeReplacer = strings.NewReplacer(
		"O", "0",
		"l", "1",
		"I", "1",
	)

	reWhitespace = regexp.MustCompile(`\s+`)
	reNonDigit   = regexp.MustCompile(`\D`)
)

// Correct repairs letter/digit confusions in text according to hint.
// The result depends only on its inputs.
func Correct(text string, hint constants.Hint) string {
	if text == "" {
		return text
	}
	var out string
	switch hint {
	case constants.HintNumeric:
		out = numericReplacer.Replace(text)
	case constants.HintAlpha:
		out = alphaReplacer.Replace(text)
	default:
		out = conservativeReplacer.Replace(text)
	}
	if out != text {
		slog.Debug("normalize.correct", "hint", hint, "before", text, "after", out)
	}
	return out
}

// CleanWhitespace collapses whitespace runs into single spaces and trims.
func CleanWhitespace(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

func digitsOnly(s string) string {
	return reNonDigit.ReplaceAllString(s, "")
}

func reject(field, raw, why string) {
	slog.Debug("normalize.reject", "field", field, "raw", raw, "reason", why)
}
