package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Name title-cases a person's name and turns single letters into initials
// ("j doe" becomes "J. Doe"). Empty input yields "".
func Name(raw string) string {
	cleaned := CleanWhitespace(raw)
	if cleaned == "" {
		return ""
	}
	tokens := strings.Fields(cleaned)
	for i, tok := range tokens {
		if utf8.RuneCountInString(tok) == 1 {
			r, _ := utf8.DecodeRuneInString(tok)
			if unicode.IsLetter(r) {
				tokens[i] = string(unicode.ToUpper(r)) + "."
				continue
			}
		}
		tokens[i] = titleWord(tok)
	}
	return strings.Join(tokens, " ")
}

// titleWord upper-cases letters that follow a non-letter and lower-cases the
// rest, so "o'brien" becomes "O'Brien".
func titleWord(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// NameKey is the order-insensitive comparison form of a name: the set of
// lower-cased tokens, sorted and joined with single spaces.
func NameKey(name string) string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, t := range strings.Fields(strings.ToLower(name)) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
