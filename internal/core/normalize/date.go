package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthNumbers = map[string]string{
	"jan": "01", "january": "01",
	"feb": "02", "february": "02",
	"mar": "03", "march": "03",
	"apr": "04", "april": "04",
	"may": "05",
	"jun": "06", "june": "06",
	"jul": "07", "july": "07",
	"aug": "08", "august": "08",
	"sep": "09", "sept": "09", "september": "09",
	"oct": "10", "october": "10",
	"nov": "11", "november": "11",
	"dec": "12", "december": "12",
}

var (
	reHasLetter = regexp.MustCompile(`[A-Za-z]`)
	reDaySuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	reOrdinal   = regexp.MustCompile(`(?i)(st|nd|rd|th)$`)
	reFourDigit = regexp.MustCompile(`^\d{4}$`)
	reTwoDigit  = regexp.MustCompile(`^\d{2}$`)
)

// dateStrategy matches one positional layout. Each strategy is total: a
// non-match or an invalid calendar date just yields false.
type dateStrategy struct {
	name string
	re   *regexp.Regexp
}

// dateStrategies are tried in order; the first valid date wins. Numeric
// layouts only match whole digit runs, so "2020-01-12" is never read as
// "20-01-12".
var dateStrategies = []dateStrategy{
	{"dd-mm-yyyy", regexp.MustCompile(`(?:^|\D)(\d{1,2})[-/](\d{1,2})[-/](\d{2,4})(?:\D|$)`)},
	{"yyyy-mm-dd", regexp.MustCompile(`(?:^|\D)(\d{2,4})[-/](\d{1,2})[-/](\d{1,2})(?:\D|$)`)},
	{"dd month yyyy", regexp.MustCompile(`(?i)(\d{1,2})\s+(\w+)\s+(\d{2,4})`)},
	{"dd-month-yy", regexp.MustCompile(`(?i)(\d{1,2})[-\s](\w+)[-/\s](\d{2,4})`)},
	{"month dd, yyyy", regexp.MustCompile(`(?i)(\w+)\s+(\d{1,2}),?\s+(\d{2,4})`)},
}

// Date returns the ISO form (YYYY-MM-DD) of a date written in any of the
// supported layouts.
func Date(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	cleaned := strings.ReplaceAll(CleanWhitespace(raw), ",", " ")
	cleaned = reDaySuffix.ReplaceAllString(cleaned, "$1")
	for _, s := range dateStrategies {
		if iso, ok := s.parse(cleaned); ok {
			return iso, true
		}
	}
	reject("date_of_birth", raw, "no layout matched")
	return "", false
}

func (s dateStrategy) parse(text string) (string, bool) {
	m := s.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	parts := make([]string, 3)
	for i := range parts {
		parts[i] = reOrdinal.ReplaceAllString(strings.TrimSpace(m[i+1]), "")
	}

	monthIdx := -1
	for i, p := range parts {
		if reHasLetter.MatchString(p) {
			monthIdx = i
			break
		}
	}
	if monthIdx >= 0 {
		return fromMonthName(parts, monthIdx)
	}
	return fromNumeric(parts)
}

func fromMonthName(parts []string, monthIdx int) (string, bool) {
	name := strings.ToLower(parts[monthIdx])
	prefix := name
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	month, ok := monthNumbers[prefix]
	if !ok {
		if month, ok = monthNumbers[name]; !ok {
			return "", false
		}
	}

	rest := make([]int, 0, 2)
	for i := range parts {
		if i != monthIdx {
			rest = append(rest, i)
		}
	}
	// a four-digit token, or a two-digit one too large to be a day, is the
	// year; the later candidate wins when both qualify
	yearIdx := -1
	for _, i := range rest {
		p := parts[i]
		if reFourDigit.MatchString(p) {
			yearIdx = i
		} else if reTwoDigit.MatchString(p) {
			if n, _ := strconv.Atoi(p); n > 31 {
				yearIdx = i
			}
		}
	}
	if yearIdx < 0 {
		yearIdx = rest[len(rest)-1]
	}
	dayIdx := rest[0]
	if dayIdx == yearIdx {
		dayIdx = rest[1]
	}
	return isoDate(expandYear(parts[yearIdx]), month, zeroPad(parts[dayIdx], 2))
}

func fromNumeric(parts []string) (string, bool) {
	a, b, c := parts[0], parts[1], parts[2]
	var year, month, day string
	switch {
	case len(a) == 4:
		year, month, day = a, b, c
	case len(c) == 4:
		day, month, year = a, b, c
	default:
		day, month, year = a, b, expandYear(c)
	}
	return isoDate(zeroPad(year, 4), zeroPad(month, 2), zeroPad(day, 2))
}

// expandYear maps two-digit years into the 2000s.
func expandYear(y string) string {
	y = strings.TrimSpace(y)
	if len(y) == 2 {
		return "20" + y
	}
	return zeroPad(y, 4)
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// isoDate validates the padded components against the calendar.
func isoDate(year, month, day string) (string, bool) {
	if len(year) != 4 || len(month) != 2 || len(day) != 2 {
		return "", false
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return "", false
	}
	return year + "-" + month + "-" + day, true
}
