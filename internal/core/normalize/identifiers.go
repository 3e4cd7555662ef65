package normalize

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

var (
	rePAN            = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	reNonAlnumUpper  = regexp.MustCompile(`[^A-Z0-9]`)
	reEmployeePrefix = regexp.MustCompile(`(?i)^(EMP|ID|STAFF|EMPLOYEE)[\s\-_]*`)
	reNonEmployeeID  = regexp.MustCompile(`[^A-Z0-9-]`)

	employeeIDReplacer = strings.NewReplacer(
		"O", "0",
		"I", "1",
		"L", "1",
		"S", "5",
		"B", "8",
	)
)

// PANPattern reports whether s is a well-formed PAN (5 letters, 4 digits, 1 letter).
func PANPattern(s string) bool {
	return rePAN.MatchString(s)
}

// PAN upper-cases, repairs and validates a PAN. Case folding happens first
// so the output never contains a letter the correction table would change,
// which keeps the function idempotent.
func PAN(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	s := Correct(strings.ToUpper(raw), constants.HintAlphanumeric)
	s = reNonAlnumUpper.ReplaceAllString(s, "")
	if !rePAN.MatchString(s) {
		reject("pan", raw, "pattern")
		return "", false
	}
	return s, true
}

// Aadhaar returns the 12 digits of an Aadhaar number.
func Aadhaar(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	d := digitsOnly(Correct(raw, constants.HintNumeric))
	if len(d) != 12 {
		reject("aadhaar", raw, "length")
		return "", false
	}
	return d, true
}

// AccountNumber returns the digits of a bank account number (6 to 18 digits).
func AccountNumber(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	d := digitsOnly(Correct(raw, constants.HintNumeric))
	if len(d) < 6 || len(d) > 18 {
		reject("account_number", raw, "length")
		return "", false
	}
	return d, true
}

// EmployeeID strips label prefixes and repairs OCR digit confusions.
func EmployeeID(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	s := CleanWhitespace(strings.ToUpper(raw))
	s = reEmployeePrefix.ReplaceAllString(s, "")
	s = employeeIDReplacer.Replace(s)
	s = reNonEmployeeID.ReplaceAllString(s, "")
	if len(s) < 2 {
		reject("employee_id", raw, "too short")
		return "", false
	}
	return s, true
}
