package normalize

import (
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

// Phone canonicalizes a phone number to E.164, assuming India (+91) when
// the country code is missing.
func Phone(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	d := digitsOnly(Correct(raw, constants.HintNumeric))
	switch n := len(d); {
	case n == 10:
		return "+91" + d, true
	case n == 11 && d[0] == '0':
		return "+91" + d[1:], true
	case n == 12 && strings.HasPrefix(d, "91"):
		return "+" + d, true
	case n == 13 && !strings.HasPrefix(d, "91"):
		// likely stray leading digits; keep the subscriber number
		return "+91" + d[n-10:], true
	case n >= 10 && n <= 15:
		return "+" + d, true
	}
	reject("phone", raw, "digit count")
	return "", false
}
