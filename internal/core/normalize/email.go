package normalize

import (
	"regexp"
	"strings"
)

var (
	reEmailLocal  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+$`)
	reEmailDomain = regexp.MustCompile(`^[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	reEmail       = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ordered; each pair is applied to the output of the previous one
var emailSpacingFixes = [][2]string{
	{" ", "."},
	{"..", "."},
	{" .", "."},
	{". ", "."},
}

var emailDomainFixes = [][2]string{
	{"gma1l.", "gmail."},
	{"gmai1.", "gmail."},
	{"yah0o.", "yahoo."},
	{"yaho0.", "yahoo."},
	{"hotma1l.", "hotmail."},
	{"out1ook.", "outlook."},
	{"ema1l.", "email."},
}

// Email lower-cases an address and repairs common OCR damage before
// validating it.
func Email(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	s := CleanWhitespace(strings.ToLower(raw))
	for _, fix := range emailSpacingFixes {
		s = strings.ReplaceAll(s, fix[0], fix[1])
	}
	for _, fix := range emailDomainFixes {
		s = strings.ReplaceAll(s, fix[0], fix[1])
	}

	local, domain, ok := strings.Cut(s, "@")
	if !ok {
		reject("email_address", raw, "missing @")
		return "", false
	}
	if !reEmailLocal.MatchString(local) {
		reject("email_address", raw, "local part")
		return "", false
	}
	if !reEmailDomain.MatchString(domain) && !strings.Contains(domain, ".") {
		s = local + "@" + domain + ".com"
	}
	if !reEmail.MatchString(s) {
		reject("email_address", raw, "pattern")
		return "", false
	}
	return s, true
}
