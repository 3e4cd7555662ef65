package normalize

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

var (
	rePincode    = regexp.MustCompile(`\b[1-9][0-9]{5}\b`)
	reHouseStart = regexp.MustCompile(`^(\d+[A-Za-z]?)\b`)
)

// gazetteer entries are matched as case-insensitive substrings, in order
var (
	knownCities = []string{"bangalore", "mumbai", "delhi", "chennai", "kolkata", "hyderabad", "pune"}
	knownStates = []string{"karnataka", "maharashtra", "tamil nadu", "west bengal", "andhra pradesh", "delhi"}
	cityStates  = [][2]string{
		{"bangalore", "Karnataka"},
		{"mumbai", "Maharashtra"},
		{"delhi", "Delhi"},
		{"chennai", "Tamil Nadu"},
		{"kolkata", "West Bengal"},
		{"hyderabad", "Telangana"},
		{"pune", "Maharashtra"},
	}
)

// Address splits a free-form Indian address into its components. It never
// fails; components that cannot be identified are left nil.
func Address(raw string) entity.StructuredAddress {
	var out entity.StructuredAddress
	cleaned := CleanWhitespace(raw)
	if cleaned == "" {
		return out
	}

	if pin := rePincode.FindString(cleaned); pin != "" {
		out.Pincode = optional(pin)
	}
	rest := strings.TrimSpace(rePincode.ReplaceAllString(cleaned, ""))

	parts := strings.Split(rest, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var city, state string
	if len(parts) >= 2 {
		first := parts[0]
		if m := reHouseStart.FindStringSubmatch(first); m != nil {
			out.House = optional(m[1])
			out.Street = optional(strings.TrimSpace(strings.ReplaceAll(first, m[1], "")))
		} else {
			out.Street = optional(first)
		}
		if len(parts) >= 3 {
			city, state = parts[1], parts[2]
		} else {
			city = parts[len(parts)-1]
		}
	} else {
		out.Street = optional(rest)
	}

	if city != "" {
		lower := strings.ToLower(city)
		for _, c := range knownCities {
			if strings.Contains(lower, c) {
				city = titleWords(c)
				break
			}
		}
	}
	if state != "" {
		lower := strings.ToLower(state)
		for _, s := range knownStates {
			if strings.Contains(lower, s) {
				state = titleWords(s)
				break
			}
		}
	} else if city != "" {
		lower := strings.ToLower(city)
		for _, cs := range cityStates {
			if strings.Contains(lower, cs[0]) {
				state = cs[1]
				break
			}
		}
	}
	out.City = optional(city)
	out.State = optional(state)
	return out
}

// AddressKey returns the lower-cased (city, state, pincode) triple used for
// cross-document comparison; ok is false when any component is missing.
func AddressKey(a entity.StructuredAddress) (key [3]string, ok bool) {
	key = [3]string{
		strings.ToLower(strings.TrimSpace(deref(a.City))),
		strings.ToLower(strings.TrimSpace(deref(a.State))),
		strings.TrimSpace(deref(a.Pincode)),
	}
	return key, key[0] != "" && key[1] != "" && key[2] != ""
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
