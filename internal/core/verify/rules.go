package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/normalize"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

var (
	rePANFormat     = regexp.MustCompile(`^[A-Za-z]{5}[0-9]{4}[A-Za-z]$`)
	reAadhaarFormat = regexp.MustCompile(`^[0-9]{12}$`)
)

type rule struct {
	id    constants.RuleID
	check func(entity.PersonExtraction) entity.RuleResult
}

var rules = []rule{
	{constants.RuleNameMatch, checkNameMatch},
	{constants.RuleDOBMatch, checkDOBMatch},
	{constants.RuleAddressMatch, checkAddressMatch},
	{constants.RulePhoneMatch, checkPhoneMatch},
	{constants.RuleFatherNameMatch, checkFatherNameMatch},
	{constants.RulePANFormat, checkPANFormat},
	{constants.RuleAadhaarFormat, checkAadhaarFormat},
}

// textValues collects the non-empty string values of field, keyed by document.
func textValues(ext entity.PersonExtraction, field constants.FieldName) map[constants.DocumentType]string {
	out := make(map[constants.DocumentType]string)
	for _, dt := range ext.DocumentOrder() {
		f := ext[dt][field]
		if f.Text != nil && *f.Text != "" {
			out[dt] = *f.Text
		}
	}
	return out
}

func asValues(m map[constants.DocumentType]string) map[constants.DocumentType]any {
	out := make(map[constants.DocumentType]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func distinct(m map[constants.DocumentType]string) int {
	seen := make(map[string]struct{}, len(m))
	for _, v := range m {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func result(status constants.RuleStatus, reason string, values map[constants.DocumentType]any) entity.RuleResult {
	return entity.RuleResult{Status: status, Reason: reason, Values: values}
}

func nameRule(ext entity.PersonExtraction, field constants.FieldName, label string) entity.RuleResult {
	names := textValues(ext, field)
	values := asValues(names)
	if len(names) < 2 {
		return result(constants.RuleFail, fmt.Sprintf("Insufficient %s data for comparison", label), values)
	}
	keys := make(map[constants.DocumentType]string, len(names))
	for dt, n := range names {
		keys[dt] = normalize.NameKey(n)
	}
	if n := distinct(keys); n != 1 {
		return result(constants.RuleFail,
			fmt.Sprintf("%s mismatch across documents. Found %d different normalized names", capitalize(label), n), values)
	}
	return result(constants.RulePass, fmt.Sprintf("All document %ss match after normalization", label), values)
}

func checkNameMatch(ext entity.PersonExtraction) entity.RuleResult {
	return nameRule(ext, constants.FullName, "name")
}

func checkFatherNameMatch(ext entity.PersonExtraction) entity.RuleResult {
	return nameRule(ext, constants.FatherName, "father's name")
}

func checkDOBMatch(ext entity.PersonExtraction) entity.RuleResult {
	dobs := textValues(ext, constants.DateOfBirth)
	values := asValues(dobs)
	if len(dobs) < 2 {
		return result(constants.RuleFail, "Insufficient DOB data for comparison", values)
	}
	if n := distinct(dobs); n != 1 {
		return result(constants.RuleFail, fmt.Sprintf("DOB mismatch across documents. Found %d different dates", n), values)
	}
	return result(constants.RulePass, "All document dates of birth match", values)
}

// checkAddressMatch compares (city, state, pincode). Documents whose address
// lacks any component count towards the two-document minimum but are left
// out of the comparison itself.
func checkAddressMatch(ext entity.PersonExtraction) entity.RuleResult {
	values := make(map[constants.DocumentType]any)
	var order []constants.DocumentType
	for _, dt := range ext.DocumentOrder() {
		f := ext[dt][constants.Address]
		if f.NonEmpty() {
			values[dt] = f.Value()
			order = append(order, dt)
		}
	}
	if len(values) < 2 {
		return result(constants.RuleFail, "Insufficient address data for comparison", values)
	}

	complete := make(map[[3]string]struct{})
	var details []string
	for _, dt := range order {
		addr := ext[dt][constants.Address].Address
		if addr == nil {
			continue
		}
		key, ok := normalize.AddressKey(*addr)
		if ok {
			complete[key] = struct{}{}
		}
		details = append(details, fmt.Sprintf("%s: city=%s, state=%s, pincode=%s",
			dt, orNone(key[0]), orNone(key[1]), orNone(key[2])))
	}
	if len(complete) == 1 {
		return result(constants.RulePass, "Address key components (city, state, pincode) match across documents", values)
	}
	return result(constants.RuleFail, "Address key components mismatch. Details: "+strings.Join(details, "; "), values)
}

// phoneKey drops the +91 country code so that local and international
// renderings of the same number compare equal.
func phoneKey(p string) string {
	if strings.HasPrefix(p, "+91") && len(p) == 13 {
		return p[3:]
	}
	return p
}

func checkPhoneMatch(ext entity.PersonExtraction) entity.RuleResult {
	phones := textValues(ext, constants.PhoneNumber)
	for dt, p := range phones {
		phones[dt] = phoneKey(p)
	}
	values := asValues(phones)
	if len(phones) < 2 {
		return result(constants.RuleFail, "Insufficient phone data for comparison", values)
	}
	if n := distinct(phones); n != 1 {
		return result(constants.RuleFail, fmt.Sprintf("Phone number mismatch across documents. Found %d different numbers", n), values)
	}
	return result(constants.RulePass, "All document phone numbers match", values)
}

func formatRule(ext entity.PersonExtraction, field constants.FieldName, label string, valid *regexp.Regexp, passReason string) entity.RuleResult {
	found := textValues(ext, field)
	values := asValues(found)
	if len(found) == 0 {
		return result(constants.RuleFail, fmt.Sprintf("Insufficient data: no %s numbers found in any document", label), values)
	}
	var invalid []string
	for _, dt := range ext.DocumentOrder() {
		if v, ok := found[dt]; ok && !valid.MatchString(v) {
			invalid = append(invalid, string(dt))
		}
	}
	if len(invalid) > 0 {
		return result(constants.RuleFail, fmt.Sprintf("Invalid %s format in documents: %s", label, strings.Join(invalid, ", ")), values)
	}
	return result(constants.RulePass, passReason, values)
}

func checkPANFormat(ext entity.PersonExtraction) entity.RuleResult {
	return formatRule(ext, constants.PANNumber, "PAN", rePANFormat, "All PAN numbers have valid format")
}

func checkAadhaarFormat(ext entity.PersonExtraction) entity.RuleResult {
	return formatRule(ext, constants.AadhaarNumber, "Aadhaar", reAadhaarFormat, "All Aadhaar numbers have valid format (12 digits)")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
