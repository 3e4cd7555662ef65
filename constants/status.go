package constants

// RuleID names one of the seven verification rules. The values are the
// stable keys written to results files and the database.
type RuleID string

const (
	RuleNameMatch       RuleID = "rule_1_name_match"
	RuleDOBMatch        RuleID = "rule_2_dob_match"
	RuleAddressMatch    RuleID = "rule_3_address_match"
	RulePhoneMatch      RuleID = "rule_4_phone_match"
	RuleFatherNameMatch RuleID = "rule_5_father_name_match"
	RulePANFormat       RuleID = "rule_6_pan_format"
	RuleAadhaarFormat   RuleID = "rule_7_aadhaar_format"
)

// RuleIDs is the evaluation and reporting order.
var RuleIDs = []RuleID{
	RuleNameMatch,
	RuleDOBMatch,
	RuleAddressMatch,
	RulePhoneMatch,
	RuleFatherNameMatch,
	RulePANFormat,
	RuleAadhaarFormat,
}

// ShortRuleKey returns the "rule_N" prefix used by some ground-truth files.
func ShortRuleKey(id RuleID) string {
	s := string(id)
	for i := len("rule_"); i < len(s); i++ {
		if s[i] == '_' {
			return s[:i]
		}
	}
	return s
}

func (r RuleID) Valid() bool {
	for _, id := range RuleIDs {
		if id == r {
			return true
		}
	}
	return false
}

type RuleStatus string

const (
	RulePass RuleStatus = "PASS"
	RuleFail RuleStatus = "FAIL"
)

type OverallStatus string

const (
	StatusVerified OverallStatus = "VERIFIED"
	StatusFailed   OverallStatus = "FAILED"
)
