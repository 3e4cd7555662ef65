package constants

// FieldName is the closed set of identity attributes extracted per document.
type FieldName string

const (
	FullName      FieldName = "full_name"
	FatherName    FieldName = "father_name"
	DateOfBirth   FieldName = "date_of_birth"
	Address       FieldName = "address"
	PhoneNumber   FieldName = "phone_number"
	EmailAddress  FieldName = "email_address"
	AadhaarNumber FieldName = "aadhaar_number"
	PANNumber     FieldName = "pan_number"
	EmployeeID    FieldName = "employee_id"
	AccountNumber FieldName = "account_number"
)

// FieldNames lists every recognized field in a stable order.
var FieldNames = []FieldName{
	FullName,
	FatherName,
	DateOfBirth,
	Address,
	PhoneNumber,
	EmailAddress,
	AadhaarNumber,
	PANNumber,
	EmployeeID,
	AccountNumber,
}

func (f FieldName) Valid() bool {
	_, ok := fieldHints[f]
	return ok
}

// Hint selects the character-confusion table applied to a value.
type Hint string

const (
	HintNumeric      Hint = "numeric"
	HintAlpha        Hint = "alpha"
	HintAlphanumeric Hint = "alphanumeric"
	HintNone         Hint = "none"
)

var fieldHints = map[FieldName]Hint{
	FullName:      HintAlpha,
	FatherName:    HintAlpha,
	DateOfBirth:   HintNumeric,
	Address:       HintNone,
	PhoneNumber:   HintNumeric,
	EmailAddress:  HintNone,
	AadhaarNumber: HintNumeric,
	PANNumber:     HintAlphanumeric,
	EmployeeID:    HintAlphanumeric,
	AccountNumber: HintNumeric,
}

// HintFor returns the correction hint for a field, HintNone when unknown.
func HintFor(f FieldName) Hint {
	if h, ok := fieldHints[f]; ok {
		return h
	}
	return HintNone
}

// Confidence is the extractor's self-reported certainty for one field.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidences; unknown values rank below low.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// Source records who produced a field value. Provider names (e.g. "groq",
// "openai") are also valid sources.
type Source string

const (
	SourceRegex    Source = "regex"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
	SourceError    Source = "error"
)
