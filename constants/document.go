package constants

import "strings"

// DocumentType is one of the three document categories collected per person.
type DocumentType string

const (
	GovernmentID     DocumentType = "government_id"
	BankStatement    DocumentType = "bank_statement"
	EmploymentLetter DocumentType = "employment_letter"
)

// DocumentTypes is the fixed evaluation order for documents.
var DocumentTypes = []DocumentType{GovernmentID, BankStatement, EmploymentLetter}

func (d DocumentType) Valid() bool {
	switch d {
	case GovernmentID, BankStatement, EmploymentLetter:
		return true
	}
	return false
}

// ParseDocumentType accepts the canonical key in any case.
func ParseDocumentType(s string) (DocumentType, bool) {
	d := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Valid()
}
