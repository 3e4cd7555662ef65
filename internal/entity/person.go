package entity

import (
	"sort"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

// PersonDocuments locates the document images of one person.
type PersonDocuments struct {
	PersonID  string
	Dir       string
	Documents map[constants.DocumentType]string // absolute image paths
}

// Missing lists the document types without an image, in canonical order.
func (p PersonDocuments) Missing() []constants.DocumentType {
	var out []constants.DocumentType
	for _, dt := range constants.DocumentTypes {
		if _, ok := p.Documents[dt]; !ok {
			out = append(out, dt)
		}
	}
	return out
}

// Complete reports whether all three document types are present.
func (p PersonDocuments) Complete() bool { return len(p.Missing()) == 0 }

// SortPersons orders persons by id.
func SortPersons(ps []PersonDocuments) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].PersonID < ps[j].PersonID })
}
