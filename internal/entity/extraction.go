package entity

import (
	"sort"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

// DocumentFields maps every recognized field to its extracted value for one
// document. Builders in this package always populate all ten keys.
type DocumentFields map[constants.FieldName]ExtractedField

// NewDocumentFields returns the all-absent mapping.
func NewDocumentFields(source constants.Source) DocumentFields {
	d := make(DocumentFields, len(constants.FieldNames))
	for _, f := range constants.FieldNames {
		d[f] = EmptyField(source)
	}
	return d
}

// Complete fills any missing recognized field with an absent value and drops
// unknown keys, in place.
func (d DocumentFields) Complete() DocumentFields {
	for k := range d {
		if !k.Valid() {
			delete(d, k)
		}
	}
	for _, f := range constants.FieldNames {
		if _, ok := d[f]; !ok {
			d[f] = EmptyField(constants.SourceNone)
		}
	}
	return d
}

// Clone returns a shallow copy; field values are copied by value.
func (d DocumentFields) Clone() DocumentFields {
	out := make(DocumentFields, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Count returns the number of fields whose value is present.
func (d DocumentFields) Count() int {
	n := 0
	for _, f := range d {
		if f.HasValue() {
			n++
		}
	}
	return n
}

// PersonExtraction holds the per-document fields of one person.
type PersonExtraction map[constants.DocumentType]DocumentFields

// Complete normalizes every document entry so that all ten keys are present.
func (p PersonExtraction) Complete() PersonExtraction {
	for dt, fields := range p {
		if fields == nil {
			fields = NewDocumentFields(constants.SourceNone)
		}
		p[dt] = fields.Complete()
	}
	return p
}

// Count returns the number of present values across all documents.
func (p PersonExtraction) Count() int {
	n := 0
	for _, fields := range p {
		n += fields.Count()
	}
	return n
}

// DocumentOrder returns the document keys with the known types first, in
// their canonical order, followed by any other keys sorted.
func (p PersonExtraction) DocumentOrder() []constants.DocumentType {
	out := make([]constants.DocumentType, 0, len(p))
	for _, dt := range constants.DocumentTypes {
		if _, ok := p[dt]; ok {
			out = append(out, dt)
		}
	}
	var extra []constants.DocumentType
	for dt := range p {
		if !dt.Valid() {
			extra = append(extra, dt)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
