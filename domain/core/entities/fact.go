package entities

import "strings"

// ExtractedFact is a (subject, attribute, value) triple pulled out of a memory
// component by the upstream extraction pipeline. Facts are the unit compared
// for contradictions.
type ExtractedFact struct {
	Subject    string
	Attribute  string
	Value      string
	Confidence float64
	Context    string
	SourceID   string
}

// NormalizedSubject returns the subject lowered and trimmed for comparison.
func (f ExtractedFact) NormalizedSubject() string {
	return normalizeFactTerm(f.Subject)
}

// NormalizedAttribute returns the attribute lowered and trimmed for comparison.
func (f ExtractedFact) NormalizedAttribute() string {
	return normalizeFactTerm(f.Attribute)
}

// NormalizedValue returns the value lowered and trimmed for comparison.
func (f ExtractedFact) NormalizedValue() string {
	return normalizeFactTerm(f.Value)
}

// Signature groups facts that talk about the same thing. Two facts with equal
// signatures and different normalized values contradict each other.
func (f ExtractedFact) Signature() string {
	return f.NormalizedSubject() + ":" + f.NormalizedAttribute()
}

func normalizeFactTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
