package services

import (
	"lorekeeper-backend/domain/core/entities"
)

// FactPair is one contradicting pair of facts. Pairs are unordered: each
// (i, j) combination is reported exactly once.
type FactPair struct {
	A entities.ExtractedFact
	B entities.ExtractedFact
}

// Contradicts reports whether two facts make incompatible claims: equal
// normalized subject and attribute but different normalized values. The check
// is symmetric.
func Contradicts(a, b entities.ExtractedFact) bool {
	return a.NormalizedSubject() == b.NormalizedSubject() &&
		a.NormalizedAttribute() == b.NormalizedAttribute() &&
		a.NormalizedValue() != b.NormalizedValue()
}

// IsSupportedBy reports whether two facts make the same claim: equal on all
// three normalized fields.
func IsSupportedBy(a, b entities.ExtractedFact) bool {
	return a.NormalizedSubject() == b.NormalizedSubject() &&
		a.NormalizedAttribute() == b.NormalizedAttribute() &&
		a.NormalizedValue() == b.NormalizedValue()
}

// ContradictsAny reports whether the fact conflicts with any member of the
// set, returning on the first hit.
func ContradictsAny(fact entities.ExtractedFact, set []entities.ExtractedFact) bool {
	for _, other := range set {
		if Contradicts(fact, other) {
			return true
		}
	}
	return false
}

// FindAllContradictions scans a fact set and returns conflicting pairs grouped
// by fact signature. Facts are grouped by signature first so the pairwise scan
// only runs within each group.
func FindAllContradictions(facts []entities.ExtractedFact) map[string][]FactPair {
	grouped := make(map[string][]entities.ExtractedFact)
	for _, fact := range facts {
		sig := fact.Signature()
		grouped[sig] = append(grouped[sig], fact)
	}

	conflicts := make(map[string][]FactPair)
	for sig, group := range grouped {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if Contradicts(group[i], group[j]) {
					conflicts[sig] = append(conflicts[sig], FactPair{A: group[i], B: group[j]})
				}
			}
		}
	}
	return conflicts
}

// IsConsistent reports whether no pair of facts in the set contradicts,
// short-circuiting on the first conflict.
func IsConsistent(facts []entities.ExtractedFact) bool {
	bySignature := make(map[string][]entities.ExtractedFact)
	for _, fact := range facts {
		sig := fact.Signature()
		for _, other := range bySignature[sig] {
			if Contradicts(fact, other) {
				return false
			}
		}
		bySignature[sig] = append(bySignature[sig], fact)
	}
	return true
}
