package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorekeeper-backend/domain/core/entities"
)

func fact(subject, attribute, value string) entities.ExtractedFact {
	return entities.ExtractedFact{Subject: subject, Attribute: attribute, Value: value, Confidence: 1.0}
}

func TestContradicts(t *testing.T) {
	tests := []struct {
		name string
		a    entities.ExtractedFact
		b    entities.ExtractedFact
		want bool
	}{
		{
			name: "case insensitive contradiction",
			a:    fact("favorite color", "is", "blue"),
			b:    fact("Favorite Color", "IS", "Red"),
			want: true,
		},
		{
			name: "same value is support not contradiction",
			a:    fact("favorite color", "is", "blue"),
			b:    fact("favorite color", "is", "Blue"),
			want: false,
		},
		{
			name: "different attribute",
			a:    fact("favorite color", "is", "blue"),
			b:    fact("favorite color", "was", "red"),
			want: false,
		},
		{
			name: "different subject",
			a:    fact("favorite color", "is", "blue"),
			b:    fact("favorite food", "is", "red"),
			want: false,
		},
		{
			name: "whitespace normalized",
			a:    fact(" hometown ", "is", "Austin"),
			b:    fact("hometown", "is", "Denver"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contradicts(tt.a, tt.b))
			// Symmetry holds for every pair.
			assert.Equal(t, Contradicts(tt.a, tt.b), Contradicts(tt.b, tt.a))
		})
	}
}

func TestIsSupportedBy(t *testing.T) {
	a := fact("hometown", "is", "Austin")
	b := fact("Hometown", "IS", "austin")
	c := fact("hometown", "is", "Denver")

	assert.True(t, IsSupportedBy(a, b))
	assert.True(t, IsSupportedBy(b, a))
	assert.False(t, IsSupportedBy(a, c))
}

func TestContradictsAny(t *testing.T) {
	set := []entities.ExtractedFact{
		fact("job", "title", "engineer"),
		fact("hometown", "is", "Austin"),
	}

	assert.True(t, ContradictsAny(fact("hometown", "is", "Denver"), set))
	assert.False(t, ContradictsAny(fact("hometown", "is", "Austin"), set))
	assert.False(t, ContradictsAny(fact("pet", "name", "Milo"), set))
	assert.False(t, ContradictsAny(fact("job", "title", "engineer"), nil))
}

func TestFindAllContradictions(t *testing.T) {
	facts := []entities.ExtractedFact{
		fact("favorite color", "is", "blue"),
		fact("favorite color", "is", "red"),
		fact("favorite color", "is", "green"),
		fact("hometown", "is", "Austin"),
		fact("hometown", "is", "Austin"),
	}

	conflicts := FindAllContradictions(facts)

	require.Len(t, conflicts, 1)
	pairs, ok := conflicts["favorite color:is"]
	require.True(t, ok)
	// Three mutually conflicting values produce exactly the three unordered pairs.
	assert.Len(t, pairs, 3)

	seen := make(map[[2]string]bool)
	for _, pair := range pairs {
		key := [2]string{pair.A.NormalizedValue(), pair.B.NormalizedValue()}
		assert.False(t, seen[key], "pair reported twice: %v", key)
		seen[key] = true
	}
}

func TestIsConsistentMatchesFindAll(t *testing.T) {
	tests := []struct {
		name  string
		facts []entities.ExtractedFact
	}{
		{name: "empty set", facts: nil},
		{
			name:  "single fact",
			facts: []entities.ExtractedFact{fact("a", "b", "c")},
		},
		{
			name: "consistent set",
			facts: []entities.ExtractedFact{
				fact("job", "title", "engineer"),
				fact("job", "company", "initech"),
				fact("hometown", "is", "Austin"),
			},
		},
		{
			name: "conflicting set",
			facts: []entities.ExtractedFact{
				fact("job", "title", "engineer"),
				fact("job", "title", "designer"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, len(FindAllContradictions(tt.facts)) == 0, IsConsistent(tt.facts))
		})
	}
}
