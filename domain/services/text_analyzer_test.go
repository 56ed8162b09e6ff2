package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	ta := NewDefaultTextAnalyzer()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "splits on punctuation and lowercases",
			text: "Started Training, for the marathon!",
			want: []string{"started", "training", "for", "the", "marathon"},
		},
		{
			name: "drops single characters",
			text: "I a at it",
			want: []string{"at", "it"},
		},
		{
			name: "keeps digits",
			text: "ran 10k in week2",
			want: []string{"ran", "10k", "in", "week2"},
		},
		{name: "empty text", text: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ta.Tokenize(tt.text))
		})
	}
}

func TestExtractKeywordsPreservesDuplicates(t *testing.T) {
	ta := NewDefaultTextAnalyzer()

	keywords := ta.ExtractKeywords("marathon training and more marathon training")
	assert.Equal(t, []string{"marathon", "training", "more", "marathon", "training"}, keywords)
}

func TestKeywordFrequencies(t *testing.T) {
	ta := NewDefaultTextAnalyzer()

	freqs := ta.KeywordFrequencies("guitar practice, guitar lessons, the guitar")
	assert.Equal(t, 3, freqs["guitar"])
	assert.Equal(t, 1, freqs["practice"])
	assert.NotContains(t, freqs, "the")
}

func TestExtractTerms(t *testing.T) {
	ta := NewDefaultTextAnalyzer()

	terms := ta.ExtractTerms("the big marathon run was fun", 3)
	// Only terms strictly longer than 3 chars survive.
	assert.Equal(t, []string{"marathon"}, terms)
}
