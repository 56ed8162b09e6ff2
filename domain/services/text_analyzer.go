package services

import (
	"strings"
	"unicode"
)

// TextAnalyzer provides the text processing primitives shared by the
// continuity detectors.
type TextAnalyzer interface {
	// Tokenize breaks text into ordered lowercase tokens.
	Tokenize(text string) []string

	// ExtractKeywords extracts stopword-filtered keywords preserving order.
	ExtractKeywords(text string) []string

	// KeywordFrequencies counts stopword-filtered keyword occurrences.
	KeywordFrequencies(text string) map[string]int

	// ExtractTerms returns stopword-filtered terms longer than minLength,
	// preserving order and duplicates.
	ExtractTerms(text string, minLength int) []string
}

// DefaultTextAnalyzer implements TextAnalyzer with a fixed English stopword
// set and rune-class tokenization.
type DefaultTextAnalyzer struct {
	stopWords map[string]bool
}

// NewDefaultTextAnalyzer creates a text analyzer with common English stop words.
func NewDefaultTextAnalyzer() *DefaultTextAnalyzer {
	return &DefaultTextAnalyzer{stopWords: defaultStopWords()}
}

// Tokenize breaks text into ordered lowercase tokens, splitting on anything
// that is not a letter or digit. Single characters are dropped.
func (ta *DefaultTextAnalyzer) Tokenize(text string) []string {
	text = strings.ToLower(text)
	tokens := make([]string, 0, len(text)/5)

	var current strings.Builder
	flush := func() {
		if current.Len() > 1 {
			tokens = append(tokens, current.String())
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// ExtractKeywords extracts stopword-filtered keywords from text, preserving
// order and duplicates so callers can count frequencies.
func (ta *DefaultTextAnalyzer) ExtractKeywords(text string) []string {
	tokens := ta.Tokenize(text)
	keywords := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !ta.stopWords[token] && len(token) > 2 {
			keywords = append(keywords, token)
		}
	}
	return keywords
}

// KeywordFrequencies counts keyword occurrences in text.
func (ta *DefaultTextAnalyzer) KeywordFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, kw := range ta.ExtractKeywords(text) {
		freqs[kw]++
	}
	return freqs
}

// ExtractTerms returns stopword-filtered terms strictly longer than minLength.
func (ta *DefaultTextAnalyzer) ExtractTerms(text string, minLength int) []string {
	tokens := ta.Tokenize(text)
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) > minLength && !ta.stopWords[token] {
			terms = append(terms, token)
		}
	}
	return terms
}

// defaultStopWords returns the shared English stopword set.
func defaultStopWords() map[string]bool {
	return map[string]bool{
		"the": true, "be": true, "to": true, "of": true, "and": true,
		"a": true, "in": true, "that": true, "have": true, "i": true,
		"it": true, "for": true, "not": true, "on": true, "with": true,
		"he": true, "as": true, "you": true, "do": true, "at": true,
		"this": true, "but": true, "his": true, "by": true, "from": true,
		"they": true, "we": true, "say": true, "her": true, "she": true,
		"or": true, "an": true, "will": true, "my": true, "one": true,
		"all": true, "would": true, "there": true, "their": true, "what": true,
		"so": true, "up": true, "out": true, "if": true, "about": true,
		"who": true, "get": true, "which": true, "go": true, "me": true,
		"when": true, "make": true, "can": true, "like": true, "time": true,
		"no": true, "just": true, "him": true, "know": true, "take": true,
		"people": true, "into": true, "year": true, "your": true, "good": true,
		"some": true, "could": true, "them": true, "see": true, "other": true,
		"than": true, "then": true, "now": true, "look": true, "only": true,
		"come": true, "its": true, "over": true, "think": true, "also": true,
		"back": true, "after": true, "use": true, "two": true, "how": true,
		"our": true, "work": true, "first": true, "well": true, "way": true,
		"even": true, "new": true, "want": true, "because": true, "any": true,
		"these": true, "give": true, "day": true, "most": true, "us": true,
		"is": true, "was": true, "are": true, "been": true, "has": true,
		"had": true, "were": true, "said": true, "did": true, "having": true,
		"may": true, "am": true, "should": true, "too": true, "very": true,
	}
}
