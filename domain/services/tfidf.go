package services

import (
	"math"
	"sort"
)

// TermScore pairs a term with its TF-IDF score within a corpus.
type TermScore struct {
	Term  string
	Score float64
}

// TFIDFScorer scores terms across a corpus of short documents. Term frequency
// is the raw count across the corpus; document frequency is the number of
// documents containing the term at least once.
type TFIDFScorer struct {
	analyzer      TextAnalyzer
	minTermLength int
}

// NewTFIDFScorer creates a scorer over the given analyzer. Terms must be
// strictly longer than minTermLength characters.
func NewTFIDFScorer(analyzer TextAnalyzer, minTermLength int) *TFIDFScorer {
	if analyzer == nil {
		analyzer = NewDefaultTextAnalyzer()
	}
	return &TFIDFScorer{analyzer: analyzer, minTermLength: minTermLength}
}

// Score computes TF-IDF scores for every qualifying term in the corpus:
// score = tf * ln(totalDocs/df).
func (s *TFIDFScorer) Score(docs []string) map[string]float64 {
	scores := make(map[string]float64)
	if len(docs) == 0 {
		return scores
	}

	termCounts := make(map[string]int)
	docCounts := make(map[string]int)

	for _, doc := range docs {
		terms := s.analyzer.ExtractTerms(doc, s.minTermLength)
		seen := make(map[string]bool, len(terms))
		for _, term := range terms {
			termCounts[term]++
			if !seen[term] {
				docCounts[term]++
				seen[term] = true
			}
		}
	}

	total := float64(len(docs))
	for term, tf := range termCounts {
		df := float64(docCounts[term])
		if df == 0 {
			continue
		}
		scores[term] = float64(tf) * math.Log(total/df)
	}
	return scores
}

// TopTerms returns the n highest-scoring terms in descending score order,
// breaking score ties alphabetically for determinism.
func TopTerms(scores map[string]float64, n int) []TermScore {
	ranked := make([]TermScore, 0, len(scores))
	for term, score := range scores {
		ranked = append(ranked, TermScore{Term: term, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Term < ranked[j].Term
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
