// Package rag implements the numeric side of retrieval: cosine similarity
// and ranking of the in-memory corpus against a query vector.
package rag

import (
	"math"
	"sort"

	"github.com/arturoeanton/go-rag-relay/internal/domain"
)

// Cosine computes the cosine similarity of two vectors: dot product over
// the product of Euclidean norms. Returns 0 for mismatched lengths or a
// zero-norm vector rather than failing.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every corpus record against the query vector and returns
// them sorted by descending similarity. Ties keep the original corpus
// order. The input slice is never modified.
func Rank(corpus []domain.EmbeddingRecord, query []float32) []domain.RankedDoc {
	ranked := make([]domain.RankedDoc, len(corpus))
	for i, rec := range corpus {
		ranked[i] = domain.RankedDoc{
			EmbeddingRecord: rec,
			Similarity:      Cosine(rec.Vector, query),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	return ranked
}

// TopK returns the first k entries of a ranked list, or the whole list
// when it is shorter than k.
func TopK(ranked []domain.RankedDoc, k int) []domain.RankedDoc {
	if k < 0 {
		k = 0
	}
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
