package domain

// EmbeddingRecord is one precomputed document embedding from the static
// corpus file. Records are immutable after load and shared by all requests.
type EmbeddingRecord struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// RankedDoc is an EmbeddingRecord scored against a query vector.
// Produced transiently per request and discarded after prompt assembly.
type RankedDoc struct {
	EmbeddingRecord
	Similarity float64 `json:"similarity"`
}
