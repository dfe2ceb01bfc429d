package vectorstore

import (
	"context"
	"errors"
	"sort"
)

var ErrUnavailable = errors.New("vector store unavailable")

// Chunk is one unit of ingested policy text. Chunks are immutable once written;
// re-ingestion replaces a chunk under the same ID.
type Chunk struct {
	ID               string    `json:"id"`
	DocumentID       string    `json:"document_id"`
	Source           string    `json:"source"`
	Index            int       `json:"index"`
	Text             string    `json:"text"`
	Vector           []float32 `json:"-"`
	EmbeddingVersion string    `json:"embedding_version"`
	Sequence         int64     `json:"sequence"` // ingestion order, used to break score ties
}

type Result struct {
	Chunk Chunk
	Score float32
}

type VectorStore interface {
	Upsert(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, vector []float32, k int) ([]Result, error)
	Count(ctx context.Context) (int, error)

	// PruneDocument drops the chunks of a document whose index is at or past keep,
	// left over from an earlier version that split into more chunks.
	PruneDocument(ctx context.Context, documentID string, keep int) (int, error)

	Close() error
}

// SortResults orders results by descending score, ties by ascending ingestion sequence.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Sequence < results[j].Chunk.Sequence
	})
}
