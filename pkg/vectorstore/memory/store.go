package memory

import (
	"context"
	"math"
	"sync"

	"virtual-hr-be/pkg/vectorstore"
)

// Store is a brute-force cosine index held in process memory.
type Store struct {
	mu     sync.RWMutex
	chunks map[string]vectorstore.Chunk
}

var _ vectorstore.VectorStore = (*Store)(nil)

func New() *Store {
	return &Store{chunks: make(map[string]vectorstore.Chunk)}
}

func (s *Store) Upsert(ctx context.Context, chunks []vectorstore.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		// the first write fixes the ingestion order
		if existing, ok := s.chunks[c.ID]; ok {
			c.Sequence = existing.Sequence
		}
		vec := make([]float32, len(c.Vector))
		copy(vec, c.Vector)
		c.Vector = vec
		s.chunks[c.ID] = c
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]vectorstore.Result, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	results := make([]vectorstore.Result, 0, len(s.chunks))
	for _, c := range s.chunks {
		results = append(results, vectorstore.Result{Chunk: c, Score: cosine(vector, c.Vector)})
	}
	s.mu.RUnlock()

	vectorstore.SortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *Store) PruneDocument(ctx context.Context, documentID string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, c := range s.chunks {
		if c.DocumentID == documentID && c.Index >= keep {
			delete(s.chunks, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Close() error { return nil }

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
