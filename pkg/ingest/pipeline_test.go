package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/embedding"
	"virtual-hr-be/pkg/vectorstore"
	"virtual-hr-be/pkg/vectorstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	mu       sync.Mutex
	failures map[string]int // text substring -> remaining failures (-1 forever)
	calls    int
}

func (f *fakeEmbedder) Version() string { return "fake/v1" }

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	for marker, left := range f.failures {
		if strings.Contains(text, marker) && left != 0 {
			if left > 0 {
				f.failures[marker] = left - 1
			}
			return nil, embedding.ErrEmbeddingUnavailable
		}
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{float32(len(text)), 1}},
	}, nil
}

type failingStore struct{ *memory.Store }

func (failingStore) Upsert(ctx context.Context, chunks []vectorstore.Chunk) error {
	return vectorstore.ErrUnavailable
}

func testConfig() Config {
	return Config{ChunkSize: 40, ChunkOverlap: 10, MaxAttempts: 3, BatchSize: 2}
}

func policyDoc() Document {
	return Document{
		ID:      "remote-work",
		Source:  "remote_work_policy.md",
		Content: strings.Repeat("Employees may work remotely up to two days per week. ", 5),
	}
}

func TestIngest_ReingestionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	p := NewPipeline(&fakeEmbedder{}, store, testConfig(), logger.NewNop())

	first, err := p.Ingest(ctx, policyDoc())
	require.NoError(t, err)
	countAfterFirst, _ := store.Count(ctx)

	second, err := p.Ingest(ctx, policyDoc())
	require.NoError(t, err)
	countAfterSecond, _ := store.Count(ctx)

	assert.Greater(t, first.Written, 1)
	assert.Equal(t, first.ChunkIDs, second.ChunkIDs)
	assert.Equal(t, first.Written, second.Written)
	assert.Equal(t, countAfterFirst, countAfterSecond)
	assert.Equal(t, first.Written, countAfterSecond)
}

func TestIngest_ChunkIDsAreDeterministic(t *testing.T) {
	assert.Equal(t, ChunkID("doc", 0), ChunkID("doc", 0))
	assert.NotEqual(t, ChunkID("doc", 0), ChunkID("doc", 1))
	assert.NotEqual(t, ChunkID("doc", 0), ChunkID("other", 0))
}

func TestIngest_RetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	emb := &fakeEmbedder{failures: map[string]int{"Employees": 2}}
	p := NewPipeline(emb, store, testConfig(), logger.NewNop())

	report, err := p.Ingest(ctx, Document{ID: "short", Content: "Employees get 20 days."})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, 3, emb.calls)
}

func TestIngest_SkipsChunkAfterRetriesExhausted(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	emb := &fakeEmbedder{failures: map[string]int{"POISON": -1}}
	p := NewPipeline(emb, store, Config{ChunkSize: 20, MaxAttempts: 2, BatchSize: 10}, logger.NewNop())

	doc := Document{ID: "mixed", Content: "first chunk is fine POISON chunk here last chunk is fine"}
	report, err := p.Ingest(ctx, doc)
	require.NoError(t, err)

	assert.NotEmpty(t, report.Skipped)
	assert.Equal(t, report.Chunks, report.Written+len(report.Skipped))
	n, _ := store.Count(ctx)
	assert.Equal(t, report.Written, n)
}

func TestIngest_UpsertFailureAborts(t *testing.T) {
	p := NewPipeline(&fakeEmbedder{}, failingStore{memory.New()}, testConfig(), logger.NewNop())

	_, err := p.Ingest(context.Background(), policyDoc())
	assert.True(t, errors.Is(err, vectorstore.ErrUnavailable))
}

func TestIngest_TagsEmbeddingVersion(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	p := NewPipeline(&fakeEmbedder{}, store, testConfig(), logger.NewNop())

	_, err := p.Ingest(ctx, policyDoc())
	require.NoError(t, err)

	results, err := store.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "fake/v1", r.Chunk.EmbeddingVersion)
		assert.Equal(t, "remote-work", r.Chunk.DocumentID)
	}
}

func TestIngest_RequiresDocumentID(t *testing.T) {
	p := NewPipeline(&fakeEmbedder{}, memory.New(), testConfig(), logger.NewNop())
	_, err := p.Ingest(context.Background(), Document{Content: "text"})
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestIngest_ShorterVersionDropsStaleChunks(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	p := NewPipeline(&fakeEmbedder{}, store, testConfig(), logger.NewNop())

	long, err := p.Ingest(ctx, policyDoc())
	require.NoError(t, err)
	require.Greater(t, long.Written, 1)

	short, err := p.Ingest(ctx, Document{ID: "remote-work", Source: "remote_work_policy.md", Content: "Remote work is paused."})
	require.NoError(t, err)
	assert.Equal(t, 1, short.Written)
	assert.Equal(t, long.Written-1, short.Pruned)

	n, _ := store.Count(ctx)
	assert.Equal(t, 1, n)

	results, err := store.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Remote work is paused.", results[0].Chunk.Text)
}

func TestIngest_EmptyVersionDropsEveryChunk(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	p := NewPipeline(&fakeEmbedder{}, store, testConfig(), logger.NewNop())

	_, err := p.Ingest(ctx, policyDoc())
	require.NoError(t, err)

	report, err := p.Ingest(ctx, Document{ID: "remote-work", Content: "   "})
	require.NoError(t, err)
	assert.Zero(t, report.Chunks)
	n, _ := store.Count(ctx)
	assert.Zero(t, n)
}
