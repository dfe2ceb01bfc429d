package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/embedding"
	"virtual-hr-be/pkg/utils"
	"virtual-hr-be/pkg/vectorstore"

	"github.com/google/uuid"
)

const module = "INGEST"

var ErrInvalidDocument = errors.New("invalid document")

// chunkNamespace scopes the name-based UUIDs given to policy chunks.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("virtual-hr/policy-chunk"))

// Document is a policy document submitted for indexing.
type Document struct {
	ID      string `json:"document_id"`
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Report describes the outcome of one ingestion run.
type Report struct {
	DocumentID string   `json:"document_id"`
	Chunks     int      `json:"chunks"`
	Written    int      `json:"written"`
	Skipped    []int    `json:"skipped,omitempty"` // chunk indexes that could not be embedded
	Pruned     int      `json:"pruned,omitempty"`  // chunks of an earlier, longer version removed
	ChunkIDs   []string `json:"chunk_ids"`
}

type Config struct {
	ChunkSize    int
	ChunkOverlap int
	MaxAttempts  int
	RetryBackoff time.Duration
	BatchSize    int
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MaxAttempts:  3,
		RetryBackoff: 500 * time.Millisecond,
		BatchSize:    10,
	}
}

type Pipeline struct {
	embedder embedding.EmbeddingProvider
	store    vectorstore.VectorStore
	cfg      Config
	logger   logger.ILogger
	now      func() time.Time
}

func NewPipeline(embedder embedding.EmbeddingProvider, store vectorstore.VectorStore, cfg Config, log logger.ILogger) *Pipeline {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &Pipeline{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
	}
}

// ChunkID derives the stable id of chunk index within a document.
func ChunkID(documentID string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s#%d", documentID, index))).String()
}

// Ingest splits, embeds and upserts a document. A chunk whose embedding keeps failing
// is skipped and reported instead of aborting the run. Upsert failures abort.
// Chunks of an earlier version past the new chunk count are removed once all
// upserts have landed.
func (p *Pipeline) Ingest(ctx context.Context, doc Document) (Report, error) {
	report := Report{DocumentID: doc.ID}
	if strings.TrimSpace(doc.ID) == "" {
		return report, fmt.Errorf("%w: document id is required", ErrInvalidDocument)
	}

	texts := utils.SplitText(doc.Content, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	report.Chunks = len(texts)
	if len(texts) == 0 {
		return report, p.prune(ctx, doc.ID, 0, &report)
	}

	version := p.embedder.Version()
	base := p.now().UnixMilli() * 1_000_000

	batch := make([]vectorstore.Chunk, 0, p.cfg.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.store.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("upsert batch for %s: %w", doc.ID, err)
		}
		for _, c := range batch {
			report.ChunkIDs = append(report.ChunkIDs, c.ID)
		}
		report.Written += len(batch)
		batch = batch[:0]
		return nil
	}

	for i, text := range texts {
		vector, err := p.embedWithRetry(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			p.logger.Warn(module, "Skipping chunk after failed embedding", map[string]interface{}{
				"document_id": doc.ID,
				"chunk_index": i,
				"error":       err.Error(),
			})
			report.Skipped = append(report.Skipped, i)
			continue
		}

		batch = append(batch, vectorstore.Chunk{
			ID:               ChunkID(doc.ID, i),
			DocumentID:       doc.ID,
			Source:           doc.Source,
			Index:            i,
			Text:             text,
			Vector:           vector,
			EmbeddingVersion: version,
			Sequence:         base + int64(i),
		})
		if len(batch) >= p.cfg.BatchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		return report, err
	}
	if err := p.prune(ctx, doc.ID, len(texts), &report); err != nil {
		return report, err
	}

	p.logger.Info(module, "Document ingested", map[string]interface{}{
		"document_id": doc.ID,
		"chunks":      report.Chunks,
		"written":     report.Written,
		"skipped":     len(report.Skipped),
		"pruned":      report.Pruned,
	})
	return report, nil
}

func (p *Pipeline) prune(ctx context.Context, documentID string, keep int, report *Report) error {
	n, err := p.store.PruneDocument(ctx, documentID, keep)
	if err != nil {
		return fmt.Errorf("prune stale chunks of %s: %w", documentID, err)
	}
	report.Pruned = n
	return nil
}

func (p *Pipeline) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		resp, err := p.embedder.Generate(ctx, text, embedding.TaskRetrievalDocument)
		if err == nil {
			return resp.Embedding.Values, nil
		}
		lastErr = err

		if attempt == p.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}
