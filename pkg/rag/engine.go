package rag

import (
	"context"
	"fmt"
	"strings"

	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/embedding"
	"virtual-hr-be/pkg/llm"
	"virtual-hr-be/pkg/rag/prompt"
	"virtual-hr-be/pkg/vectorstore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const module = "RAG"

// NoRelevantPolicy is returned when no excerpt clears the similarity threshold.
const NoRelevantPolicy = "I couldn't find anything in our HR policies that answers that. Please contact HR directly for help."

type Config struct {
	TopK     int
	MinScore float32
}

func DefaultConfig() Config {
	return Config{TopK: 5, MinScore: 0.35}
}

// Source points back at the chunk an answer was grounded on.
type Source struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	ChunkID    string  `json:"chunk_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
}

type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

type Engine struct {
	embedder embedding.EmbeddingProvider
	store    vectorstore.VectorStore
	llm      llm.LLMProvider
	cfg      Config
	logger   logger.ILogger
}

func NewEngine(embedder embedding.EmbeddingProvider, store vectorstore.VectorStore, provider llm.LLMProvider, cfg Config, log logger.ILogger) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	return &Engine{
		embedder: embedder,
		store:    store,
		llm:      provider,
		cfg:      cfg,
		logger:   log,
	}
}

// Answer retrieves policy excerpts for question and asks the model once.
// With no qualifying excerpt the model is not called and NoRelevantPolicy is returned.
func (e *Engine) Answer(ctx context.Context, question string) (Answer, error) {
	ctx, span := otel.Tracer("virtual-hr/rag").Start(ctx, "rag.Answer")
	defer span.End()

	question = strings.TrimSpace(question)

	resp, err := e.embedder.Generate(ctx, question, embedding.TaskRetrievalQuery)
	if err != nil {
		span.RecordError(err)
		return Answer{}, fmt.Errorf("%w: embed question: %v", apperror.ErrRetrievalUnavailable, err)
	}

	hits, err := e.store.Search(ctx, resp.Embedding.Values, e.cfg.TopK)
	if err != nil {
		span.RecordError(err)
		return Answer{}, fmt.Errorf("%w: search: %v", apperror.ErrRetrievalUnavailable, err)
	}

	excerpts := e.qualify(hits)
	span.SetAttributes(
		attribute.Int("rag.hits", len(hits)),
		attribute.Int("rag.excerpts", len(excerpts)),
	)

	if len(excerpts) == 0 {
		e.logger.Info(module, "No policy excerpt above threshold", map[string]interface{}{
			"hits":      len(hits),
			"min_score": e.cfg.MinScore,
		})
		return Answer{Text: NoRelevantPolicy}, nil
	}

	text, err := e.llm.Generate(ctx, prompt.NewPolicyBuilder(question, excerpts).Build(), llm.WithTemperature(0.2))
	if err != nil {
		span.RecordError(err)
		return Answer{}, fmt.Errorf("%w: %v", apperror.ErrGenerationUnavailable, err)
	}

	sources := make([]Source, len(excerpts))
	for i, r := range excerpts {
		sources[i] = Source{
			DocumentID: r.Chunk.DocumentID,
			Source:     r.Chunk.Source,
			ChunkID:    r.Chunk.ID,
			ChunkIndex: r.Chunk.Index,
			Score:      r.Score,
		}
	}

	return Answer{Text: strings.TrimSpace(text), Sources: sources}, nil
}

// qualify drops excerpts from a different embedding space or below the threshold,
// then orders by score with ingestion order breaking ties.
func (e *Engine) qualify(hits []vectorstore.Result) []vectorstore.Result {
	version := e.embedder.Version()
	out := make([]vectorstore.Result, 0, len(hits))
	mismatched := 0

	for _, h := range hits {
		if h.Chunk.EmbeddingVersion != version {
			mismatched++
			continue
		}
		if h.Score < e.cfg.MinScore {
			continue
		}
		out = append(out, h)
	}

	if mismatched > 0 {
		e.logger.Warn(module, "Ignoring chunks from another embedding version", map[string]interface{}{
			"expected": version,
			"count":    mismatched,
		})
	}

	vectorstore.SortResults(out)
	if len(out) > e.cfg.TopK {
		out = out[:e.cfg.TopK]
	}
	return out
}
