package implementation

import (
	"context"
	"fmt"

	"virtual-hr-be/internal/model"
	"virtual-hr-be/pkg/vectorstore"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PolicyChunkRepositoryImpl is a pgvector-backed vectorstore.VectorStore.
type PolicyChunkRepositoryImpl struct {
	db *gorm.DB
}

var _ vectorstore.VectorStore = (*PolicyChunkRepositoryImpl)(nil)

func NewPolicyChunkRepository(db *gorm.DB) *PolicyChunkRepositoryImpl {
	return &PolicyChunkRepositoryImpl{db: db}
}

func (r *PolicyChunkRepositoryImpl) Upsert(ctx context.Context, chunks []vectorstore.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	models := make([]*model.PolicyChunk, len(chunks))
	for i, c := range chunks {
		models[i] = &model.PolicyChunk{
			Id:               c.ID,
			DocumentId:       c.DocumentID,
			Source:           c.Source,
			ChunkIndex:       c.Index,
			Content:          c.Text,
			EmbeddingValue:   pgvector.NewVector(c.Vector),
			EmbeddingVersion: c.EmbeddingVersion,
			Sequence:         c.Sequence,
		}
	}

	// sequence keeps its first value so ingestion order is stable across re-ingestion
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"document_id", "source", "chunk_index", "content",
			"embedding_value", "embedding_version", "updated_at",
		}),
	}).Create(models).Error
	if err != nil {
		return fmt.Errorf("%w: %v", vectorstore.ErrUnavailable, err)
	}
	return nil
}

func (r *PolicyChunkRepositoryImpl) Search(ctx context.Context, vector []float32, k int) ([]vectorstore.Result, error) {
	if k <= 0 {
		return nil, nil
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	type result struct {
		model.PolicyChunk
		Similarity float64
	}
	var rows []result

	queryVector := pgvector.NewVector(vector)
	err := r.db.WithContext(ctx).
		Table("policy_chunks").
		Select("policy_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Order("similarity DESC, sequence ASC").
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vectorstore.ErrUnavailable, err)
	}

	results := make([]vectorstore.Result, len(rows))
	for i, row := range rows {
		results[i] = vectorstore.Result{
			Chunk: vectorstore.Chunk{
				ID:               row.Id,
				DocumentID:       row.DocumentId,
				Source:           row.Source,
				Index:            row.ChunkIndex,
				Text:             row.Content,
				Vector:           row.EmbeddingValue.Slice(),
				EmbeddingVersion: row.EmbeddingVersion,
				Sequence:         row.Sequence,
			},
			Score: float32(row.Similarity),
		}
	}
	return results, nil
}

func (r *PolicyChunkRepositoryImpl) Count(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.PolicyChunk{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", vectorstore.ErrUnavailable, err)
	}
	return int(count), nil
}

func (r *PolicyChunkRepositoryImpl) PruneDocument(ctx context.Context, documentID string, keep int) (int, error) {
	res := r.db.WithContext(ctx).
		Where("document_id = ? AND chunk_index >= ?", documentID, keep).
		Delete(&model.PolicyChunk{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", vectorstore.ErrUnavailable, res.Error)
	}
	return int(res.RowsAffected), nil
}

// Close is a no-op; the *gorm.DB is owned by the container.
func (r *PolicyChunkRepositoryImpl) Close() error {
	return nil
}
