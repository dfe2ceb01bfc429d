package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// PolicyChunk is one embedded slice of an HR policy document.
type PolicyChunk struct {
	Id               string          `gorm:"type:uuid;primaryKey"`
	DocumentId       string          `gorm:"type:varchar(255);not null;index"`
	Source           string          `gorm:"type:varchar(255)"`
	ChunkIndex       int             `gorm:"default:0"`
	Content          string          `gorm:"type:text"`
	EmbeddingValue   pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text uses 768 dimensions
	EmbeddingVersion string          `gorm:"type:varchar(100);not null"`
	Sequence         int64           `gorm:"not null;index"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
}

func (PolicyChunk) TableName() string {
	return "policy_chunks"
}
