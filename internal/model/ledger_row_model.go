package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LedgerRow stores one append-only ledger line; Fields holds the column -> value map.
type LedgerRow struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Sheet     string         `gorm:"type:varchar(50);not null;index:idx_ledger_rows_sheet_seq,priority:1"`
	Seq       int64          `gorm:"type:bigserial;<-:false;index:idx_ledger_rows_sheet_seq,priority:2"` // assigned by the database
	Fields    datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (LedgerRow) TableName() string {
	return "ledger_rows"
}
