package implementation

import (
	"context"
	"encoding/json"
	"fmt"

	"virtual-hr-be/internal/model"
	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/ledger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LedgerRepositoryImpl stores ledger rows in postgres as JSONB, preserving append order.
type LedgerRepositoryImpl struct {
	db *gorm.DB
}

var _ ledger.Ledger = (*LedgerRepositoryImpl)(nil)

func NewLedgerRepository(db *gorm.DB) *LedgerRepositoryImpl {
	return &LedgerRepositoryImpl{db: db}
}

func (r *LedgerRepositoryImpl) AppendRow(ctx context.Context, sheet string, fields ledger.Row) error {
	if ledger.Headers(sheet) == nil {
		return fmt.Errorf("unknown sheet %q", sheet)
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	m := &model.LedgerRow{
		Sheet:  sheet,
		Fields: datatypes.JSON(raw),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrLedgerUnavailable, err)
	}
	return nil
}

func (r *LedgerRepositoryImpl) ReadRows(ctx context.Context, sheet string, filter ledger.Filter) ([]ledger.Row, error) {
	var models []*model.LedgerRow
	err := r.db.WithContext(ctx).
		Where("sheet = ?", sheet).
		Order("seq ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrLedgerUnavailable, err)
	}

	var out []ledger.Row
	for _, m := range models {
		var row ledger.Row
		if err := json.Unmarshal(m.Fields, &row); err != nil {
			return nil, fmt.Errorf("decode ledger row %s: %w", m.Id, err)
		}
		if filter.Match(row) {
			out = append(out, row)
		}
	}
	return out, nil
}
