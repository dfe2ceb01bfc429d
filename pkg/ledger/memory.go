package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a process-local ledger used in development and tests.
type Memory struct {
	mu     sync.RWMutex
	sheets map[string][]Row
}

var _ Ledger = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{sheets: make(map[string][]Row)}
}

func (m *Memory) AppendRow(ctx context.Context, sheet string, fields Row) error {
	if Headers(sheet) == nil {
		return fmt.Errorf("unknown sheet %q", sheet)
	}
	row := make(Row, len(fields))
	for k, v := range fields {
		row[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet] = append(m.sheets[sheet], row)
	return nil
}

func (m *Memory) ReadRows(ctx context.Context, sheet string, filter Filter) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Row
	for _, r := range m.sheets[sheet] {
		if filter.Match(r) {
			cp := make(Row, len(r))
			for k, v := range r {
				cp[k] = v
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

// Len reports how many rows a sheet holds.
func (m *Memory) Len(sheet string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sheets[sheet])
}
