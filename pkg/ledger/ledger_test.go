package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	row := Row{ColEmployeeID: "EMP001", ColStatus: "Pending"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "Empty filter", filter: nil, want: true},
		{name: "Exact", filter: Filter{ColEmployeeID: "EMP001"}, want: true},
		{name: "Case insensitive", filter: Filter{ColStatus: "pending"}, want: true},
		{name: "Mismatch", filter: Filter{ColEmployeeID: "EMP002"}, want: false},
		{name: "Missing column", filter: Filter{ColLeaveType: "Annual"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(row))
		})
	}
}

func TestMemory_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.AppendRow(ctx, SheetLeave, Row{ColEmployeeID: "EMP001", ColLeaveType: "Annual"}))
	require.NoError(t, m.AppendRow(ctx, SheetLeave, Row{ColEmployeeID: "EMP002", ColLeaveType: "Sick"}))
	assert.Error(t, m.AppendRow(ctx, "payroll", Row{}))

	rows, err := m.ReadRows(ctx, SheetLeave, Filter{ColEmployeeID: "EMP001"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Annual", rows[0][ColLeaveType])

	// returned rows are copies
	rows[0][ColLeaveType] = "Sick"
	again, _ := m.ReadRows(ctx, SheetLeave, Filter{ColEmployeeID: "EMP001"})
	assert.Equal(t, "Annual", again[0][ColLeaveType])
	assert.Equal(t, 2, m.Len(SheetLeave))
}
