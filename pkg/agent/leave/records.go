package leave

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/events"
	"virtual-hr-be/pkg/ledger"
)

// records folds the append-only ledger rows of an employee into requests.
// The first row of a request id carries its details; later rows are decisions.
func (a *Agent) records(ctx context.Context, employeeID string) ([]Record, error) {
	rows, err := a.ledger.ReadRows(ctx, ledger.SheetLeave, ledger.Filter{ledger.ColEmployeeID: employeeID})
	if err != nil {
		return nil, fmt.Errorf("read leave rows: %w", err)
	}
	return foldRows(rows), nil
}

func foldRows(rows []ledger.Row) []Record {
	var out []Record
	index := make(map[string]int)

	for i, row := range rows {
		id := row[ledger.ColRequestID]
		if id == "" {
			// rows entered by hand without a request id stand alone
			id = fmt.Sprintf("row-%d", i)
		}

		if pos, seen := index[id]; seen {
			status := Status(row[ledger.ColStatus])
			if status.IsDecision() {
				out[pos].Status = status
				out[pos].DecidedOn = row[ledger.ColApprovalDate]
				out[pos].Comments = row[ledger.ColComments]
			}
			continue
		}

		days, _ := strconv.Atoi(strings.TrimSpace(row[ledger.ColNumDays]))
		status := Status(row[ledger.ColStatus])
		if status == "" {
			status = StatusPending
		}
		index[id] = len(out)
		out = append(out, Record{
			RequestID:    id,
			EmployeeID:   row[ledger.ColEmployeeID],
			EmployeeName: row[ledger.ColEmployeeName],
			Type:         Type(row[ledger.ColLeaveType]),
			StartDate:    row[ledger.ColStartDate],
			EndDate:      row[ledger.ColEndDate],
			Days:         days,
			Reason:       row[ledger.ColComments],
			Status:       status,
			RequestedOn:  row[ledger.ColRequestedOn],
			DecidedOn:    row[ledger.ColApprovalDate],
		})
	}
	return out
}

// usedDays sums approved requests only; pending requests are not reserved.
func usedDays(records []Record, t Type) int {
	total := 0
	for _, r := range records {
		if r.Type == t && r.Status == StatusApproved {
			total += r.Days
		}
	}
	return total
}

func pendingDays(records []Record, t Type) int {
	total := 0
	for _, r := range records {
		if r.Type == t && r.Status == StatusPending {
			total += r.Days
		}
	}
	return total
}

// Balance reports entitlement, usage and remaining days per capped leave type.
func (a *Agent) Balance(ctx context.Context, employeeID string) ([]BalanceLine, error) {
	records, err := a.records(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	var lines []BalanceLine
	for _, t := range Types() {
		limit, capped := a.balances[t]
		if !capped {
			continue
		}
		used := usedDays(records, t)
		lines = append(lines, BalanceLine{
			Type:        t,
			Entitlement: limit,
			Used:        used,
			Pending:     pendingDays(records, t),
			Remaining:   limit - used,
		})
	}
	return lines, nil
}

// BalanceReply renders the balance as a chat reply.
func (a *Agent) BalanceReply(ctx context.Context, employeeID string) (string, error) {
	lines, err := a.Balance(ctx, employeeID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Here is your leave balance:\n")
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("- %s: %d of %d day(s) remaining", l.Type, l.Remaining, l.Entitlement))
		if l.Pending > 0 {
			b.WriteString(fmt.Sprintf(" (%d day(s) pending approval)", l.Pending))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// History lists an employee's requests in submission order.
func (a *Agent) History(ctx context.Context, employeeID string) ([]Record, error) {
	return a.records(ctx, employeeID)
}

// UpdateStatus records an HR decision on a pending request by appending a decision row.
func (a *Agent) UpdateStatus(ctx context.Context, d Decision) (Record, error) {
	if !d.ByHR {
		return Record{}, apperror.ErrForbidden
	}
	if !d.Status.IsDecision() {
		return Record{}, apperror.NewValidationError("status", "must be Approved or Rejected")
	}
	if strings.TrimSpace(d.Reason) == "" {
		return Record{}, apperror.NewValidationError("reason", "a reason is required for every decision")
	}

	records, err := a.records(ctx, d.EmployeeID)
	if err != nil {
		return Record{}, err
	}

	var target *Record
	for i := range records {
		r := &records[i]
		if r.Status != StatusPending {
			continue
		}
		if d.StartDate != "" && r.StartDate != d.StartDate {
			continue
		}
		target = r
		break
	}
	if target == nil {
		return Record{}, fmt.Errorf("%w: no pending leave for employee %s", apperror.ErrNotFound, d.EmployeeID)
	}

	decidedAt := a.now()
	now := decidedAt.Format("2006-01-02 15:04:05")
	row := requestRow(*target)
	row[ledger.ColStatus] = string(d.Status)
	row[ledger.ColApprovalDate] = now
	row[ledger.ColComments] = "HR: " + d.Reason

	if err := a.ledger.AppendRow(ctx, ledger.SheetLeave, row); err != nil {
		return Record{}, fmt.Errorf("append leave decision: %w", err)
	}

	target.Status = d.Status
	target.DecidedOn = now
	target.Comments = row[ledger.ColComments]

	a.logger.Info(module, "Leave decision recorded", map[string]interface{}{
		"request_id":  target.RequestID,
		"employee_id": target.EmployeeID,
		"status":      string(d.Status),
	})
	a.publish(ctx, events.NewLeaveDecided(target.RequestID, target.EmployeeID, string(d.Status), d.Reason, decidedAt))

	return *target, nil
}
