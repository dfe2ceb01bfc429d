package ledger

import (
	"context"
	"strings"
)

// Logical sheet names. Drivers map them to their own storage (spreadsheet id, table rows).
const (
	SheetLeave    = "leave"
	SheetFeedback = "feedback"
)

// Leave tracker columns.
const (
	ColRequestID    = "Request ID"
	ColEmployeeID   = "Employee ID"
	ColEmployeeName = "Employee Name"
	ColLeaveType    = "Leave Type"
	ColStartDate    = "Start Date"
	ColEndDate      = "End Date"
	ColNumDays      = "Number of Days"
	ColStatus       = "Leave Status"
	ColRequestedOn  = "Requested On"
	ColApprovalDate = "Approval Date"
	ColComments     = "Comments/Reason"
)

// Feedback tracker columns.
const (
	ColFeedback    = "Feedback"
	ColSentiment   = "Sentiment"
	ColActionItems = "Action Items"
	ColSubmittedOn = "Submitted On"
	ColSubmission  = "Submission ID"
)

var headers = map[string][]string{
	SheetLeave: {
		ColRequestID, ColEmployeeID, ColEmployeeName, ColLeaveType, ColStartDate, ColEndDate,
		ColNumDays, ColStatus, ColRequestedOn, ColApprovalDate, ColComments,
	},
	SheetFeedback: {
		ColEmployeeID, ColFeedback, ColSentiment, ColActionItems, ColSubmittedOn, ColSubmission,
	},
}

// Headers returns the column order of a sheet, or nil for an unknown sheet.
func Headers(sheet string) []string {
	return headers[sheet]
}

// Row is one ledger line keyed by column header.
type Row map[string]string

// Filter selects rows whose columns equal the given values (trimmed, case-insensitive).
// An empty filter matches every row.
type Filter map[string]string

func (f Filter) Match(r Row) bool {
	for col, want := range f {
		if !strings.EqualFold(strings.TrimSpace(r[col]), strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}

// Ledger is the append/read-only record store backing leave and feedback.
// Implementations wrap transport failures in apperror.ErrLedgerUnavailable.
type Ledger interface {
	AppendRow(ctx context.Context, sheet string, fields Row) error
	ReadRows(ctx context.Context, sheet string, filter Filter) ([]Row, error)
}
