package leave

import "strings"

// Type is a leave category offered by the company.
type Type string

const (
	Annual      Type = "Annual"
	Sick        Type = "Sick"
	Personal    Type = "Personal"
	Maternity   Type = "Maternity"
	Paternity   Type = "Paternity"
	Marriage    Type = "Marriage"
	Bereavement Type = "Bereavement"
)

// Types lists leave types in display order.
func Types() []Type {
	return []Type{Annual, Sick, Personal, Maternity, Paternity, Marriage, Bereavement}
}

// DefaultBalances are yearly entitlements in days. Bereavement is not capped.
func DefaultBalances() map[Type]int {
	return map[Type]int{
		Annual:    20,
		Sick:      10,
		Personal:  5,
		Maternity: 90,
		Paternity: 15,
		Marriage:  5,
	}
}

var typeKeywords = []struct {
	word string
	t    Type
}{
	{"annual", Annual},
	{"vacation", Annual},
	{"holiday", Annual},
	{"sick", Sick},
	{"medical", Sick},
	{"personal", Personal},
	{"casual", Personal},
	{"maternity", Maternity},
	{"paternity", Paternity},
	{"marriage", Marriage},
	{"wedding", Marriage},
	{"bereavement", Bereavement},
	{"funeral", Bereavement},
}

// ParseType finds a leave type named in free text.
func ParseType(text string) (Type, bool) {
	lower := strings.ToLower(text)
	for _, k := range typeKeywords {
		if strings.Contains(lower, k.word) {
			return k.t, true
		}
	}
	return "", false
}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Record is a leave request as seen through the ledger: the request row with the
// status of its latest decision row applied.
type Record struct {
	RequestID    string `json:"request_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Type         Type   `json:"leave_type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Days         int    `json:"num_days"`
	Reason       string `json:"reason,omitempty"`
	Status       Status `json:"status"`
	RequestedOn  string `json:"requested_on"`
	DecidedOn    string `json:"decided_on,omitempty"`
	Comments     string `json:"comments,omitempty"`
}

// BalanceLine is the standing of one leave type for an employee.
type BalanceLine struct {
	Type        Type `json:"leave_type"`
	Entitlement int  `json:"entitlement"`
	Used        int  `json:"used"`
	Pending     int  `json:"pending"`
	Remaining   int  `json:"remaining"`
}

// Decision is an HR approval or rejection of a pending request.
type Decision struct {
	EmployeeID string
	Status     Status
	Reason     string
	StartDate  string // optional, picks one of several pending requests
	ByHR       bool
}
