package intent

import "strings"

// Intent is the closed set of things an employee message can ask for.
type Intent string

const (
	PolicyQuestion    Intent = "POLICY_QUESTION"
	LeaveApplication  Intent = "LEAVE_APPLICATION"
	LeaveBalanceCheck Intent = "LEAVE_BALANCE_CHECK"
	Feedback          Intent = "FEEDBACK"
	Unknown           Intent = "UNKNOWN"
)

// All lists every intent. Dispatch tables are checked against it.
func All() []Intent {
	return []Intent{PolicyQuestion, LeaveApplication, LeaveBalanceCheck, Feedback, Unknown}
}

func (i Intent) IsValid() bool {
	switch i {
	case PolicyQuestion, LeaveApplication, LeaveBalanceCheck, Feedback, Unknown:
		return true
	}
	return false
}

// Parse normalises a label produced by the model. Anything outside the set is Unknown.
func Parse(label string) Intent {
	i := Intent(strings.ToUpper(strings.TrimSpace(label)))
	if !i.IsValid() {
		return Unknown
	}
	return i
}
