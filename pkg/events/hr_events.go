package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TypeLeaveRequested    = "LEAVE_REQUESTED"
	TypeLeaveDecided      = "LEAVE_DECIDED"
	TypeFeedbackSubmitted = "FEEDBACK_SUBMITTED"
)

var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("virtual-hr/events"))

// stableID derives the same id for the same fact.
func stableID(parts ...string) string {
	return uuid.NewSHA1(eventNamespace, []byte(strings.Join(parts, "|"))).String()
}

func NewLeaveRequested(requestID, employeeID, employeeName, leaveType, start, end string, days int, reason string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:   stableID(TypeLeaveRequested, requestID),
		Type: TypeLeaveRequested,
		Data: map[string]interface{}{
			"request_id":    requestID,
			"employee_id":   employeeID,
			"employee_name": employeeName,
			"leave_type":    leaveType,
			"start_date":    start,
			"end_date":      end,
			"num_days":      days,
			"reason":        reason,
		},
		OccurredAt: at,
	}
}

// NewLeaveDecided is keyed on the request alone: a request is decided at most once.
func NewLeaveDecided(requestID, employeeID, status, reason string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:   stableID(TypeLeaveDecided, requestID),
		Type: TypeLeaveDecided,
		Data: map[string]interface{}{
			"request_id":  requestID,
			"employee_id": employeeID,
			"status":      status,
			"reason":      reason,
		},
		OccurredAt: at,
	}
}

// NewFeedbackSubmitted carries no employee identity; feedback may be anonymous.
// An empty submissionID gets a random event id.
func NewFeedbackSubmitted(submissionID, sentiment string, actionItems int, at time.Time) BaseEvent {
	id := uuid.NewString()
	if submissionID != "" {
		id = stableID(TypeFeedbackSubmitted, submissionID)
	}
	return BaseEvent{
		ID:   id,
		Type: TypeFeedbackSubmitted,
		Data: map[string]interface{}{
			"sentiment":    sentiment,
			"action_items": actionItems,
		},
		OccurredAt: at,
	}
}
