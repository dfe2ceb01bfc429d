package state

import (
	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/store"
)

const module = "STATE"

// Manager handles session state transitions. The dispatcher is its only caller,
// which keeps it the sole writer of State and LastAgent.
type Manager struct {
	logger logger.ILogger
}

func NewManager(log logger.ILogger) *Manager {
	return &Manager{logger: log}
}

// TransitionToAwaitingLeaveFields starts leave slot-filling with the slots gathered so far.
func (m *Manager) TransitionToAwaitingLeaveFields(session *store.Session, slots map[string]string) {
	m.transition(session, store.StateAwaitingLeaveFields, slots)
}

// TransitionToAwaitingFeedbackText waits for the feedback body.
func (m *Manager) TransitionToAwaitingFeedbackText(session *store.Session, slots map[string]string) {
	m.transition(session, store.StateAwaitingFeedbackText, slots)
}

// TransitionToIdle ends any flow and clears its slots.
func (m *Manager) TransitionToIdle(session *store.Session) {
	m.transition(session, store.StateIdle, nil)
}

// UpdateSlots keeps the current state and replaces the slot map.
func (m *Manager) UpdateSlots(session *store.Session, slots map[string]string) {
	session.Slots = copySlots(slots)
}

// RecordAgent notes which agent handled the turn.
func (m *Manager) RecordAgent(session *store.Session, agent string) {
	session.LastAgent = agent
}

func (m *Manager) transition(session *store.Session, to store.State, slots map[string]string) {
	from := session.State
	session.State = to
	session.Slots = copySlots(slots)

	if from != to {
		m.logger.Debug(module, "Transitioned", map[string]interface{}{
			"employee_id": session.EmployeeID,
			"from":        string(from),
			"to":          string(to),
		})
	}
}

func copySlots(slots map[string]string) map[string]string {
	out := make(map[string]string, len(slots))
	for k, v := range slots {
		out[k] = v
	}
	return out
}
