package store

import "time"

// State is the conversation state of a session. Exactly one is active at a time.
type State string

const (
	StateIdle                 State = "IDLE"
	StateAwaitingLeaveFields  State = "AWAITING_LEAVE_FIELDS"
	StateAwaitingFeedbackText State = "AWAITING_FEEDBACK_TEXT"
)

func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateAwaitingLeaveFields, StateAwaitingFeedbackText:
		return true
	}
	return false
}

// IsMidFlow reports whether the state belongs to an unfinished multi-turn flow.
func (s State) IsMidFlow() bool {
	return s == StateAwaitingLeaveFields || s == StateAwaitingFeedbackText
}

// Message is one line of the bounded conversation log.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnRecord remembers the last handled message so a redelivery can be answered
// without running the turn again. State is the session state the turn ended in.
type TurnRecord struct {
	Fingerprint string    `json:"fingerprint"`
	Reply       string    `json:"reply"`
	At          time.Time `json:"at"`
	State       State     `json:"state,omitempty"`
}

// Replayable reports whether msg, seen at now, is a redelivery of this turn.
// A turn that left a flow open is never replayed, since the same text may answer
// the next slot.
func (t *TurnRecord) Replayable(fingerprint string, now time.Time, window time.Duration) bool {
	if t == nil || t.State.IsMidFlow() {
		return false
	}
	return t.Fingerprint == fingerprint && now.Sub(t.At) <= window
}

// Session represents the per-employee conversation state
type Session struct {
	EmployeeID   string            `json:"employee_id"`
	EmployeeName string            `json:"employee_name"`
	State        State             `json:"state"`
	Slots        map[string]string `json:"slots"`
	LastAgent    string            `json:"last_agent"`
	LastActive   time.Time         `json:"last_active"`
	CreatedAt    time.Time         `json:"created_at"`

	// Version is the optimistic lock; stores reject a save whose version is stale.
	Version int64 `json:"version"`

	History  []Message   `json:"history"`
	LastTurn *TurnRecord `json:"last_turn,omitempty"`
}

func NewSession(employeeID, employeeName string, now time.Time) *Session {
	return &Session{
		EmployeeID:   employeeID,
		EmployeeName: employeeName,
		State:        StateIdle,
		Slots:        map[string]string{},
		LastActive:   now,
		CreatedAt:    now,
	}
}

// Clone returns a deep copy so a turn can be worked on and discarded on failure.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Slots = make(map[string]string, len(s.Slots))
	for k, v := range s.Slots {
		cp.Slots[k] = v
	}
	cp.History = append([]Message(nil), s.History...)
	if s.LastTurn != nil {
		lt := *s.LastTurn
		cp.LastTurn = &lt
	}
	return &cp
}

// AppendHistory adds a message and keeps at most limit entries.
func (s *Session) AppendHistory(msg Message, limit int) {
	s.History = append(s.History, msg)
	if limit > 0 && len(s.History) > limit {
		s.History = append([]Message(nil), s.History[len(s.History)-limit:]...)
	}
}
