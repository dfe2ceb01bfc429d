package state

import (
	"testing"
	"time"

	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func TestTransitions(t *testing.T) {
	m := NewManager(logger.NewNop())
	s := store.NewSession("EMP001", "Asha", time.Now())

	slots := map[string]string{"leave_type": "Annual"}
	m.TransitionToAwaitingLeaveFields(s, slots)
	assert.Equal(t, store.StateAwaitingLeaveFields, s.State)
	assert.Equal(t, "Annual", s.Slots["leave_type"])

	// the session owns its own copy
	slots["leave_type"] = "Sick"
	assert.Equal(t, "Annual", s.Slots["leave_type"])

	m.UpdateSlots(s, map[string]string{"leave_type": "Annual", "start_date": "2026-01-15"})
	assert.Equal(t, store.StateAwaitingLeaveFields, s.State)
	assert.Len(t, s.Slots, 2)

	m.TransitionToIdle(s)
	assert.Equal(t, store.StateIdle, s.State)
	assert.Empty(t, s.Slots)

	m.TransitionToAwaitingFeedbackText(s, nil)
	assert.Equal(t, store.StateAwaitingFeedbackText, s.State)

	m.RecordAgent(s, "feedback")
	assert.Equal(t, "feedback", s.LastAgent)
}
