package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotView_ScopesToDeclaredKeys(t *testing.T) {
	session := map[string]string{"leave_type": "Annual", "feedback": "someone else's"}
	v := NewSlotView([]string{"leave_type", "start_date"}, session)

	assert.Equal(t, "Annual", v.Get("leave_type"))
	assert.Empty(t, v.Get("feedback"), "undeclared keys are not visible")

	assert.NoError(t, v.Set("start_date", "2026-01-15"))
	err := v.Set("feedback", "overwrite")
	assert.True(t, errors.Is(err, ErrUndeclaredSlot))

	snap := v.Snapshot()
	assert.Equal(t, map[string]string{"leave_type": "Annual", "start_date": "2026-01-15"}, snap)
	assert.Equal(t, []string{"leave_type", "start_date"}, v.Keys())

	// the view never writes through to the session map
	assert.Equal(t, "someone else's", session["feedback"])
	_, leaked := session["start_date"]
	assert.False(t, leaked)

	v.Delete("start_date")
	assert.False(t, v.Has("start_date"))
}
