package nats

import (
	"encoding/json"
	"testing"
	"time"

	"virtual-hr-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	at := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	ev := events.NewLeaveDecided("req-1", "EMP001", "Approved", "enjoy", at)

	raw, err := json.Marshal(envelope{ID: ev.EventID(), Type: ev.EventType(), Data: ev.Payload(), OccurredAt: ev.Timestamp()})
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID(), decoded.EventID())
	assert.Equal(t, events.TypeLeaveDecided, decoded.EventType())
	assert.Equal(t, "EMP001", decoded.Payload()["employee_id"])
	assert.True(t, at.Equal(decoded.Timestamp()))

	_, err = Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "hr.events.LEAVE_REQUESTED", Subject(events.TypeLeaveRequested))
}
