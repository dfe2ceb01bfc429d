package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Kind is the result of one slot-filling step.
type Kind string

const (
	NeedsMore Kind = "NEEDS_MORE"
	Complete  Kind = "COMPLETE"
	Invalid   Kind = "INVALID"

	// Refused ends the flow: nothing the employee types can fix the request.
	Refused Kind = "REFUSED"
)

// Outcome is what a flow agent hands back to the dispatcher. Record is set on Complete.
type Outcome struct {
	Kind   Kind
	Reply  string
	Record interface{}
}

// Turn is the inbound message with its sender.
type Turn struct {
	EmployeeID   string
	EmployeeName string
	Message      string
	Now          time.Time
}

// FlowAgent drives a multi-turn flow. Slots lists the only session keys it may write.
type FlowAgent interface {
	Name() string
	Slots() []string
	Start(ctx context.Context, turn Turn, slots *SlotView) (Outcome, error)
	Continue(ctx context.Context, turn Turn, slots *SlotView) (Outcome, error)
}

var ErrUndeclaredSlot = errors.New("slot not declared by agent")

// SlotView exposes the session slots an agent declared and nothing else.
type SlotView struct {
	owned  map[string]bool
	values map[string]string
}

func NewSlotView(declared []string, current map[string]string) *SlotView {
	v := &SlotView{
		owned:  make(map[string]bool, len(declared)),
		values: make(map[string]string, len(declared)),
	}
	for _, k := range declared {
		v.owned[k] = true
		if val, ok := current[k]; ok {
			v.values[k] = val
		}
	}
	return v
}

func (v *SlotView) Get(key string) string {
	return v.values[key]
}

func (v *SlotView) Has(key string) bool {
	return v.values[key] != ""
}

func (v *SlotView) Set(key, value string) error {
	if !v.owned[key] {
		return fmt.Errorf("%w: %s", ErrUndeclaredSlot, key)
	}
	v.values[key] = value
	return nil
}

func (v *SlotView) Delete(key string) {
	delete(v.values, key)
}

// Snapshot returns a copy of the current values.
func (v *SlotView) Snapshot() map[string]string {
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// Keys returns the filled keys in sorted order.
func (v *SlotView) Keys() []string {
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
