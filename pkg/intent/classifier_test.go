package intent

import (
	"context"
	"errors"
	"testing"

	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/llm"
	"virtual-hr-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

type scriptedLLM struct {
	reply string
	err   error
	calls int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return s.Generate(ctx, "", opts...)
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestIntent_AllValid(t *testing.T) {
	for _, i := range All() {
		assert.True(t, i.IsValid(), i)
	}
	assert.False(t, Intent("GENERAL").IsValid())
	assert.Equal(t, Feedback, Parse(" feedback "))
	assert.Equal(t, Unknown, Parse("GENERAL"))
}

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		state    store.State
		expected Intent
	}{
		{name: "Empty", message: "   ", state: store.StateIdle, expected: Unknown},
		{name: "Leave application", message: "I want to apply for 2 days annual leave starting 2026-01-15", state: store.StateIdle, expected: LeaveApplication},
		{name: "Policy question", message: "What is the remote work policy?", state: store.StateIdle, expected: PolicyQuestion},
		{name: "Leave policy is a policy question", message: "What is the leave policy for new joiners?", state: store.StateIdle, expected: PolicyQuestion},
		{name: "Balance", message: "How many days of annual leave do I have left?", state: store.StateIdle, expected: LeaveBalanceCheck},
		{name: "Balance keyword", message: "check my leave balance", state: store.StateIdle, expected: LeaveBalanceCheck},
		{name: "Feedback prefix", message: "Feedback: the new policy portal is slow", state: store.StateIdle, expected: Feedback},
		{name: "Feedback intent", message: "I have a suggestion about the cafeteria", state: store.StateIdle, expected: Feedback},
		{name: "Cancel while idle", message: "cancel", state: store.StateIdle, expected: Unknown},
		{name: "Mid-flow leave continues", message: "2026-02-01", state: store.StateAwaitingLeaveFields, expected: LeaveApplication},
		{name: "Mid-flow leave ignores other topics", message: "what is the remote work policy?", state: store.StateAwaitingLeaveFields, expected: LeaveApplication},
		{name: "Mid-flow feedback continues", message: "Meetings run too long", state: store.StateAwaitingFeedbackText, expected: Feedback},
		{name: "Cancel mid-flow", message: "Never mind", state: store.StateAwaitingLeaveFields, expected: Unknown},
		{name: "Start over mid-flow", message: "start over please", state: store.StateAwaitingFeedbackText, expected: Unknown},
		{name: "Stop mid-flow", message: "stop", state: store.StateAwaitingLeaveFields, expected: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedLLM{err: llm.ErrServiceUnavailable}
			c := NewClassifier(model, logger.NewNop())

			got, err := c.Classify(context.Background(), tt.message, SessionView{State: tt.state})
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Zero(t, model.calls, "rules should not reach the model")
		})
	}
}

func TestClassify_Model(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		expected Intent
		wantErr  error
	}{
		{name: "JSON verdict", reply: `{"intent": "POLICY_QUESTION"}`, expected: PolicyQuestion},
		{name: "Fenced verdict", reply: "```json\n{\"intent\": \"feedback\"}\n```", expected: Feedback},
		{name: "Label outside set", reply: `{"intent": "PAYROLL"}`, expected: Unknown},
		{name: "Garbage", reply: "I think it is a question", expected: Unknown},
		{name: "Model down", err: llm.ErrServiceUnavailable, expected: Unknown, wantErr: apperror.ErrClassificationUnavailable},
		{name: "Rate limited", err: llm.ErrRateLimited, expected: Unknown, wantErr: apperror.ErrClassificationUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedLLM{reply: tt.reply, err: tt.err}
			c := NewClassifier(model, logger.NewNop())

			got, err := c.Classify(context.Background(), "Hello there, quick one for you", SessionView{State: store.StateIdle})
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, 1, model.calls)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsCancel(t *testing.T) {
	assert.True(t, IsCancel("Cancel"))
	assert.True(t, IsCancel("never mind"))
	assert.True(t, IsCancel("I want to cancel"))
	assert.False(t, IsCancel("stopping by to ask about policy"))
	assert.False(t, IsCancel("how do I cancel a leave request?"))
}
