package dispatcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"virtual-hr-be/internal/constant"
	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/agent"
	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/intent"
	"virtual-hr-be/pkg/rag"
	"virtual-hr-be/pkg/session"
	"virtual-hr-be/pkg/state"
	"virtual-hr-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const module = "DISPATCHER"

const (
	agentRouter = "router"
	agentPolicy = "policy"
)

// Classifier resolves the intent of one message.
type Classifier interface {
	Classify(ctx context.Context, message string, view intent.SessionView) (intent.Intent, error)
}

// PolicyAnswerer answers HR policy questions from the indexed documents.
type PolicyAnswerer interface {
	Answer(ctx context.Context, question string) (rag.Answer, error)
}

// LeaveFlow is the leave agent: a slot-filling flow plus the read-only balance lookup.
type LeaveFlow interface {
	agent.FlowAgent
	BalanceReply(ctx context.Context, employeeID string) (string, error)
}

type Config struct {
	// RedeliveryWindow bounds how long an identical message is treated as a redelivery.
	RedeliveryWindow time.Duration
}

func DefaultConfig() Config {
	return Config{RedeliveryWindow: 2 * time.Minute}
}

// Dispatcher owns the conversation state machine. It is the only writer of
// session state; sub-agents see their own slots through an agent.SlotView.
type Dispatcher struct {
	sessions   *session.Manager
	states     *state.Manager
	classifier Classifier
	policy     PolicyAnswerer
	leave      LeaveFlow
	feedback   agent.FlowAgent
	cfg        Config
	logger     logger.ILogger
}

func NewDispatcher(
	sessions *session.Manager,
	states *state.Manager,
	classifier Classifier,
	policy PolicyAnswerer,
	leave LeaveFlow,
	feedback agent.FlowAgent,
	cfg Config,
	log logger.ILogger,
) *Dispatcher {
	return &Dispatcher{
		sessions:   sessions,
		states:     states,
		classifier: classifier,
		policy:     policy,
		leave:      leave,
		feedback:   feedback,
		cfg:        cfg,
		logger:     log,
	}
}

// HandleMessage runs one turn for an employee. Turns of the same employee are
// serialised; the session is saved only when the whole turn succeeds.
// The returned error is non-nil only when the turn could not start (bad input or
// a cancelled context); collaborator outages are turned into replies.
func (d *Dispatcher) HandleMessage(ctx context.Context, employeeID, employeeName, message string) (string, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return "", apperror.NewValidationError("employee_id", "is required")
	}

	ctx, span := otel.Tracer("virtual-hr/dispatcher").Start(ctx, "dispatcher.HandleMessage",
		trace.WithAttributes(attribute.String("hr.employee_id", employeeID)))
	defer span.End()

	unlock, err := d.sessions.Lock(ctx, employeeID)
	if err != nil {
		return "", fmt.Errorf("acquire session lock: %w", err)
	}
	defer unlock()

	stored, err := d.sessions.LoadOrCreate(ctx, employeeID, employeeName)
	if err != nil {
		span.RecordError(err)
		d.logger.Error(module, "Failed to load session", map[string]interface{}{
			"employee_id": employeeID,
			"error":       err,
		})
		return constant.RecoverableReply, nil
	}

	now := d.sessions.Now()
	fp := fingerprint(message)
	if lt := stored.LastTurn; lt.Replayable(fp, now, d.cfg.RedeliveryWindow) {
		d.logger.Info(module, "Redelivered message answered from last turn", map[string]interface{}{
			"employee_id": employeeID,
		})
		return lt.Reply, nil
	}

	working := stored.Clone()
	turn := agent.Turn{
		EmployeeID:   employeeID,
		EmployeeName: working.EmployeeName,
		Message:      message,
		Now:          now,
	}

	reply, err := d.route(ctx, working, turn)
	if err != nil {
		span.RecordError(err)
		return d.failedTurn(employeeID, stored.State, err), nil
	}

	working.AppendHistory(store.Message{Role: constant.ChatMessageRoleUser, Content: message, Timestamp: now}, d.sessions.HistorySize())
	working.AppendHistory(store.Message{Role: constant.ChatMessageRoleAssistant, Content: reply, Timestamp: now}, d.sessions.HistorySize())
	working.LastTurn = &store.TurnRecord{Fingerprint: fp, Reply: reply, At: now, State: working.State}

	// a ledger write may already be committed, so the save outlives a caller disconnect
	if err := d.sessions.Save(context.WithoutCancel(ctx), working); err != nil {
		span.RecordError(err)
		if errors.Is(err, apperror.ErrStateConflict) {
			d.logger.Error(module, "Concurrent turn detected for session", map[string]interface{}{
				"employee_id": employeeID,
				"fatal":       true,
				"error":       err,
			})
			return constant.TryAgainReply, nil
		}
		d.logger.Error(module, "Failed to save session", map[string]interface{}{
			"employee_id": employeeID,
			"error":       err,
		})
		return constant.RecoverableReply, nil
	}

	span.SetAttributes(
		attribute.String("hr.state", string(working.State)),
		attribute.String("hr.agent", working.LastAgent),
	)
	return reply, nil
}

// failedTurn maps a turn error to a reply. The session is left as stored.
func (d *Dispatcher) failedTurn(employeeID string, st store.State, err error) string {
	details := map[string]interface{}{
		"employee_id": employeeID,
		"state":       string(st),
		"error":       err.Error(),
	}

	switch {
	case errors.Is(err, apperror.ErrClassificationUnavailable):
		d.logger.Warn(module, "Classification unavailable, asking to rephrase", details)
		return constant.RephraseReply
	case apperror.IsUnavailable(err):
		d.logger.Warn(module, "Collaborator unavailable, turn discarded", details)
		return constant.RecoverableReply
	default:
		d.logger.Error(module, "Turn failed", details)
		return constant.TryAgainReply
	}
}

// route classifies the message and hands it to exactly one handler.
func (d *Dispatcher) route(ctx context.Context, s *store.Session, turn agent.Turn) (string, error) {
	in, err := d.classifier.Classify(ctx, turn.Message, intent.SessionView{State: s.State})
	if err != nil {
		return "", err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("hr.intent", string(in)))

	d.logger.Debug(module, "Routing turn", map[string]interface{}{
		"employee_id": s.EmployeeID,
		"state":       string(s.State),
		"intent":      string(in),
	})

	switch in {
	case intent.PolicyQuestion:
		return d.handlePolicy(ctx, s, turn)
	case intent.LeaveApplication:
		return d.handleFlow(ctx, s, turn, d.leave, store.StateAwaitingLeaveFields)
	case intent.LeaveBalanceCheck:
		return d.handleBalance(ctx, s)
	case intent.Feedback:
		return d.handleFlow(ctx, s, turn, d.feedback, store.StateAwaitingFeedbackText)
	case intent.Unknown:
		return d.handleUnknown(s, turn), nil
	}
	return "", fmt.Errorf("unhandled intent %q", in)
}

func (d *Dispatcher) handleUnknown(s *store.Session, turn agent.Turn) string {
	if s.State.IsMidFlow() {
		d.logger.Info(module, "Flow cancelled", map[string]interface{}{
			"employee_id": s.EmployeeID,
			"state":       string(s.State),
		})
		d.states.TransitionToIdle(s)
		d.states.RecordAgent(s, agentRouter)
		return constant.CancelledReply
	}
	d.states.RecordAgent(s, agentRouter)
	if intent.IsCancel(turn.Message) {
		return constant.NothingToCancelReply
	}
	return constant.ClarificationReply
}

func (d *Dispatcher) handlePolicy(ctx context.Context, s *store.Session, turn agent.Turn) (string, error) {
	answer, err := d.policy.Answer(ctx, turn.Message)
	if err != nil {
		return "", err
	}
	d.states.RecordAgent(s, agentPolicy)
	return formatAnswer(answer), nil
}

func (d *Dispatcher) handleBalance(ctx context.Context, s *store.Session) (string, error) {
	reply, err := d.leave.BalanceReply(ctx, s.EmployeeID)
	if err != nil {
		return "", err
	}
	d.states.RecordAgent(s, d.leave.Name())
	return reply, nil
}

// handleFlow starts or continues a slot-filling flow and applies its outcome.
func (d *Dispatcher) handleFlow(ctx context.Context, s *store.Session, turn agent.Turn, a agent.FlowAgent, awaiting store.State) (string, error) {
	continuing := s.State == awaiting

	var current map[string]string
	if continuing {
		current = s.Slots
	}
	view := agent.NewSlotView(a.Slots(), current)

	var (
		out agent.Outcome
		err error
	)
	if continuing {
		out, err = a.Continue(ctx, turn, view)
	} else {
		out, err = a.Start(ctx, turn, view)
	}
	if err != nil {
		return "", err
	}

	switch {
	case out.Kind == agent.Refused:
		// a refused start leaves any other open flow as it was
		if continuing {
			d.states.TransitionToIdle(s)
		}
	case out.Kind == agent.Complete:
		d.states.TransitionToIdle(s)
	case awaiting == store.StateAwaitingLeaveFields:
		d.states.TransitionToAwaitingLeaveFields(s, view.Snapshot())
	default:
		d.states.TransitionToAwaitingFeedbackText(s, view.Snapshot())
	}

	d.states.RecordAgent(s, a.Name())
	return out.Reply, nil
}

func formatAnswer(answer rag.Answer) string {
	if len(answer.Sources) == 0 {
		return answer.Text
	}

	seen := make(map[string]bool)
	var names []string
	for _, src := range answer.Sources {
		name := src.Source
		if name == "" {
			name = src.DocumentID
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return answer.Text + "\n\nSources: " + strings.Join(names, ", ")
}

// fingerprint identifies a message regardless of case and spacing.
func fingerprint(message string) string {
	normalised := strings.Join(strings.Fields(strings.ToLower(message)), " ")
	sum := sha256.Sum256([]byte(normalised))
	return hex.EncodeToString(sum[:])
}

// History returns the stored conversation of an employee, oldest first.
func (d *Dispatcher) History(ctx context.Context, employeeID string) ([]store.Message, error) {
	s, err := d.sessions.Peek(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return []store.Message{}, nil
	}
	return s.History, nil
}

// Reset ends any flow and forgets the conversation of an employee.
func (d *Dispatcher) Reset(ctx context.Context, employeeID string) error {
	unlock, err := d.sessions.Lock(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	defer unlock()

	return d.sessions.Reset(ctx, employeeID)
}
