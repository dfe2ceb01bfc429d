package dispatcher

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"virtual-hr-be/internal/constant"
	"virtual-hr-be/internal/pkg/logger"
	memrepo "virtual-hr-be/internal/repository/memory"
	"virtual-hr-be/pkg/agent"
	"virtual-hr-be/pkg/agent/feedback"
	"virtual-hr-be/pkg/agent/leave"
	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/embedding"
	"virtual-hr-be/pkg/intent"
	"virtual-hr-be/pkg/ledger"
	"virtual-hr-be/pkg/llm"
	"virtual-hr-be/pkg/rag"
	"virtual-hr-be/pkg/session"
	"virtual-hr-be/pkg/state"
	"virtual-hr-be/pkg/store"
	"virtual-hr-be/pkg/vectorstore"
	vsmemory "virtual-hr-be/pkg/vectorstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const embedVersion = "test/v1"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type topicEmbedder struct {
	mu  sync.Mutex
	err error
}

func (e *topicEmbedder) Version() string { return embedVersion }

func (e *topicEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	vec := []float32{0, 0, 1}
	if strings.Contains(strings.ToLower(text), "remote") {
		vec = []float32{1, 0, 0.1}
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: vec}}, nil
}

// scriptedLLM answers by prompt kind.
type scriptedLLM struct {
	mu          sync.Mutex
	err         error
	policyCalls int
}

func (m *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return m.Generate(ctx, history[len(history)-1].Content, opts...)
}

func (m *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	switch {
	case strings.Contains(prompt, "Classify the employee message"):
		return `{"intent": "UNKNOWN"}`, nil
	case strings.Contains(prompt, "Analyse this employee feedback"):
		return `{"sentiment": "Negative", "action_items": ["Review canteen menu"]}`, nil
	}
	m.policyCalls++
	return "Remote work is allowed two days per week with manager approval.", nil
}

// switchLedger fails every call while down is set.
type switchLedger struct {
	*ledger.Memory
	mu   sync.Mutex
	down bool
}

func (l *switchLedger) setDown(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.down = v
}

func (l *switchLedger) isDown() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.down
}

func (l *switchLedger) AppendRow(ctx context.Context, sheet string, fields ledger.Row) error {
	if l.isDown() {
		return apperror.ErrLedgerUnavailable
	}
	return l.Memory.AppendRow(ctx, sheet, fields)
}

func (l *switchLedger) ReadRows(ctx context.Context, sheet string, filter ledger.Filter) ([]ledger.Row, error) {
	if l.isDown() {
		return nil, apperror.ErrLedgerUnavailable
	}
	return l.Memory.ReadRows(ctx, sheet, filter)
}

type conflictRepository struct {
	*memrepo.SessionRepository
}

func (conflictRepository) Save(ctx context.Context, s *store.Session) error {
	return apperror.ErrStateConflict
}

type fixedClassifier struct{ in intent.Intent }

func (c fixedClassifier) Classify(ctx context.Context, message string, view intent.SessionView) (intent.Intent, error) {
	return c.in, nil
}

type harness struct {
	d        *Dispatcher
	sessions *session.Manager
	ledger   *switchLedger
	embedder *topicEmbedder
	model    *scriptedLLM
	clock    *fakeClock
}

func newHarness(t *testing.T, repo session.Repository) *harness {
	t.Helper()
	log := logger.NewNop()

	if repo == nil {
		repo = memrepo.NewSessionRepository(time.Hour, time.Hour)
	}
	clock := &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	sessions := session.NewManager(repo, 30*time.Minute, 100, log).WithClock(clock.Now)

	index := vsmemory.New()
	require.NoError(t, index.Upsert(context.Background(), []vectorstore.Chunk{{
		ID:               "chunk-remote-0",
		DocumentID:       "remote-work",
		Source:           "remote-work.md",
		Text:             "Remote work is allowed two days per week with manager approval.",
		Vector:           []float32{1, 0, 0.1},
		EmbeddingVersion: embedVersion,
		Sequence:         1,
	}}))

	emb := &topicEmbedder{}
	model := &scriptedLLM{}
	l := &switchLedger{Memory: ledger.NewMemory()}

	d := NewDispatcher(
		sessions,
		state.NewManager(log),
		intent.NewClassifier(model, log),
		rag.NewEngine(emb, index, model, rag.DefaultConfig(), log),
		leave.NewAgent(l, nil, regexp.MustCompile(`^EMP\d{3,}$`), nil, log),
		feedback.NewAgent(l, model, nil, true, log),
		DefaultConfig(),
		log,
	)
	return &harness{d: d, sessions: sessions, ledger: l, embedder: emb, model: model, clock: clock}
}

func (h *harness) send(t *testing.T, msg string) string {
	t.Helper()
	h.clock.Advance(time.Second)
	reply, err := h.d.HandleMessage(context.Background(), "EMP001", "Ada", msg)
	require.NoError(t, err)
	return reply
}

func (h *harness) session(t *testing.T) *store.Session {
	t.Helper()
	s, err := h.sessions.Peek(context.Background(), "EMP001")
	require.NoError(t, err)
	return s
}

func TestHandleMessage_LeaveInOneMessage(t *testing.T) {
	h := newHarness(t, nil)

	reply := h.send(t, "I want to apply for 2 days annual leave starting 2026-01-15")
	assert.Contains(t, reply, "has been submitted")

	rows, err := h.ledger.ReadRows(context.Background(), ledger.SheetLeave, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "EMP001", rows[0][ledger.ColEmployeeID])
	assert.Equal(t, "Annual", rows[0][ledger.ColLeaveType])
	assert.Equal(t, "2026-01-15", rows[0][ledger.ColStartDate])
	assert.Equal(t, "2026-01-16", rows[0][ledger.ColEndDate])

	s := h.session(t)
	assert.Equal(t, store.StateIdle, s.State)
	assert.Empty(t, s.Slots)
	assert.Equal(t, "leave", s.LastAgent)
	assert.Len(t, s.History, 2)
}

func TestHandleMessage_LeaveOverSeveralTurns(t *testing.T) {
	h := newHarness(t, nil)

	h.send(t, "I want to apply for leave")
	assert.Equal(t, store.StateAwaitingLeaveFields, h.session(t).State)

	reply := h.send(t, "annual")
	assert.Contains(t, reply, "start")
	s := h.session(t)
	assert.Equal(t, store.StateAwaitingLeaveFields, s.State)
	assert.Equal(t, map[string]string{leave.SlotType: "Annual"}, s.Slots)

	reply = h.send(t, "2026-13-01")
	assert.Contains(t, reply, "not a valid date")
	assert.Equal(t, store.StateAwaitingLeaveFields, h.session(t).State)

	reply = h.send(t, "2026-02-02 for three days")
	assert.Contains(t, reply, "has been submitted")
	assert.Equal(t, store.StateIdle, h.session(t).State)
	assert.Equal(t, 1, h.ledger.Len(ledger.SheetLeave))
}

func TestHandleMessage_CancelResetsWithoutLedgerWrite(t *testing.T) {
	h := newHarness(t, nil)

	h.send(t, "I want to apply for leave")
	h.send(t, "sick leave starting 2026-03-02")
	require.Equal(t, store.StateAwaitingLeaveFields, h.session(t).State)

	reply := h.send(t, "cancel")
	assert.Equal(t, constant.CancelledReply, reply)

	s := h.session(t)
	assert.Equal(t, store.StateIdle, s.State)
	assert.Empty(t, s.Slots)
	assert.Zero(t, h.ledger.Len(ledger.SheetLeave))

	assert.Equal(t, constant.NothingToCancelReply, h.send(t, "never mind"))
}

func TestHandleMessage_PolicyAnswerCitesSources(t *testing.T) {
	h := newHarness(t, nil)

	reply := h.send(t, "What is the remote work policy?")
	assert.Contains(t, reply, "two days per week")
	assert.Contains(t, reply, "Sources: remote-work.md")
	assert.Equal(t, "policy", h.session(t).LastAgent)
	assert.Equal(t, store.StateIdle, h.session(t).State)
}

func TestHandleMessage_OutageLeavesSessionUnchanged(t *testing.T) {
	h := newHarness(t, nil)
	h.embedder.err = embedding.ErrEmbeddingUnavailable
	h.model.err = llm.ErrServiceUnavailable

	reply := h.send(t, "What is the remote work policy?")
	assert.Equal(t, constant.RecoverableReply, reply)
	assert.Nil(t, h.session(t), "nothing is saved for a failed turn")

	h.embedder.err = nil
	h.model.err = nil

	h.send(t, "I want to apply for leave")
	before := h.session(t)

	h.ledger.setDown(true)
	reply = h.send(t, "2 days annual leave starting 2026-01-15")
	assert.Equal(t, constant.RecoverableReply, reply)

	after := h.session(t)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Slots, after.Slots)
	assert.Equal(t, before.History, after.History)

	h.ledger.setDown(false)
	reply = h.send(t, "2 days annual leave starting 2026-01-15")
	assert.Contains(t, reply, "has been submitted")
	assert.Equal(t, 1, h.ledger.Len(ledger.SheetLeave))
}

func TestHandleMessage_ClassifierDownAsksToRephrase(t *testing.T) {
	h := newHarness(t, nil)
	h.model.err = llm.ErrServiceUnavailable

	assert.Equal(t, constant.RephraseReply, h.send(t, "hello there"))
	assert.Nil(t, h.session(t))

	h.model.err = nil
	assert.Equal(t, constant.ClarificationReply, h.send(t, "hello there"))
}

func TestHandleMessage_RedeliveryIsAtMostOnce(t *testing.T) {
	h := newHarness(t, nil)
	msg := "I want to apply for 2 days annual leave starting 2026-01-15"

	first := h.send(t, msg)
	second := h.send(t, msg)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.ledger.Len(ledger.SheetLeave))
	assert.Len(t, h.session(t).History, 2, "a redelivery is not a new turn")

	// outside the redelivery window the turn runs again but the request is recognised
	h.clock.Advance(5 * time.Minute)
	third := h.send(t, msg)
	assert.Contains(t, third, "already have")
	assert.Equal(t, 1, h.ledger.Len(ledger.SheetLeave))
}

func TestHandleMessage_RepeatedSlotAnswerIsNotARedelivery(t *testing.T) {
	h := newHarness(t, nil)

	h.send(t, "I want to apply for annual leave")
	reply := h.send(t, "2026-03-02")
	assert.Contains(t, reply, "How many days")

	// a one-day leave answers the end date with the start date
	reply = h.send(t, "2026-03-02")
	assert.Contains(t, reply, "has been submitted")

	s := h.session(t)
	assert.Equal(t, store.StateIdle, s.State)
	assert.Empty(t, s.Slots)

	rows, err := h.ledger.ReadRows(context.Background(), ledger.SheetLeave, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-03-02", rows[0][ledger.ColStartDate])
	assert.Equal(t, "2026-03-02", rows[0][ledger.ColEndDate])
	assert.Equal(t, "1", rows[0][ledger.ColNumDays])
}

func TestHandleMessage_RefusedLeaveDoesNotTrapSession(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	reply, err := h.d.HandleMessage(ctx, "bob", "Bob", "I want to apply for 2 days annual leave starting 2026-01-15")
	require.NoError(t, err)
	assert.Contains(t, reply, "employee ID")

	s, err := h.sessions.Peek(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, store.StateIdle, s.State)
	assert.Empty(t, s.Slots)

	h.clock.Advance(time.Second)
	reply, err = h.d.HandleMessage(ctx, "bob", "Bob", "What is the remote work policy?")
	require.NoError(t, err)
	assert.Contains(t, reply, "two days per week")
	assert.Zero(t, h.ledger.Len(ledger.SheetLeave))
}

func TestHandleMessage_FeedbackFlow(t *testing.T) {
	h := newHarness(t, nil)

	h.send(t, "I want to give feedback")
	assert.Equal(t, store.StateAwaitingFeedbackText, h.session(t).State)

	reply := h.send(t, "The canteen needs more vegetarian options")
	assert.Contains(t, reply, "Negative")
	assert.Equal(t, store.StateIdle, h.session(t).State)

	rows, err := h.ledger.ReadRows(context.Background(), ledger.SheetFeedback, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, feedback.AnonymousID, rows[0][ledger.ColEmployeeID])
}

func TestHandleMessage_BalanceIsReadOnly(t *testing.T) {
	h := newHarness(t, nil)

	h.send(t, "I want to apply for leave")
	reply := h.send(t, "How many leave days do I have left?")
	// mid-flow messages belong to the open flow
	assert.NotContains(t, reply, "leave balance")

	h.send(t, "cancel")
	reply = h.send(t, "How many leave days do I have left?")
	assert.Contains(t, reply, "Annual: 20 of 20 day(s) remaining")
	assert.Equal(t, store.StateIdle, h.session(t).State)
	assert.Zero(t, h.ledger.Len(ledger.SheetLeave))
}

func TestHandleMessage_StateConflictAsksToRetry(t *testing.T) {
	h := newHarness(t, conflictRepository{memrepo.NewSessionRepository(time.Hour, time.Hour)})

	assert.Equal(t, constant.TryAgainReply, h.send(t, "How many leave days do I have left?"))
}

func TestHandleMessage_RequiresEmployeeID(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.d.HandleMessage(context.Background(), "  ", "", "hello")
	var vErr *apperror.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestHandleMessage_SerialisesTurnsPerEmployee(t *testing.T) {
	h := newHarness(t, nil)
	const turns = 20

	var wg sync.WaitGroup
	replies := make([]string, turns)
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			employee := "EMP001"
			if i%2 == 1 {
				employee = "EMP002"
			}
			reply, err := h.d.HandleMessage(context.Background(), employee, "", fmt.Sprintf("How many leave days do I have left? #%d", i))
			if assert.NoError(t, err) {
				replies[i] = reply
			}
		}(i)
	}
	wg.Wait()

	for _, r := range replies {
		assert.NotEqual(t, constant.TryAgainReply, r)
	}
	for _, id := range []string{"EMP001", "EMP002"} {
		s, err := h.sessions.Peek(context.Background(), id)
		require.NoError(t, err)
		assert.Len(t, s.History, turns, "every turn of %s kept its update", id)
		assert.Equal(t, int64(turns/2), s.Version)
	}
}

func TestRoute_EveryIntentHasAHandler(t *testing.T) {
	for _, in := range intent.All() {
		t.Run(string(in), func(t *testing.T) {
			h := newHarness(t, nil)
			h.d.classifier = fixedClassifier{in: in}

			s := store.NewSession("EMP001", "Ada", h.clock.Now())
			reply, err := h.d.route(context.Background(), s, agent.Turn{
				EmployeeID: "EMP001",
				Message:    "Feedback: remote work days should be more flexible",
				Now:        h.clock.Now(),
			})
			require.NoError(t, err)
			assert.NotEmpty(t, reply)
			assert.True(t, s.State.IsValid())
		})
	}
}

func TestRoute_SwitchingFlowsKeepsOneStateActive(t *testing.T) {
	h := newHarness(t, nil)
	s := store.NewSession("EMP001", "Ada", h.clock.Now())
	turn := agent.Turn{EmployeeID: "EMP001", Message: "annual leave starting 2026-04-01", Now: h.clock.Now()}

	h.d.classifier = fixedClassifier{in: intent.LeaveApplication}
	_, err := h.d.route(context.Background(), s, turn)
	require.NoError(t, err)
	require.Equal(t, store.StateAwaitingLeaveFields, s.State)
	assert.Contains(t, s.Slots, leave.SlotStart)

	h.d.classifier = fixedClassifier{in: intent.Feedback}
	turn.Message = "I want to give feedback"
	_, err = h.d.route(context.Background(), s, turn)
	require.NoError(t, err)
	assert.Equal(t, store.StateAwaitingFeedbackText, s.State)
	assert.Empty(t, s.Slots, "leave slots do not survive into the feedback flow")
}
