package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"virtual-hr-be/internal/constant"
	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/agent"
	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/events"
	"virtual-hr-be/pkg/ledger"
	"virtual-hr-be/pkg/llm"
	"virtual-hr-be/pkg/utils"

	"github.com/google/uuid"
)

const module = "FEEDBACK_AGENT"

const (
	SlotText = "feedback_text"

	MinLength = 10

	// AnonymousID is written in place of the employee id for anonymous feedback.
	AnonymousID = "Anonymous"
)

type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
)

func parseSentiment(s string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return Positive
	case "negative":
		return Negative
	default:
		return Neutral
	}
}

const fallbackAction = "Review feedback manually"

// Record is one submitted piece of feedback.
type Record struct {
	EmployeeID  string    `json:"employee_id"`
	Feedback    string    `json:"feedback"`
	Sentiment   Sentiment `json:"sentiment"`
	ActionItems []string  `json:"action_items"`
	SubmittedOn string    `json:"submitted_on"`
}

var submissionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("virtual-hr/feedback-submission"))

// SubmissionID identifies the same feedback from the same employee on the same day.
// It is a one-way hash, so anonymous rows can carry it.
func SubmissionID(employeeID, text string, day time.Time) string {
	normalised := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	key := strings.Join([]string{strings.ToUpper(strings.TrimSpace(employeeID)), normalised, day.Format("2006-01-02")}, "|")
	return uuid.NewSHA1(submissionNamespace, []byte(key)).String()
}

var prefixPattern = regexp.MustCompile(`(?i)^\s*(?:i(?:\s+want|\s+would\s+like|'d\s+like)\s+to\s+(?:give|submit|share|leave)(?:\s+some|\s+my)?(?:\s+feedback\b|\s+thoughts\b)?|my\s+feedback\s+is|here'?s\s+my\s+feedback|feedback\b)\s*[:\-,]?\s*`)

// Clean strips the "I want to give feedback:" style preamble from a message.
func Clean(message string) string {
	return strings.TrimSpace(prefixPattern.ReplaceAllString(message, ""))
}

type Agent struct {
	ledger    ledger.Ledger
	llm       llm.LLMProvider
	publisher events.Publisher
	logger    logger.ILogger
	anonymous bool
}

var _ agent.FlowAgent = (*Agent)(nil)

func NewAgent(l ledger.Ledger, llmProvider llm.LLMProvider, publisher events.Publisher, anonymous bool, log logger.ILogger) *Agent {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Agent{
		ledger:    l,
		llm:       llmProvider,
		publisher: publisher,
		logger:    log,
		anonymous: anonymous,
	}
}

func (a *Agent) Name() string { return "feedback" }

func (a *Agent) Slots() []string { return []string{SlotText} }

// Start submits straight away when the opening message already carries the feedback.
func (a *Agent) Start(ctx context.Context, turn agent.Turn, slots *agent.SlotView) (agent.Outcome, error) {
	text := Clean(turn.Message)
	if text == "" {
		return agent.Outcome{
			Kind:  agent.NeedsMore,
			Reply: "I'd be glad to pass your feedback on to HR. It is recorded anonymously. What would you like to share?",
		}, nil
	}
	return a.Continue(ctx, agent.Turn{
		EmployeeID:   turn.EmployeeID,
		EmployeeName: turn.EmployeeName,
		Message:      text,
		Now:          turn.Now,
	}, slots)
}

func (a *Agent) Continue(ctx context.Context, turn agent.Turn, slots *agent.SlotView) (agent.Outcome, error) {
	text := Clean(turn.Message)
	if len([]rune(text)) < MinLength {
		return agent.Outcome{
			Kind:  agent.Invalid,
			Reply: "Please provide more detailed feedback. Your input helps us improve the workplace!",
		}, nil
	}
	if err := slots.Set(SlotText, text); err != nil {
		return agent.Outcome{}, err
	}

	submissionID := SubmissionID(turn.EmployeeID, text, turn.Now)
	existing, err := a.ledger.ReadRows(ctx, ledger.SheetFeedback, ledger.Filter{ledger.ColSubmission: submissionID})
	if err != nil {
		return agent.Outcome{}, fmt.Errorf("read feedback rows: %w", err)
	}
	if len(existing) > 0 {
		a.logger.Info(module, "Duplicate feedback ignored", map[string]interface{}{"submission_id": submissionID})
		row := existing[0]
		return agent.Outcome{
			Kind:  agent.Complete,
			Reply: "Thanks, we already received this feedback today. It will be reviewed by HR.",
			Record: Record{
				EmployeeID:  row[ledger.ColEmployeeID],
				Feedback:    row[ledger.ColFeedback],
				Sentiment:   parseSentiment(row[ledger.ColSentiment]),
				ActionItems: splitActions(row[ledger.ColActionItems]),
				SubmittedOn: row[ledger.ColSubmittedOn],
			},
		}, nil
	}

	sentiment, actions := a.analyse(ctx, text)

	employeeID := AnonymousID
	if !a.anonymous && turn.EmployeeID != "" {
		employeeID = turn.EmployeeID
	}
	rec := Record{
		EmployeeID:  employeeID,
		Feedback:    text,
		Sentiment:   sentiment,
		ActionItems: actions,
		SubmittedOn: turn.Now.Format("2006-01-02 15:04:05"),
	}

	if err := a.ledger.AppendRow(ctx, ledger.SheetFeedback, ledger.Row{
		ledger.ColEmployeeID:  rec.EmployeeID,
		ledger.ColFeedback:    rec.Feedback,
		ledger.ColSentiment:   string(rec.Sentiment),
		ledger.ColActionItems: strings.Join(rec.ActionItems, "; "),
		ledger.ColSubmittedOn: rec.SubmittedOn,
		ledger.ColSubmission:  submissionID,
	}); err != nil {
		return agent.Outcome{}, fmt.Errorf("append feedback: %w", err)
	}

	a.logger.Info(module, "Feedback recorded", map[string]interface{}{
		"sentiment":    string(sentiment),
		"action_items": len(actions),
	})
	if err := a.publisher.Publish(ctx, events.NewFeedbackSubmitted(submissionID, string(sentiment), len(actions), turn.Now)); err != nil {
		a.logger.Warn(module, "Event publish failed", map[string]interface{}{"error": err.Error()})
	}

	reply := fmt.Sprintf("Thank you for your feedback! It has been recorded and will be reviewed by HR.\n\nSentiment detected: %s", sentiment)
	return agent.Outcome{Kind: agent.Complete, Reply: reply, Record: rec}, nil
}

type analysis struct {
	Sentiment   string          `json:"sentiment"`
	ActionItems json.RawMessage `json:"action_items"`
}

// analyse asks the model for sentiment and action items. Any failure falls back to
// a neutral reading so feedback is never lost to a model outage.
func (a *Agent) analyse(ctx context.Context, text string) (Sentiment, []string) {
	if a.llm == nil {
		return Neutral, []string{fallbackAction}
	}

	raw, err := a.llm.Generate(ctx, fmt.Sprintf(constant.FeedbackAnalysisPromptV1, text),
		llm.WithSystem(constant.FeedbackAnalystSystemV1), llm.WithTemperature(0), llm.WithMaxTokens(256), llm.WithJSON())
	if err != nil {
		a.logger.Warn(module, "Feedback analysis unavailable, using neutral fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return Neutral, []string{fallbackAction}
	}

	var res analysis
	if err := json.Unmarshal([]byte(utils.ExtractJSON(raw)), &res); err != nil {
		a.logger.Warn(module, "Feedback analysis unparseable", map[string]interface{}{"response": raw})
		return Neutral, []string{fallbackAction}
	}

	return parseSentiment(res.Sentiment), actionItems(res.ActionItems)
}

// actionItems accepts either a list or a single string.
func actionItems(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := list[:0]
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && strings.TrimSpace(single) != "" {
		return []string{strings.TrimSpace(single)}
	}
	return []string{"Monitor and acknowledge"}
}

func splitActions(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Trends summarises collected feedback for HR.
type Trends struct {
	Total             int      `json:"total"`
	Positive          int      `json:"positive"`
	Neutral           int      `json:"neutral"`
	Negative          int      `json:"negative"`
	RecentActionItems []string `json:"recent_action_items"`
}

const recentWindow = 5

func (a *Agent) Trends(ctx context.Context, isHR bool) (Trends, error) {
	if !isHR {
		return Trends{}, apperror.ErrForbidden
	}

	rows, err := a.ledger.ReadRows(ctx, ledger.SheetFeedback, nil)
	if err != nil {
		return Trends{}, fmt.Errorf("read feedback rows: %w", err)
	}

	t := Trends{Total: len(rows), RecentActionItems: []string{}}
	for _, row := range rows {
		switch parseSentiment(row[ledger.ColSentiment]) {
		case Positive:
			t.Positive++
		case Negative:
			t.Negative++
		default:
			t.Neutral++
		}
	}

	start := len(rows) - recentWindow
	if start < 0 {
		start = 0
	}
	for i := len(rows) - 1; i >= start && len(t.RecentActionItems) < 3; i-- {
		if items := strings.TrimSpace(rows[i][ledger.ColActionItems]); items != "" {
			t.RecentActionItems = append(t.RecentActionItems, items)
		}
	}
	return t, nil
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return n * 100 / total
}

// Summary renders the trends as text.
func (t Trends) Summary() string {
	if t.Total == 0 {
		return "Feedback Summary\n\nNo feedback has been collected yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Feedback Summary\n\nTotal feedback: %d\n\n", t.Total)
	fmt.Fprintf(&b, "Positive: %d (%d%%)\n", t.Positive, percent(t.Positive, t.Total))
	fmt.Fprintf(&b, "Neutral: %d (%d%%)\n", t.Neutral, percent(t.Neutral, t.Total))
	fmt.Fprintf(&b, "Negative: %d (%d%%)\n", t.Negative, percent(t.Negative, t.Total))
	if len(t.RecentActionItems) > 0 {
		b.WriteString("\nRecent action items:\n")
		for i, item := range t.RecentActionItems {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
