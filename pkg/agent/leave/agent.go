package leave

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/agent"
	"virtual-hr-be/pkg/events"
	"virtual-hr-be/pkg/ledger"

	"github.com/google/uuid"
)

const module = "LEAVE_AGENT"

// Slot keys owned by the leave flow.
const (
	SlotType   = "leave_type"
	SlotStart  = "start_date"
	SlotEnd    = "end_date"
	SlotDays   = "num_days"
	SlotReason = "reason"
)

var requestNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("virtual-hr/leave-request"))

type Agent struct {
	ledger    ledger.Ledger
	publisher events.Publisher
	logger    logger.ILogger
	idPattern *regexp.Regexp
	balances  map[Type]int
	now       func() time.Time
}

var _ agent.FlowAgent = (*Agent)(nil)

func NewAgent(l ledger.Ledger, publisher events.Publisher, idPattern *regexp.Regexp, balances map[Type]int, log logger.ILogger) *Agent {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if balances == nil {
		balances = DefaultBalances()
	}
	return &Agent{
		ledger:    l,
		publisher: publisher,
		logger:    log,
		idPattern: idPattern,
		balances:  balances,
		now:       time.Now,
	}
}

// WithClock replaces the clock used to stamp HR decisions.
func (a *Agent) WithClock(now func() time.Time) *Agent {
	a.now = now
	return a
}

func (a *Agent) Name() string { return "leave" }

func (a *Agent) Slots() []string {
	return []string{SlotType, SlotStart, SlotEnd, SlotDays, SlotReason}
}

// RequestID identifies a request by its content, so a resubmission maps onto the same row.
func RequestID(employeeID string, t Type, start, end string) string {
	key := strings.Join([]string{strings.ToUpper(employeeID), string(t), start, end}, "|")
	return uuid.NewSHA1(requestNamespace, []byte(key)).String()
}

// Start opens the flow, taking whatever fields the opening message already carries.
func (a *Agent) Start(ctx context.Context, turn agent.Turn, slots *agent.SlotView) (agent.Outcome, error) {
	out, err := a.step(ctx, turn, slots)
	if err == nil && out.Kind == agent.NeedsMore && len(slots.Keys()) == 0 {
		out.Reply = "Sure, let's get your leave request started. " + out.Reply
	}
	return out, err
}

func (a *Agent) Continue(ctx context.Context, turn agent.Turn, slots *agent.SlotView) (agent.Outcome, error) {
	return a.step(ctx, turn, slots)
}

func (a *Agent) step(ctx context.Context, turn agent.Turn, slots *agent.SlotView) (agent.Outcome, error) {
	if a.idPattern != nil && !a.idPattern.MatchString(turn.EmployeeID) {
		a.logger.Warn(module, "Leave refused for malformed employee id", map[string]interface{}{
			"employee_id": turn.EmployeeID,
		})
		return agent.Outcome{
			Kind:  agent.Refused,
			Reply: fmt.Sprintf("Your employee ID %q doesn't match the expected format (for example EMP001). Please contact HR to fix your profile.", turn.EmployeeID),
		}, nil
	}

	ex, err := extract(turn.Message)
	if err != nil {
		return invalid(err.Error()), nil
	}
	if err := a.apply(ex, slots); err != nil {
		return agent.Outcome{}, err
	}

	if out, ok := a.resolveDates(slots); !ok {
		return out, nil
	}

	if prompt := missingPrompt(slots); prompt != "" {
		return agent.Outcome{Kind: agent.NeedsMore, Reply: prompt}, nil
	}

	return a.submit(ctx, turn, slots)
}

func (a *Agent) apply(ex extraction, slots *agent.SlotView) error {
	if ex.leaveType != "" {
		if err := slots.Set(SlotType, string(ex.leaveType)); err != nil {
			return err
		}
	}

	switch len(ex.dates) {
	case 1:
		key := SlotStart
		if slots.Has(SlotStart) && !slots.Has(SlotEnd) && ex.days == 0 {
			key = SlotEnd
		}
		if err := slots.Set(key, ex.dates[0].Format(dateLayout)); err != nil {
			return err
		}
	case 2:
		if err := slots.Set(SlotStart, ex.dates[0].Format(dateLayout)); err != nil {
			return err
		}
		if err := slots.Set(SlotEnd, ex.dates[1].Format(dateLayout)); err != nil {
			return err
		}
		slots.Delete(SlotDays)
	}

	if ex.days > 0 {
		if err := slots.Set(SlotDays, strconv.Itoa(ex.days)); err != nil {
			return err
		}
		if len(ex.dates) < 2 {
			slots.Delete(SlotEnd)
		}
	}

	if ex.reason != "" {
		if err := slots.Set(SlotReason, ex.reason); err != nil {
			return err
		}
	}
	return nil
}

// resolveDates derives whichever of end date / day count is missing and checks ordering.
func (a *Agent) resolveDates(slots *agent.SlotView) (agent.Outcome, bool) {
	if !slots.Has(SlotStart) {
		return agent.Outcome{}, true
	}
	start, _ := time.Parse(dateLayout, slots.Get(SlotStart))

	switch {
	case slots.Has(SlotEnd):
		end, _ := time.Parse(dateLayout, slots.Get(SlotEnd))
		if end.Before(start) {
			slots.Delete(SlotEnd)
			slots.Delete(SlotDays)
			return invalid(fmt.Sprintf("The end date can't be before the start date (%s). When should your leave end?", slots.Get(SlotStart))), false
		}
		_ = slots.Set(SlotDays, strconv.Itoa(inclusiveDays(start, end)))
	case slots.Has(SlotDays):
		days, _ := strconv.Atoi(slots.Get(SlotDays))
		if days < 1 || days > 365 {
			slots.Delete(SlotDays)
			return invalid("The number of days must be between 1 and 365."), false
		}
		_ = slots.Set(SlotEnd, start.AddDate(0, 0, days-1).Format(dateLayout))
	}
	return agent.Outcome{}, true
}

func missingPrompt(slots *agent.SlotView) string {
	switch {
	case !slots.Has(SlotType):
		names := make([]string, 0, len(Types()))
		for _, t := range Types() {
			names = append(names, string(t))
		}
		return "What type of leave would you like? (" + strings.Join(names, ", ") + ")"
	case !slots.Has(SlotStart):
		return "What date should your leave start? Please use YYYY-MM-DD."
	case !slots.Has(SlotEnd):
		return "How many days do you need, or until which date (YYYY-MM-DD)?"
	}
	return ""
}

func (a *Agent) submit(ctx context.Context, turn agent.Turn, slots *agent.SlotView) (agent.Outcome, error) {
	leaveType := Type(slots.Get(SlotType))
	days, _ := strconv.Atoi(slots.Get(SlotDays))
	rec := Record{
		EmployeeID:   turn.EmployeeID,
		EmployeeName: turn.EmployeeName,
		Type:         leaveType,
		StartDate:    slots.Get(SlotStart),
		EndDate:      slots.Get(SlotEnd),
		Days:         days,
		Reason:       slots.Get(SlotReason),
		Status:       StatusPending,
		RequestedOn:  turn.Now.Format("2006-01-02 15:04:05"),
	}
	rec.RequestID = RequestID(rec.EmployeeID, rec.Type, rec.StartDate, rec.EndDate)

	records, err := a.records(ctx, turn.EmployeeID)
	if err != nil {
		return agent.Outcome{}, err
	}

	for _, existing := range records {
		if existing.RequestID == rec.RequestID {
			return agent.Outcome{
				Kind:   agent.Complete,
				Reply:  fmt.Sprintf("You already have this %s leave request (%s to %s) on file with status %s.", existing.Type, existing.StartDate, existing.EndDate, existing.Status),
				Record: existing,
			}, nil
		}
	}

	if limit, capped := a.balances[leaveType]; capped {
		remaining := limit - usedDays(records, leaveType)
		if rec.Days > remaining {
			slots.Delete(SlotStart)
			slots.Delete(SlotEnd)
			slots.Delete(SlotDays)
			return invalid(fmt.Sprintf("You have %d %s leave day(s) remaining but requested %d. Please choose new dates.", remaining, leaveType, rec.Days)), nil
		}
	}

	// the ledger append is the commit point of the flow
	if err := a.ledger.AppendRow(ctx, ledger.SheetLeave, requestRow(rec)); err != nil {
		return agent.Outcome{}, fmt.Errorf("append leave request: %w", err)
	}

	a.logger.Info(module, "Leave request submitted", map[string]interface{}{
		"request_id":  rec.RequestID,
		"employee_id": rec.EmployeeID,
		"leave_type":  string(rec.Type),
		"days":        rec.Days,
	})
	a.publish(ctx, events.NewLeaveRequested(rec.RequestID, rec.EmployeeID, rec.EmployeeName, string(rec.Type), rec.StartDate, rec.EndDate, rec.Days, rec.Reason, turn.Now))

	reply := fmt.Sprintf("Your %s leave request from %s to %s (%d day(s)) has been submitted and is pending approval.", rec.Type, rec.StartDate, rec.EndDate, rec.Days)
	return agent.Outcome{Kind: agent.Complete, Reply: reply, Record: rec}, nil
}

func (a *Agent) publish(ctx context.Context, ev events.Event) {
	if err := a.publisher.Publish(ctx, ev); err != nil {
		a.logger.Warn(module, "Event publish failed", map[string]interface{}{
			"event": ev.EventType(),
			"error": err.Error(),
		})
	}
}

func invalid(reason string) agent.Outcome {
	return agent.Outcome{Kind: agent.Invalid, Reply: reason}
}

func requestRow(rec Record) ledger.Row {
	return ledger.Row{
		ledger.ColRequestID:    rec.RequestID,
		ledger.ColEmployeeID:   rec.EmployeeID,
		ledger.ColEmployeeName: rec.EmployeeName,
		ledger.ColLeaveType:    string(rec.Type),
		ledger.ColStartDate:    rec.StartDate,
		ledger.ColEndDate:      rec.EndDate,
		ledger.ColNumDays:      strconv.Itoa(rec.Days),
		ledger.ColStatus:       string(rec.Status),
		ledger.ColRequestedOn:  rec.RequestedOn,
		ledger.ColApprovalDate: "",
		ledger.ColComments:     rec.Reason,
	}
}
