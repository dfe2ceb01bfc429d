package service

import (
	"context"
	"fmt"

	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/internal/pkg/mailer"
	"virtual-hr-be/pkg/events"
	pktNats "virtual-hr-be/pkg/nats"
)

const notificationModule = "NotificationService"

// EventSubscriber is the part of the NATS subscriber the notifier uses.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType string, durableName string, handler pktNats.EventHandler) error
}

// NotificationService tells HR about new leave requests and negative feedback.
type NotificationService struct {
	subscriber EventSubscriber
	mailer     mailer.IEmailService
	hrEmail    string
	logger     logger.ILogger
}

func NewNotificationService(sub EventSubscriber, mail mailer.IEmailService, hrEmail string, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		mailer:     mail,
		hrEmail:    hrEmail,
		logger:     log,
	}
}

// Start registers the durable consumers. Delivery happens on NATS goroutines.
func (s *NotificationService) Start(ctx context.Context) error {
	subs := []struct {
		eventType string
		durable   string
	}{
		{events.TypeLeaveRequested, "hr-notify-leave-requested"},
		{events.TypeLeaveDecided, "hr-notify-leave-decided"},
		{events.TypeFeedbackSubmitted, "hr-notify-feedback"},
	}
	for _, sub := range subs {
		if err := s.subscriber.Subscribe(ctx, sub.eventType, sub.durable, s.HandleEvent); err != nil {
			return fmt.Errorf("subscribe %s: %w", sub.eventType, err)
		}
	}
	s.logger.Info(notificationModule, "Notification service started", map[string]interface{}{"subscriptions": len(subs)})
	return nil
}

// HandleEvent routes one event. A returned error makes the bus redeliver it.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	switch event.EventType() {
	case events.TypeLeaveRequested:
		if s.hrEmail == "" {
			return nil
		}
		notice := mailer.LeaveRequestNotice{
			RequestID:    stringField(payload, "request_id"),
			EmployeeID:   stringField(payload, "employee_id"),
			EmployeeName: stringField(payload, "employee_name"),
			LeaveType:    stringField(payload, "leave_type"),
			StartDate:    stringField(payload, "start_date"),
			EndDate:      stringField(payload, "end_date"),
			Days:         intField(payload, "num_days"),
			Reason:       stringField(payload, "reason"),
		}
		if err := s.mailer.SendLeaveRequestNotice(s.hrEmail, notice); err != nil {
			return err
		}
		s.logger.Info(notificationModule, "HR notified of leave request", map[string]interface{}{
			"request_id": notice.RequestID,
		})

	case events.TypeLeaveDecided:
		s.logger.Info(notificationModule, "Leave decision recorded", map[string]interface{}{
			"request_id":  stringField(payload, "request_id"),
			"employee_id": stringField(payload, "employee_id"),
			"status":      stringField(payload, "status"),
		})

	case events.TypeFeedbackSubmitted:
		if s.hrEmail == "" || stringField(payload, "sentiment") != "Negative" {
			return nil
		}
		return s.mailer.SendNegativeFeedbackAlert(s.hrEmail, intField(payload, "action_items"))

	default:
		s.logger.Debug(notificationModule, "Ignoring event", map[string]interface{}{"type": event.EventType()})
	}
	return nil
}

func stringField(payload map[string]interface{}, key string) string {
	v, _ := payload[key].(string)
	return v
}

// intField accepts both int and the float64 a JSON round trip produces.
func intField(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
