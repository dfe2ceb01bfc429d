package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// LeaveRequestNotice is what HR needs to act on a new request.
type LeaveRequestNotice struct {
	RequestID    string
	EmployeeID   string
	EmployeeName string
	LeaveType    string
	StartDate    string
	EndDate      string
	Days         int
	Reason       string
}

type IEmailService interface {
	SendLeaveRequestNotice(toEmail string, notice LeaveRequestNotice) error
	SendNegativeFeedbackAlert(toEmail string, actionItems int) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
	}
}

func (s *emailService) newMessage(toEmail, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

func (s *emailService) SendLeaveRequestNotice(toEmail string, n LeaveRequestNotice) error {
	reason := n.Reason
	if reason == "" {
		reason = "-"
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>New leave request</h2>
			<p><b>%s</b> (%s) requested <b>%d day(s)</b> of %s leave.</p>
			<table style="border-collapse: collapse;">
				<tr><td style="padding: 4px 12px 4px 0;">From</td><td>%s</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;">To</td><td>%s</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;">Reason</td><td>%s</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;">Request ID</td><td>%s</td></tr>
			</table>
			<p>The request is pending in the leave tracker.</p>
		</div>
	`, n.EmployeeName, n.EmployeeID, n.Days, n.LeaveType, n.StartDate, n.EndDate, reason, n.RequestID)

	m := s.newMessage(toEmail, fmt.Sprintf("Leave request from %s", n.EmployeeID), body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send leave notice to %s: %w", toEmail, err)
	}
	return nil
}

func (s *emailService) SendNegativeFeedbackAlert(toEmail string, actionItems int) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Negative feedback received</h2>
			<p>An employee submitted feedback with negative sentiment and %d suggested action item(s).</p>
			<p>Review it in the feedback tracker.</p>
		</div>
	`, actionItems)

	m := s.newMessage(toEmail, "Negative feedback received", body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send feedback alert to %s: %w", toEmail, err)
	}
	return nil
}
