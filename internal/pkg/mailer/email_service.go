package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

// EscalationNotice is what a reviewer needs to pick up an escalated approval.
type EscalationNotice struct {
	ApprovalId   string
	SessionId    string
	ResearcherId string
	ContentType  string
	Confidence   float64
	Reason       string
	Preview      string
}

type IEmailService interface {
	SendEscalation(toEmail string, n EscalationNotice) error
	SendPendingDigest(toEmail string, pending int, oldestMinutes int) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
	}
}

func (s *emailService) send(toEmail, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func EscalationBody(n EscalationNotice) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Approval escalated</h2>
			<p><b>Approval:</b> %s</p>
			<p><b>Session:</b> %s (researcher %s)</p>
			<p><b>Content:</b> %s, confidence %.2f</p>
			<p><b>Reason:</b> %s</p>
			<blockquote>%s</blockquote>
		</div>
	`,
		html.EscapeString(n.ApprovalId),
		html.EscapeString(n.SessionId),
		html.EscapeString(n.ResearcherId),
		html.EscapeString(n.ContentType),
		n.Confidence,
		html.EscapeString(n.Reason),
		html.EscapeString(n.Preview),
	)
}

func (s *emailService) SendEscalation(toEmail string, n EscalationNotice) error {
	subject := fmt.Sprintf("[URGENT] Review escalated: %s", n.ContentType)
	if err := s.send(toEmail, subject, EscalationBody(n)); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send escalation %s to %s: %v\n", n.ApprovalId, toEmail, err)
		return err
	}
	fmt.Printf("[MAILER] Escalation %s sent to %s\n", n.ApprovalId, toEmail)
	return nil
}

func (s *emailService) SendPendingDigest(toEmail string, pending int, oldestMinutes int) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Pending reviews</h2>
			<p>%d approval request(s) are waiting. The oldest has waited %d minute(s).</p>
		</div>
	`, pending, oldestMinutes)
	if err := s.send(toEmail, "Research review queue", body); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send digest to %s: %v\n", toEmail, err)
		return err
	}
	return nil
}
