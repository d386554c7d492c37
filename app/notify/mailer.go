package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Email is the payload of a notification email job.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends plain-text notification emails over SMTP. Authentication
// is intentionally absent; the expected setup is a local relay.
type Mailer struct {
	addr string
	from string
	to   string
}

func NewMailer(addr, from, to string) *Mailer {
	return &Mailer{addr: addr, from: from, to: to}
}

func (m *Mailer) Send(email Email) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", m.to)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(email.Body)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{m.to}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
