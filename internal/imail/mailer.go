package imail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Message is one outbound email addressed to a single recipient
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a single message. The SMTP implementation satisfies it in
// production; tests substitute a transport that fails on demand.
type Sender interface {
	Send(msg *Message) error
}

// SMTPSender delivers mail through an SMTP relay using gomail
type SMTPSender struct {
	dialer *gomail.Dialer
}

// NewSMTPSender creates an SMTP sender for the given relay
func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

// Send dials the relay and delivers one message. Each call opens its own
// connection; send volume here is low enough that pooling is not worth the
// complexity.
func (s *SMTPSender) Send(msg *Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	return nil
}
