// Package mailer dispatches verification emails.
package mailer

import (
	"gopkg.in/gomail.v2"

	"github.com/driveauth/driveauth/log"
)

// SMTP sends mail through a configured SMTP relay.
type SMTP struct {
	dialer *gomail.Dialer
	sender string
}

func NewSMTP(server string, port int, username, password, sender string) *SMTP {
	return &SMTP{
		dialer: gomail.NewDialer(server, port, username, password),
		sender: sender,
	}
}

func (m *SMTP) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.sender, "driveauth")
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}

// Log stands in when no SMTP relay is configured: the verification
// link lands in the logs instead of an inbox, so the flows stay usable
// on a dev box.
type Log struct {
	Logger log.Logger
}

func (m Log) Send(to, subject, body string) error {
	m.Logger.Printf("smtp not configured, mail for %s (%s):\n%s", to, subject, body)
	return nil
}
