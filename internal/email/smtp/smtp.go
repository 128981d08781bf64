package smtp

import (
	"context"
	"fmt"

	"github.com/webtrio/webfolio/internal/email"
	"github.com/webtrio/webfolio/internal/krypto"
	"gopkg.in/gomail.v2"
)

// Settings contains the settings for the SMTP server.
type Settings struct {
	Host     string
	Port     int
	Username string
	Password krypto.Secret
}

// Sender is an email sender that delivers messages over SMTP.
type Sender struct {
	dialer   *gomail.Dialer
	settings Settings
}

// NewSender creates a new sender.
func NewSender(s Settings) *Sender {
	return &Sender{
		dialer:   gomail.NewDialer(s.Host, s.Port, s.Username, string(s.Password.SecretValue())),
		settings: s,
	}
}

// Send delivers the message over SMTP. gomail has no context support,
// the caller's deadline is not propagated into the SMTP dialog.
func (s *Sender) Send(_ context.Context, msg email.Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", string(msg.From))
	m.SetHeader("To", string(msg.To))
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send via smtp: %w", err)
	}

	return nil
}
