// Package mail sends the two transactional messages the auth flow needs:
// OTP codes and password-reset links.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Config holds the relay settings. Username and password come from externally
// configured secrets.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers messages over SMTP with TLS.
type SMTPMailer struct {
	cfg    Config
	client *gomail.Client
}

func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("mail relay is not configured")
	}
	if cfg.Port <= 0 {
		cfg.Port = 465
	}

	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSSL(),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client failed: %w", err)
	}

	return &SMTPMailer{cfg: cfg, client: client}, nil
}

// SendOTP mails a one-time login code.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string) error {
	body := fmt.Sprintf("Your One-Time Password (OTP) is: %s", code)
	return m.send(ctx, to, "Your Login Code", body)
}

// SendResetLink mails a password-reset deep link.
func (m *SMTPMailer) SendResetLink(ctx context.Context, to, link string) error {
	body := fmt.Sprintf("Click the link to reset your password: %s\nThis link is valid for one hour.", link)
	return m.send(ctx, to, "Password Reset", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set mail sender failed: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set mail recipient failed: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail failed: %w", err)
	}
	return nil
}
