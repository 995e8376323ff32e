// SPDX-License-Identifier: Apache-2.0

// Package mail delivers account lifecycle emails. The [Mailer] interface is
// what services depend on; [SMTPMailer] is the production implementation.
package mail

import (
	"context"
	"fmt"
	"net/url"

	gomail "github.com/wneessen/go-mail"

	"github.com/ItsRqtl/TeachCraft/internal/config"
	"github.com/ItsRqtl/TeachCraft/internal/logger"
)

// Mailer delivers account lifecycle emails. Implementations must treat the
// raw token as secret: it goes into the message body and nowhere else, in
// particular never into logs.
type Mailer interface {
	// SendVerificationEmail delivers the email address verification link
	// carrying the raw token.
	SendVerificationEmail(ctx context.Context, to, rawToken string) error

	// SendRecoveryEmail delivers the password recovery link carrying the
	// raw token.
	SendRecoveryEmail(ctx context.Context, to, rawToken string) error
}

// SMTPMailer sends mail through a single SMTP relay using plain
// authentication over STARTTLS.
type SMTPMailer struct {
	client  *gomail.Client
	sender  string
	baseURL string
	logger  *logger.Logger
}

// NewSMTPMailer builds an [SMTPMailer] from the mail configuration. The
// connection is established lazily per send, so construction never touches
// the network.
func NewSMTPMailer(cfg config.Mail, log *logger.Logger) (*SMTPMailer, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}

	return &SMTPMailer{
		client:  client,
		sender:  cfg.Sender,
		baseURL: cfg.BaseURL,
		logger:  log,
	}, nil
}

// SendVerificationEmail implements [Mailer].
func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, rawToken string) error {
	link := m.link("/verify", rawToken)
	body := fmt.Sprintf(
		"Welcome!\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nIf you did not create this account, you can ignore this message.\n",
		link,
	)
	return m.send(ctx, to, "Confirm your email address", body)
}

// SendRecoveryEmail implements [Mailer].
func (m *SMTPMailer) SendRecoveryEmail(ctx context.Context, to, rawToken string) error {
	link := m.link("/recover", rawToken)
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nOpen the link below to choose a new password:\n\n%s\n\nIf you did not request this, you can ignore this message.\n",
		link,
	)
	return m.send(ctx, to, "Reset your password", body)
}

func (m *SMTPMailer) link(path, rawToken string) string {
	return m.baseURL + path + "?token=" + url.QueryEscape(rawToken)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Err(err).Str("func", "*SMTPMailer.send").Str("subject", subject).Msg("error sending email")
		return fmt.Errorf("sending email: %w", err)
	}

	m.logger.Info().Str("subject", subject).Msg("email sent")
	return nil
}
