// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"strings"
	"testing"

	"github.com/ItsRqtl/TeachCraft/internal/config"
	"github.com/ItsRqtl/TeachCraft/internal/logger"
)

var _ Mailer = (*SMTPMailer)(nil)

func TestNewSMTPMailer(t *testing.T) {
	m, err := NewSMTPMailer(config.Mail{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "noreply@example.com",
		Password: "secret",
		Sender:   "noreply@example.com",
		BaseURL:  "https://accounts.example.com",
	}, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.client == nil {
		t.Error("expected a constructed smtp client")
	}
}

func TestLink_EscapesToken(t *testing.T) {
	m := &SMTPMailer{baseURL: "https://accounts.example.com"}

	link := m.link("/verify", "ab+c/d=")
	if !strings.HasPrefix(link, "https://accounts.example.com/verify?token=") {
		t.Fatalf("unexpected link prefix: %s", link)
	}
	if strings.ContainsAny(strings.TrimPrefix(link, "https://accounts.example.com/verify?token="), "+/=") {
		t.Errorf("token was not escaped: %s", link)
	}
}
