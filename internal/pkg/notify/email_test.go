package notify

import (
	"io"
	"log/slog"
	"testing"

	"github.com/richmontato/eznews2/internal/config"
)

func TestSendPasswordResetRequiresConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	n := NewEmailNotifier(&config.EmailConfig{}, logger)
	if err := n.SendPasswordReset("budi@eznews.com", "token"); err == nil {
		t.Fatalf("expected error without smtp config")
	}

	n = NewEmailNotifier(&config.EmailConfig{
		SMTPHost:  "smtp.example.com",
		SMTPUser:  "mailer",
		FromEmail: "noreply@eznews.com",
	}, logger)
	if err := n.SendPasswordReset("", "token"); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}
