package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/richmontato/eznews2/internal/config"

	"gopkg.in/gomail.v2"
)

// EmailNotifier 实现邮件通知。
type EmailNotifier struct {
	cfg    *config.EmailConfig
	logger *slog.Logger
}

// NewEmailNotifier 创建一个新的邮件通知器。
func NewEmailNotifier(cfg *config.EmailConfig, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPasswordReset 发送密码重置邮件。
//
// SMTP 未配置时返回错误，由调用方决定是否忽略
// （忘记密码接口无论如何都返回同样的响应）。
func (n *EmailNotifier) SendPasswordReset(toEmail string, token string) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPUser == "" || n.cfg.FromEmail == "" {
		return fmt.Errorf("email config missing")
	}
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "[EzNews] Reset Kata Sandi")

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Reset Kata Sandi EzNews</h2>
    <p>Gunakan token berikut untuk mengatur ulang kata sandi Anda:</p>
    <div style="font-size: 20px; font-weight: bold; letter-spacing: 1px; word-break: break-all;">%s</div>
    <p>Abaikan email ini jika Anda tidak meminta reset kata sandi.</p>
  </div>
</body>
</html>`, token)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("password reset email sent", slog.String("to", toEmail))
	return nil
}
