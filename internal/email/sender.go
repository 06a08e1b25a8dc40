package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"chatauth/internal/auth"
	"chatauth/internal/config"
	"chatauth/internal/i18n"
)

// Sender delivers verification codes over SMTP. It owns the purpose-to-
// template mapping so the verification logic stays free of presentation.
type Sender struct {
	cfg config.EmailConfig
}

func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Send implements auth.Notifier.
func (s *Sender) Send(ctx context.Context, locale, to string, purpose auth.Purpose, code string, ttl time.Duration) error {
	minutes := int(ttl.Minutes())

	var content i18n.EmailContent
	switch purpose {
	case auth.PurposeSignupVerify:
		content = i18n.VerificationEmail(locale, code, minutes)
	case auth.PurposeTwoFactor:
		content = i18n.TwoFactorEmail(locale, code, minutes)
	case auth.PurposePasswordReset:
		content = i18n.PasswordResetEmail(locale, code, minutes)
	default:
		return fmt.Errorf("no email template for purpose %q", purpose)
	}

	return s.deliver(ctx, to, content.Subject, content.Text, content.HTML)
}

func (s *Sender) deliver(_ context.Context, to, subject, text, html string) error {
	if !s.cfg.Enabled() {
		return fmt.Errorf("email is not configured")
	}

	body := html
	if strings.TrimSpace(body) == "" {
		body = text
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	if s.cfg.Secure {
		tlsCfg := &tls.Config{
			ServerName: s.cfg.Host,
		}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		client, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			conn.Close()
			return err
		}
		defer client.Close()

		if s.cfg.Username != "" {
			auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
			if err := client.Auth(auth); err != nil {
				return err
			}
		}

		if err := client.Mail(s.cfg.From); err != nil {
			return err
		}
		if err := client.Rcpt(to); err != nil {
			return err
		}

		w, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte(msg.String())); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		return client.Quit()
	}

	var smtpAuth smtp.Auth
	if s.cfg.Username != "" {
		smtpAuth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	return smtp.SendMail(addr, smtpAuth, s.cfg.From, []string{to}, []byte(msg.String()))
}
