package notification

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"time"
)

// ErrNotConfigured is returned by DisabledMailer.
var ErrNotConfigured = errors.New("email delivery is not configured")

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	// ResetTTL is quoted in the reset email body.
	ResetTTL time.Duration
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailService struct {
	config EmailConfig
	logger *slog.Logger
	send   sendFunc
}

func NewEmailService(config EmailConfig, logger *slog.Logger) *EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailService{config: config, logger: logger, send: smtp.SendMail}
}

// SendPasswordResetEmail mails the reset link to the account owner.
func (s *EmailService) SendPasswordResetEmail(to, resetURL string) error {
	link := html.EscapeString(resetURL)
	body := fmt.Sprintf(`<html><body>
		<h2>Reset Your Password</h2>
		<p>A password reset has been requested for your account.</p>
		<p><a href="%s">Click here to choose a new password</a></p>
		<p>Or copy this link to your browser: %s</p>
		<p>This link will expire in %s.</p>
		<p>If you did not request this password reset, please ignore this email.</p>
	</body></html>`, link, link, humanDuration(s.config.ResetTTL))
	return s.sendEmail(to, "Reset Your Password", body)
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	msg, err := s.buildMessage(to, subject, body)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.config.User != "" {
		auth = smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	if err := s.send(addr, auth, s.config.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	s.logger.Debug("email sent", "subject", subject)
	return nil
}

func (s *EmailService) buildMessage(to, subject, body string) ([]byte, error) {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return nil, fmt.Errorf("invalid header value")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.config.FromName), s.config.From)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String()), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0 || d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}

// DisabledMailer is used when SMTP is not configured. Every send fails, so
// reset requests are rolled back instead of leaving undeliverable tokens.
type DisabledMailer struct {
	Logger *slog.Logger
}

func (m DisabledMailer) SendPasswordResetEmail(string, string) error {
	if m.Logger != nil {
		m.Logger.Warn("password reset email not sent: SMTP is not configured")
	}
	return ErrNotConfigured
}
