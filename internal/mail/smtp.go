package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/marigold-app/accounts-api/config"
)

// SMTPSender delivers mail directly over SMTP with PLAIN auth.
type SMTPSender struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	appBaseURL string

	// sendMail is swappable in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg config.SMTPConfig, from, appBaseURL string) *SMTPSender {
	return &SMTPSender{
		host:       cfg.Host,
		port:       cfg.Port,
		username:   cfg.Username,
		password:   cfg.Password,
		from:       from,
		appBaseURL: appBaseURL,
		sendMail:   smtp.SendMail,
	}
}

// SendVerification delivers a single verification message.
func (s *SMTPSender) SendVerification(ctx context.Context, token, email, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	msg := buildMessage(s.from, email, verificationSubject, verificationBody(s.appBaseURL, token, name))
	return s.sendMail(addr, auth, s.from, []string{email}, msg)
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}
