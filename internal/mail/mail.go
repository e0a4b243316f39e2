package mail

import (
	"context"
	"fmt"

	"github.com/marigold-app/accounts-api/config"
	"github.com/rs/zerolog/log"
)

// Sender delivers a verification email to a user. Implementations are
// chosen once at construction time, never per call.
type Sender interface {
	SendVerification(ctx context.Context, token, email, name string) error
}

// NewSender constructs the configured provider. baseURL is the public base
// URL of this service, used to build the verification link.
func NewSender(cfg config.MailConfig, baseURL string) (Sender, error) {
	switch cfg.Provider {
	case config.EmailProviderSendGrid:
		return NewSendGridSender(cfg.SendGrid, cfg.From, baseURL), nil
	case config.EmailProviderSMTP:
		return NewSMTPSender(cfg.SMTP, cfg.From, baseURL), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// SendBestEffort attempts delivery and logs failures instead of returning
// them. Registration must not fail because the notification provider is down.
func SendBestEffort(ctx context.Context, sender Sender, token, email, name string) {
	if err := sender.SendVerification(ctx, token, email, name); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("verification email delivery failed")
	}
}

const verificationSubject = "Confirm your email address"

func verificationLink(baseURL, token string) string {
	return fmt.Sprintf("%s/users/verify/%s", baseURL, token)
}

func verificationBody(baseURL, token, name string) string {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello, " + name
	}
	link := verificationLink(baseURL, token)
	return fmt.Sprintf(
		"<p>%s!</p><p>Please confirm your email address by following this link: <a href=%q>%s</a></p>",
		greeting, link, link,
	)
}
