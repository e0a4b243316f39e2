package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marigold-app/accounts-api/config"
)

const (
	defaultSendGridBaseURL = "https://api.sendgrid.com"
	sendGridSendPath       = "/v3/mail/send"
	sendGridTimeout        = 10 * time.Second
)

// SendGridSender delivers mail through the SendGrid transactional API.
type SendGridSender struct {
	apiKey     string
	from       string
	appBaseURL string
	apiBaseURL string
	httpClient *http.Client
}

func NewSendGridSender(cfg config.SendGridConfig, from, appBaseURL string) *SendGridSender {
	apiBaseURL := strings.TrimRight(cfg.BaseURL, "/")
	if apiBaseURL == "" {
		apiBaseURL = defaultSendGridBaseURL
	}
	return &SendGridSender{
		apiKey:     cfg.APIKey,
		from:       from,
		appBaseURL: appBaseURL,
		apiBaseURL: apiBaseURL,
		httpClient: &http.Client{Timeout: sendGridTimeout},
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridMessage struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

// SendVerification posts a single verification message to the API.
func (s *SendGridSender) SendVerification(ctx context.Context, token, email, name string) error {
	message := sendGridMessage{
		Personalizations: []sendGridPersonalization{
			{To: []sendGridAddress{{Email: email, Name: name}}},
		},
		From:    sendGridAddress{Email: s.from},
		Subject: verificationSubject,
		Content: []sendGridContent{
			{Type: "text/html", Value: verificationBody(s.appBaseURL, token, name)},
		},
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBaseURL+sendGridSendPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
