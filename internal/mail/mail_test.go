package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"github.com/marigold-app/accounts-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSender_SelectsProvider(t *testing.T) {
	sender, err := NewSender(config.MailConfig{Provider: config.EmailProviderSendGrid}, "http://localhost")
	require.NoError(t, err)
	assert.IsType(t, &SendGridSender{}, sender)

	sender, err = NewSender(config.MailConfig{Provider: config.EmailProviderSMTP}, "http://localhost")
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, sender)

	_, err = NewSender(config.MailConfig{Provider: "pigeon"}, "http://localhost")
	assert.Error(t, err)
}

func TestSendGridSender_SendVerification(t *testing.T) {
	var got sendGridMessage
	var auth string

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, sendGridSendPath, r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer api.Close()

	sender := NewSendGridSender(config.SendGridConfig{
		APIKey:  "sg-key",
		BaseURL: api.URL,
	}, "no-reply@example.com", "https://app.example.com")

	err := sender.SendVerification(context.Background(), "tok-123", "ann@example.com", "Ann")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sg-key", auth)
	require.Len(t, got.Personalizations, 1)
	require.Len(t, got.Personalizations[0].To, 1)
	assert.Equal(t, "ann@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "no-reply@example.com", got.From.Email)
	assert.Equal(t, verificationSubject, got.Subject)
	require.Len(t, got.Content, 1)
	assert.Contains(t, got.Content[0].Value, "https://app.example.com/users/verify/tok-123")
}

func TestSendGridSender_APIErrorSurfaces(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad key"}]}`, http.StatusUnauthorized)
	}))
	defer api.Close()

	sender := NewSendGridSender(config.SendGridConfig{APIKey: "bad", BaseURL: api.URL}, "no-reply@example.com", "https://app.example.com")

	err := sender.SendVerification(context.Background(), "tok", "ann@example.com", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSMTPSender_SendVerification(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	sender := NewSMTPSender(config.SMTPConfig{
		Host:     "mail.example.com",
		Port:     587,
		Username: "mailer",
		Password: "secret",
	}, "no-reply@example.com", "https://app.example.com")
	sender.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = msg
		return nil
	}

	err := sender.SendVerification(context.Background(), "tok-456", "ann@example.com", "Ann")
	require.NoError(t, err)

	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"ann@example.com"}, gotTo)

	message := string(gotMsg)
	assert.Contains(t, message, "Subject: "+verificationSubject)
	assert.Contains(t, message, "To: ann@example.com")
	assert.Contains(t, message, "https://app.example.com/users/verify/tok-456")
	assert.Contains(t, message, "Hello, Ann")
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	sender := NewSMTPSender(config.SMTPConfig{Host: "mail.example.com", Port: 587}, "no-reply@example.com", "https://app.example.com")
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("sendMail should not be called")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.SendVerification(ctx, "tok", "ann@example.com", "")
	assert.Error(t, err)
}

func TestVerificationBody_WithoutName(t *testing.T) {
	body := verificationBody("https://app.example.com", "tok", "")
	assert.True(t, strings.Contains(body, "Hello!"))
	assert.Contains(t, body, "/users/verify/tok")
}
