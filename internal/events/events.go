package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marigold-app/accounts-api/config"
	"github.com/marigold-app/accounts-api/types"
	"github.com/rs/zerolog/log"
)

// Account lifecycle event types.
const (
	TypeUserRegistered    = "user.registered"
	TypeUserVerified      = "user.verified"
	TypeUserAvatarUpdated = "user.avatar_updated"
)

// ChannelAccountEvents is the topic/queue account events are published on.
const ChannelAccountEvents = "account-events"

// AccountEvent is the JSON payload published for account lifecycle changes.
type AccountEvent struct {
	Type   string    `json:"type"`
	UserID int       `json:"user_id"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
}

// Backend defines the broker-agnostic publish operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher publishes account events over a configured backend. A nil
// Publisher is valid and publishes nothing.
type Publisher struct {
	backend Backend
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// NewFromConfig constructs a Publisher over the configured backend. An empty
// backend name disables publishing and yields a nil Publisher.
func NewFromConfig(ctx context.Context, cfg config.EventsConfig) (*Publisher, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case config.EventsBackendRabbitMQ:
		backend, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return NewPublisher(backend), nil
	case config.EventsBackendPubSub:
		backend, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return NewPublisher(backend), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// AccountEvent publishes an account lifecycle event best-effort. Failures are
// logged and never surfaced to the caller.
func (p *Publisher) AccountEvent(ctx context.Context, eventType string, user types.User) {
	if p == nil || p.backend == nil {
		return
	}

	data, err := json.Marshal(AccountEvent{
		Type:   eventType,
		UserID: user.ID,
		Email:  user.Email,
		At:     time.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to encode account event")
		return
	}

	attrs := map[string]string{"type": eventType}
	if _, err := p.backend.Publish(ctx, ChannelAccountEvents, data, attrs); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to publish account event")
	}
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
