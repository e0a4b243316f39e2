package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSubscription(t *testing.T) {
	assert.True(t, ValidSubscription(SubscriptionStarter))
	assert.True(t, ValidSubscription(SubscriptionPro))
	assert.True(t, ValidSubscription(SubscriptionBusiness))

	assert.False(t, ValidSubscription(""))
	assert.False(t, ValidSubscription("platinum"))
	assert.False(t, ValidSubscription("Starter"))
}

func TestUser_SecretsNeverSerialized(t *testing.T) {
	user := User{
		ID:                1,
		Email:             "ann@example.com",
		Name:              "Ann",
		Subscription:      SubscriptionStarter,
		PasswordHash:      "bcrypt-hash",
		AvatarKey:         "avatars/abc.png",
		SessionToken:      "session-jwt",
		VerificationToken: "verify-token",
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, "bcrypt-hash")
	assert.NotContains(t, raw, "session-jwt")
	assert.NotContains(t, raw, "verify-token")
	assert.NotContains(t, raw, "avatars/abc.png")
	assert.Contains(t, raw, "ann@example.com")
}
