package types

import "time"

// Subscription plan values accepted for a user account.
const (
	SubscriptionStarter  = "starter"
	SubscriptionPro      = "pro"
	SubscriptionBusiness = "business"
)

// ValidSubscription reports whether the given plan is one of the known values.
func ValidSubscription(plan string) bool {
	switch plan {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	}
	return false
}

// User represents an account in the system.
// It contains identity, verification state, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the unique address the user logs in with.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Subscription is the user's plan ("starter", "pro", "business").
	Subscription string `json:"subscription" db:"subscription"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// AvatarURL is the public URL of the user's avatar, empty until the
	// first upload.
	AvatarURL string `json:"avatar_url,omitempty" db:"avatar_url"`

	// AvatarKey is the object-storage key of the current avatar asset.
	// It is kept so a later upload can replace the old object.
	AvatarKey string `json:"-" db:"avatar_key"`

	// SessionToken is the token of the active login session, empty when
	// the user is logged out.
	SessionToken string `json:"-" db:"session_token"`

	// Verified reports whether the user has confirmed their email address.
	Verified bool `json:"verified" db:"verified"`

	// VerificationToken is the one-time code emailed at signup. It is
	// cleared once verification succeeds.
	VerificationToken string `json:"-" db:"verification_token"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
