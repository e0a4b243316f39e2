package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/marigold-app/accounts-api/internal/events"
	"github.com/marigold-app/accounts-api/internal/mail"
	"github.com/marigold-app/accounts-api/internal/store"
	"github.com/marigold-app/accounts-api/types"
	"golang.org/x/crypto/bcrypt"
)

// Session tokens expire on their own; the server keeps no expiry bookkeeping.
const sessionTTL = 2 * time.Hour

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email is in use")

	// ErrInvalidCredentials covers absent users, password mismatches, and
	// unverified accounts. Callers must not distinguish between them.
	ErrInvalidCredentials = errors.New("email or password is wrong")

	// ErrAlreadyVerified is returned when resending verification to a
	// verified account.
	ErrAlreadyVerified = errors.New("verification has already been passed")

	// ErrInvalidSession is returned when a session token cannot be resolved
	// to an active session.
	ErrInvalidSession = errors.New("invalid session")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByVerificationToken(ctx context.Context, token string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateSessionToken(ctx context.Context, id int, token string) error
	MarkVerified(ctx context.Context, id int) error
	UpdateAvatar(ctx context.Context, id int, avatarURL, avatarKey string) error
}

// AccountService implements registration, login, email verification, and
// session management over a user repository.
type AccountService struct {
	repo      UserRepository
	sender    mail.Sender
	publisher *events.Publisher
	secret    []byte
}

func NewAccountService(repo UserRepository, sender mail.Sender, publisher *events.Publisher, jwtSecret string) *AccountService {
	return &AccountService{
		repo:      repo,
		sender:    sender,
		publisher: publisher,
		secret:    []byte(jwtSecret),
	}
}

// Register creates a new unverified account and sends a verification email.
// Email delivery is best-effort: a provider outage never fails registration.
func (s *AccountService) Register(ctx context.Context, email, password, name, subscription string) (types.User, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	if subscription == "" {
		subscription = types.SubscriptionStarter
	}

	user, err := s.repo.Create(ctx, types.User{
		Email:             email,
		Name:              name,
		Subscription:      subscription,
		PasswordHash:      string(hashed),
		VerificationToken: uuid.NewString(),
	})
	if err != nil {
		// Concurrent signups race at the unique index.
		if errors.Is(err, store.ErrDuplicateEmail) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, err
	}

	mail.SendBestEffort(ctx, s.sender, user.VerificationToken, user.Email, user.Name)
	s.publisher.AccountEvent(ctx, events.TypeUserRegistered, user)

	return user, nil
}

// Authenticate checks credentials, requires a verified account, and issues a
// session token persisted against the user.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (types.User, string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", ErrInvalidCredentials
		}
		return types.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, "", ErrInvalidCredentials
	}
	if !user.Verified {
		return types.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return types.User{}, "", err
	}
	if err := s.repo.UpdateSessionToken(ctx, user.ID, token); err != nil {
		return types.User{}, "", err
	}

	user.SessionToken = token
	return user, token, nil
}

// EndSession clears the stored session token unconditionally.
func (s *AccountService) EndSession(ctx context.Context, userID int) error {
	return s.repo.UpdateSessionToken(ctx, userID, "")
}

// ResolveSession validates a presented token and returns the user owning it.
// The token must be a valid unexpired JWT and must match the session token
// stored for the user, so logout invalidates it immediately.
func (s *AccountService) ResolveSession(ctx context.Context, token string) (types.User, error) {
	userID, err := s.parseToken(token)
	if err != nil {
		return types.User{}, ErrInvalidSession
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, ErrInvalidSession
	}
	if user.SessionToken == "" || user.SessionToken != token {
		return types.User{}, ErrInvalidSession
	}
	return user, nil
}

// Verify redeems a verification token. The token is single-use: it is
// cleared on success, so a second attempt reports store.ErrNotFound.
func (s *AccountService) Verify(ctx context.Context, verificationToken string) error {
	user, err := s.repo.GetByVerificationToken(ctx, verificationToken)
	if err != nil {
		return err
	}
	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return err
	}

	s.publisher.AccountEvent(ctx, events.TypeUserVerified, user)
	return nil
}

// ResendVerification re-sends the stored verification token to an unverified
// account. Unlike registration, a delivery failure here is surfaced.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}
	return s.sender.SendVerification(ctx, user.VerificationToken, user.Email, user.Name)
}

// SetAvatar records the uploaded avatar's public URL and storage key. It is
// called only after the upload itself succeeded.
func (s *AccountService) SetAvatar(ctx context.Context, userID int, avatarURL, avatarKey string) error {
	if err := s.repo.UpdateAvatar(ctx, userID, avatarURL, avatarKey); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err == nil {
		s.publisher.AccountEvent(ctx, events.TypeUserAvatarUpdated, user)
	}
	return nil
}

func (s *AccountService) issueToken(userID int) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *AccountService) parseToken(tokenString string) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, errors.New("invalid subject")
	}
	return userID, nil
}
