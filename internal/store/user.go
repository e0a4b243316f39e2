package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/marigold-app/accounts-api/types"
)

const pqUniqueViolation = "23505"

const userColumns = `id, email, name, subscription, password_hash,
		avatar_url, avatar_key, session_token, verified, verification_token,
		created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE verification_token = $1`
	return r.getOne(ctx, query, token)
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (email, name, subscription, password_hash,
			avatar_url, avatar_key, session_token, verified, verification_token,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.Name,
		user.Subscription,
		user.PasswordHash,
		nullable(user.AvatarURL),
		nullable(user.AvatarKey),
		nullable(user.SessionToken),
		user.Verified,
		nullable(user.VerificationToken),
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateSessionToken sets or clears the user's active session token.
// An empty token is stored as NULL.
func (r *UserRepository) UpdateSessionToken(ctx context.Context, id int, token string) error {
	const query = `
		UPDATE users
		SET session_token = $1,
			updated_at = $2
		WHERE id = $3`
	return r.exec(ctx, query, nullable(token), time.Now(), id)
}

// MarkVerified flips the verified flag and clears the verification token.
func (r *UserRepository) MarkVerified(ctx context.Context, id int) error {
	const query = `
		UPDATE users
		SET verified = TRUE,
			verification_token = NULL,
			updated_at = $1
		WHERE id = $2`
	return r.exec(ctx, query, time.Now(), id)
}

// UpdateAvatar stores the public URL and storage key of the user's avatar.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id int, avatarURL, avatarKey string) error {
	const query = `
		UPDATE users
		SET avatar_url = $1,
			avatar_key = $2,
			updated_at = $3
		WHERE id = $4`
	return r.exec(ctx, query, nullable(avatarURL), nullable(avatarKey), time.Now(), id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (types.User, error) {
	var (
		user              types.User
		avatarURL         sql.NullString
		avatarKey         sql.NullString
		sessionToken      sql.NullString
		verificationToken sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Subscription,
		&user.PasswordHash,
		&avatarURL,
		&avatarKey,
		&sessionToken,
		&user.Verified,
		&verificationToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	user.AvatarURL = avatarURL.String
	user.AvatarKey = avatarKey.String
	user.SessionToken = sessionToken.String
	user.VerificationToken = verificationToken.String
	return user, nil
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
