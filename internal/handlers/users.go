package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/marigold-app/accounts-api/internal/services"
	"github.com/marigold-app/accounts-api/internal/store"
	"github.com/marigold-app/accounts-api/types"
	"github.com/rs/zerolog/log"
)

const (
	maxMultipartMemory = 8 << 20
	maxAvatarBytes     = 5 << 20
	formFieldAvatar    = "avatar"
)

// UserHandler provides the account HTTP endpoints.
type UserHandler struct {
	accounts *services.AccountService
	avatars  *services.AvatarService
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(accounts *services.AccountService, avatars *services.AvatarService) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		avatars:  avatars,
	}
}

// UserRouter registers account routes on the given router.
func UserRouter(r chi.Router, accounts *services.AccountService, avatars *services.AvatarService) {
	handler := NewUserHandler(accounts, avatars)

	r.Get("/verify/{token}", handler.Verify)
	r.Post("/verify", handler.ResendVerification)
	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.With(handler.RequireSession).Post("/logout", handler.Logout)
	r.With(handler.RequireSession).Get("/current", handler.Current)
	r.With(handler.RequireSession).Patch("/avatars", handler.Avatars)
}

// RequireSession resolves the bearer token to an active session and injects
// the owning user into the request context. Anything short of a valid,
// currently-stored token is a 401 before the handler runs.
func (h *UserHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authorized")
			return
		}

		user, err := h.accounts.ResolveSession(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authorized")
			return
		}

		ctx := context.WithValue(r.Context(), contextUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Signup creates a new unverified account.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if req.Subscription != "" && !types.ValidSubscription(req.Subscription) {
		writeError(w, http.StatusBadRequest, "invalid subscription")
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Email, req.Password, req.Name, req.Subscription)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email is in use")
			return
		}
		log.Error().Err(err).Msg("signup failed")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, userSummary(user))
}

// Login verifies credentials and returns a session token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	_, token, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "email or password is wrong")
			return
		}
		log.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// Logout ends the current session.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	if err := h.accounts.EndSession(r.Context(), user.ID); err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("logout failed")
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Current returns the authenticated user's summary.
func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	writeJSON(w, http.StatusOK, userSummary(user))
}

// Avatars uploads a new avatar and records it on the user. The record is
// touched only after the upload succeeded.
func (h *UserHandler) Avatars(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	file, header, err := avatarFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	key, avatarURL, err := h.avatars.Store(r.Context(), header.Filename, file, header.Size, contentType, user.AvatarKey)
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("avatar upload failed")
		writeError(w, http.StatusInternalServerError, "failed to upload avatar")
		return
	}

	if err := h.accounts.SetAvatar(r.Context(), user.ID, avatarURL, key); err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("failed to record avatar")
		writeError(w, http.StatusInternalServerError, "failed to update avatar")
		return
	}

	writeJSON(w, http.StatusOK, AvatarResponse{AvatarURL: avatarURL})
}

// Verify redeems a verification token from the emailed link.
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))

	if err := h.accounts.Verify(r.Context(), token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Error().Err(err).Msg("verification failed")
		writeError(w, http.StatusInternalServerError, "failed to verify")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "verification successful"})
}

// ResendVerification re-sends the verification email for an unverified account.
func (h *UserHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "missing required field email")
		return
	}

	if err := h.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, services.ErrAlreadyVerified):
			writeError(w, http.StatusBadRequest, "verification has already been passed")
		default:
			log.Error().Err(err).Str("email", req.Email).Msg("resend verification failed")
			writeError(w, http.StatusInternalServerError, "failed to send verification email")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "verification email sent"})
}

type SignupRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Subscription string `json:"subscription"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// UserSummary is the safe representation of a user in API responses.
type UserSummary struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Verified     bool   `json:"verified"`
}

func userSummary(user types.User) UserSummary {
	return UserSummary{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Subscription: user.Subscription,
		AvatarURL:    user.AvatarURL,
		Verified:     user.Verified,
	}
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

func avatarFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, nil, errors.New("invalid multipart form")
	}

	file, header, err := r.FormFile(formFieldAvatar)
	if err != nil {
		return nil, nil, errors.New("avatar file is required")
	}
	if header.Size > maxAvatarBytes {
		_ = file.Close()
		return nil, nil, errors.New("avatar file too large")
	}
	return file, header, nil
}
