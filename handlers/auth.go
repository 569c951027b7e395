package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fireops/auth"
	"fireops/middleware"
	"fireops/models"
)

// Credentials is the user store seen by the login flow.
type Credentials interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetPasswordHash(ctx context.Context, userID string) (string, error)
	TouchLogin(ctx context.Context, userID string, at time.Time) error
}

type AuthHandler struct {
	users      Credentials
	jwtManager *auth.JWTManager
	now        Clock
}

func NewAuthHandler(users Credentials, jwtManager *auth.JWTManager, now Clock) *AuthHandler {
	return &AuthHandler{users: users, jwtManager: jwtManager, now: now}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         *models.User `json:"user"`
}

// Login checks username and password and issues a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFrom(r.Context())

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		log.Info().Err(err).Str("username", req.Username).Msg("login failed: unknown user")
		writeError(w, auth.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
		return
	}
	passwordHash, err := h.users.GetPasswordHash(r.Context(), user.UserID)
	if err != nil {
		log.Warn().Err(err).Str("username", req.Username).Msg("login failed: no password hash")
		writeError(w, auth.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
		return
	}
	if err := auth.CheckPassword(req.Password, passwordHash); err != nil {
		log.Info().Str("username", req.Username).Msg("login failed: wrong password")
		writeError(w, auth.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
		return
	}

	now := h.now()
	if err := h.users.TouchLogin(r.Context(), user.UserID, now); err != nil {
		log.Warn().Err(err).Str("username", user.Username).Msg("failed to record last login")
	} else {
		user.LastLogin = &now
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("failed to generate token")
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}
	refreshToken, err := h.jwtManager.GenerateRefreshToken(user)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("failed to generate refresh token")
		writeError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("user logged in")
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.jwtManager.TokenExpiration().Seconds()),
		User:         user,
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// RefreshToken trades a refresh token for a new access token.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims, err := h.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}
	user, err := h.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, "User not found", http.StatusUnauthorized)
		return
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		middleware.LoggerFrom(r.Context()).Error().Err(err).Str("username", user.Username).Msg("failed to generate token")
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, RefreshTokenResponse{
		Token:     token,
		ExpiresIn: int(h.jwtManager.TokenExpiration().Seconds()),
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":       user,
		"identifier": user.Identifier(),
	})
}
