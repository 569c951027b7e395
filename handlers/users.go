package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fireops/auth"
	"fireops/middleware"
	"fireops/models"
)

// UserStore is the user and password side of the store.
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	PutUser(ctx context.Context, user *models.User) error
	StorePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// UserHandler is the admin-only account management surface.
type UserHandler struct {
	users UserStore
}

func NewUserHandler(users UserStore) *UserHandler {
	return &UserHandler{users: users}
}

type CreateUserRequest struct {
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Password    string          `json:"password"`
	Role        models.UserRole `json:"role"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// UserID derives the document id of a username.
func UserID(username string) string {
	return "user-" + strings.ToLower(strings.TrimSpace(username))
}

// GetUsers lists every account.
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// CreateUser registers an account. The role defaults to technician.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFrom(r.Context())
	admin, _ := middleware.GetUserFromContext(r.Context())

	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, "Username and password are required", http.StatusBadRequest)
		return
	}
	role := models.RoleTechnician
	if req.Role != "" {
		if role = models.ParseUserRole(string(req.Role)); role == "" {
			writeError(w, "Role must be ADMIN or TECHNICIAN", http.StatusBadRequest)
			return
		}
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.users.GetUserByUsername(r.Context(), req.Username); err == nil {
		writeError(w, "Username already exists", http.StatusConflict)
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		writeServiceError(w, r, err)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		writeError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		UserID:      UserID(req.Username),
		Username:    req.Username,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        role,
	}
	if err := h.users.PutUser(r.Context(), user); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.users.StorePasswordHash(r.Context(), user.UserID, passwordHash); err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info().Str("by", admin.Identifier()).Str("username", user.Username).Str("role", string(user.Role)).Msg("user created")
	writeJSON(w, http.StatusCreated, user)
}

// ResetPassword sets a new password for the user named in the path.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	admin, _ := middleware.GetUserFromContext(r.Context())
	userID := r.PathValue("id")

	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	target, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}
	if err := h.users.StorePasswordHash(r.Context(), userID, passwordHash); err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.LoggerFrom(r.Context()).Info().Str("by", admin.Identifier()).Str("username", target.Username).Msg("password reset")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset successfully",
	})
}
