package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/markdave123-py/Devmate/internal/models"
	"github.com/markdave123-py/Devmate/internal/services"
)

// Authenticator creates users and exchanges credentials for tokens.
type Authenticator interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

type AuthHandler struct {
	users  Authenticator
	logger *slog.Logger
}

func NewAuthHandler(users Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: orDefault(logger)}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.users.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}
