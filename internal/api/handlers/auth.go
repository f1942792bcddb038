package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherbase/server/internal/api/middleware"
	"github.com/gatherbase/server/internal/api/respond"
	"github.com/gatherbase/server/internal/auth"
	"github.com/gatherbase/server/internal/domain/users"
)

type AuthHandler struct {
	Users  *users.Service
	Tokens *auth.JWTManager
}

func NewAuthHandler(usersService *users.Service, tokens *auth.JWTManager) *AuthHandler {
	return &AuthHandler{Users: usersService, Tokens: tokens}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *users.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Users.Register(r.Context(), users.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidInput):
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
		case errors.Is(err, users.ErrDuplicateIdentity):
			respond.Error(w, r, http.StatusBadRequest, "Username or email already exists", err)
		default:
			respond.Internal(w, r, err)
		}
		return
	}

	token, err := h.Tokens.Generate(user.ID, user.Username, user.Email, user.Role)
	if err != nil {
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidInput):
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
		case errors.Is(err, users.ErrInvalidCredentials):
			respond.Error(w, r, http.StatusUnauthorized, "Invalid credentials", err)
		default:
			respond.Internal(w, r, err)
		}
		return
	}

	token, err := h.Tokens.Generate(user.ID, user.Username, user.Email, user.Role)
	if err != nil {
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respond.Error(w, r, http.StatusUnauthorized, "Authentication required", auth.ErrMissingToken)
		return
	}

	user, err := h.Users.GetByID(r.Context(), claims.UserID())
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			respond.Error(w, r, http.StatusNotFound, "User not found", err)
			return
		}
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"user": user})
}
