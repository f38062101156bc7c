package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/scpnet/authserver/internal/auth"
	"github.com/scpnet/authserver/internal/services"
	"github.com/scpnet/authserver/internal/store"
	"github.com/scpnet/authserver/types"
)

// AuthHandler provides the authentication and personnel endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthRouter registers the API routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, codec *auth.TokenCodec) {
	handler := NewAuthHandler(authService)
	requireAuth := RequireAuth(codec)

	r.Get("/", handler.Status)
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(requireAuth).Get("/profile", handler.Profile)
	r.With(requireAuth, RequireAccessLevel(types.AccessLevelCouncil)).
		Get("/admin/users", handler.ListUsers)
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	AccessLevel string `json:"accessLevel"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    types.PublicUser `json:"user"`
}

type UserListResponse struct {
	Message string             `json:"message"`
	Users   []types.PublicUser `json:"users"`
}

// Status answers the unauthenticated API banner.
func (h *AuthHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Personnel records API operational."})
}

// Register creates a new account and returns a confirmation. No token
// is issued; the client logs in afterwards.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required.")
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Username, req.Password, req.AccessLevel); err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, "Validation failed: "+verr.Error())
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "Username already exists.")
		default:
			writeError(w, http.StatusInternalServerError, "Server error during registration.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully. You can now log in."})
}

// Login verifies credentials and returns a bearer token plus the public
// user projection.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required.")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Server error during login.")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message: "Login successful.",
		Token:   token,
		User:    user.Public(),
	})
}

// Profile returns the account behind the verified token.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	user, err := h.authService.Profile(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Server error fetching profile.")
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// ListUsers returns every account, newest first. Reached only through
// the council access gate.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error fetching users.")
		return
	}

	projections := make([]types.PublicUser, 0, len(users))
	for _, user := range users {
		projections = append(projections, user.Public())
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Message: "Users fetched successfully.",
		Users:   projections,
	})
}
