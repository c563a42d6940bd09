package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/Asim-Shah-2004/medicine-app/internal/shared/auth"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/config"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/errors"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/metrics"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
	"github.com/Asim-Shah-2004/medicine-app/internal/user"
)

// Handler provides HTTP handlers for account registration and login
type Handler struct {
	users  *user.Repository
	issuer *sharedauth.TokenIssuer
	cfg    config.AuthConfig
	logger *slog.Logger
}

// NewHandler creates a new auth handler
func NewHandler(users *user.Repository, issuer *sharedauth.TokenIssuer, cfg config.AuthConfig, logger *slog.Logger) *Handler {
	return &Handler{users: users, issuer: issuer, cfg: cfg, logger: logger}
}

// Routes registers the auth routes. These are the only unauthenticated
// routes besides health and metrics; the caller wraps them in the per-IP
// rate limiter.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	return r
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account with onboarding at step one
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	details := map[string]string{}
	if !validEmail(req.Email) {
		details["email"] = "valid email is required"
	}
	if req.Username == "" {
		details["username"] = "username is required"
	}
	if req.Password == "" {
		details["password"] = "password is required"
	}
	if len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	if err := ValidatePasswordStrength(req.Password); err != nil {
		writeError(w, err)
		return
	}

	hash, err := HashPassword(req.Password, h.cfg.BcryptCost)
	if err != nil {
		writeError(w, err)
		return
	}

	u := &user.User{
		ID:             types.NewID(),
		Email:          strings.ToLower(req.Email),
		Username:       req.Username,
		PasswordHash:   hash,
		OnboardingStep: 1,
	}

	if err := h.users.Create(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordUserRegistered()
	h.logger.Info("user registered", "user_id", u.ID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "registration successful",
		"user_id": u.ID,
	})
}

// LoginRequest is the login payload. Identifier is an email or username.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login verifies credentials and issues a token pair. An unknown
// identifier and a wrong password produce the same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.Identifier == "" || req.Password == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"identifier": "identifier is required",
			"password":   "password is required",
		}))
		return
	}

	u, err := h.lookup(r, req.Identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			writeError(w, errors.Unauthorized("invalid credentials"))
			return
		}
		writeError(w, err)
		return
	}

	if !CheckPassword(u.PasswordHash, req.Password) {
		writeError(w, errors.Unauthorized("invalid credentials"))
		return
	}

	tokens, err := h.issuer.Issue(u.ID)
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	h.logger.Info("user logged in", "user_id", u.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"user": map[string]any{
			"id":                  u.ID,
			"email":               u.Email,
			"username":            u.Username,
			"first_name":          u.FirstName,
			"last_name":           u.LastName,
			"onboarding_step":     u.OnboardingStep,
			"onboarding_complete": u.OnboardingComplete,
		},
	})
}

func (h *Handler) lookup(r *http.Request, identifier string) (*user.User, error) {
	if strings.Contains(identifier, "@") {
		return h.users.GetByEmail(r.Context(), strings.ToLower(identifier))
	}
	return h.users.GetByUsername(r.Context(), identifier)
}

// Refresh exchanges a refresh token for a fresh token pair
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, errors.BadRequest("refresh_token is required"))
		return
	}

	userID, err := h.issuer.Verify(req.RefreshToken, sharedauth.TokenTypeRefresh)
	if err != nil {
		writeError(w, errors.Unauthorized("invalid or expired refresh token"))
		return
	}

	// The account may have been removed since the token was minted.
	if _, err := h.users.GetByID(r.Context(), userID); err != nil {
		writeError(w, errors.Unauthorized("invalid or expired refresh token"))
		return
	}

	tokens, err := h.issuer.Issue(userID)
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// CheckAuth confirms a valid access token. Mounted behind the auth
// middleware, so reaching it at all means the token verified.
func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user_id":       sharedauth.GetUserID(r.Context()),
	})
}

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 {
		return false
	}
	return strings.Contains(s[at+1:], ".")
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
