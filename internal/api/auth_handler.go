package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/danniel-isiah-libor/talos-io/internal/api/shared"
	"github.com/danniel-isiah-libor/talos-io/internal/config"
	"github.com/danniel-isiah-libor/talos-io/internal/service/auth"
)

// AuthHandler handles operator authentication requests.
type AuthHandler struct {
	cfg       config.AuthConfig
	sessions  auth.SessionService
	verifier  auth.AccessKeyVerifier
	validator *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	cfg config.AuthConfig,
	sessions auth.SessionService,
	verifier auth.AccessKeyVerifier,
) *AuthHandler {
	return &AuthHandler{
		cfg:       cfg,
		sessions:  sessions,
		verifier:  verifier,
		validator: validator.New(),
	}
}

// Login handles the /api/auth/login endpoint. A correct access key yields a
// session token authorizing every other control-channel route.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := h.verifier.Compare(h.cfg.AccessKeyHash, req.AccessKey); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid access key")
		return
	}

	sessionID := uuid.New()
	token, err := h.sessions.IssueToken(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to issue session token", "error", err, "session_id", sessionID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to issue session token")
		return
	}

	expiresAt := time.Now().
		Add(time.Duration(h.cfg.TokenLifetimeMinutes) * time.Minute).
		UTC().
		Format(time.RFC3339)

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
