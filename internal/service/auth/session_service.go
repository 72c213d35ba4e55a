package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionService defines operations for managing operator session tokens.
// The control API has a single operator authenticated by access key; a
// successful login issues a session token that authorizes every subsequent
// request until it expires.
type SessionService interface {
	// IssueToken creates a signed session token for the given session ID.
	// Returns the token string or an error if signing fails.
	IssueToken(ctx context.Context, sessionID uuid.UUID) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns the claims if the token is valid, or an error if validation
	// fails (expired, invalid signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims carried by a session token.
type Claims struct {
	// SessionID is the unique identifier of the login session the token
	// was issued for.
	SessionID uuid.UUID `json:"sid,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
