package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MockSessionService is a mock implementation of the SessionService interface
// for testing. This is the single canonical mock implementation to be used in
// all tests.
type MockSessionService struct {
	// Function fields for custom behaviors
	IssueTokenFunc    func(ctx context.Context, sessionID uuid.UUID) (string, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*Claims, error)

	// Fixed fields for simple cases
	Token           string  // Default token to return
	TokenError      error   // Default error for token generation
	ValidationError error   // Default error for token validation
	Claims          *Claims // Default claims to return
}

// NewMockSessionService creates a new mock session service with default values.
// By default, it returns minimal values that will pass simple validation.
func NewMockSessionService() *MockSessionService {
	now := time.Now()
	sessionID := uuid.New()

	return &MockSessionService{
		Token: "mock-session-token",
		Claims: &Claims{
			SessionID: sessionID,
			Subject:   "operator",
			IssuedAt:  now,
			ExpiresAt: now.Add(1 * time.Hour),
			ID:        uuid.New().String(),
		},
	}
}

// IssueToken implements the SessionService.IssueToken method.
func (m *MockSessionService) IssueToken(ctx context.Context, sessionID uuid.UUID) (string, error) {
	if m.IssueTokenFunc != nil {
		return m.IssueTokenFunc(ctx, sessionID)
	}
	return m.Token, m.TokenError
}

// ValidateToken implements the SessionService.ValidateToken method.
func (m *MockSessionService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	return m.Claims, m.ValidationError
}

// WithValidationError sets a custom token validation error and returns the mock.
func (m *MockSessionService) WithValidationError(err error) *MockSessionService {
	m.ValidationError = err
	return m
}

// WithClaims sets custom claims and returns the mock.
func (m *MockSessionService) WithClaims(claims *Claims) *MockSessionService {
	m.Claims = claims
	return m
}
