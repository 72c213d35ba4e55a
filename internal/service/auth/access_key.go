package auth

import "golang.org/x/crypto/bcrypt"

// AccessKeyVerifier defines the interface for checking an operator access key
// against its stored hash.
type AccessKeyVerifier interface {
	// Compare compares a hashed access key with its possible plaintext equivalent.
	// Returns nil on success, or an error on failure (e.g., mismatch).
	Compare(hashedKey, key string) error
}

// BcryptVerifier implements AccessKeyVerifier using bcrypt.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare implements the AccessKeyVerifier interface using bcrypt.
func (v *BcryptVerifier) Compare(hashedKey, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(key))
}
