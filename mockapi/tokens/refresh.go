package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultRefreshTokenLength = 32 // bytes, hex encoded on the wire
	DefaultRefreshTokenExpiry = 24 * time.Hour
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field (a random string).
type StoredRefreshToken struct {
	Token  string    // The actual random token string (sent to client)
	UserID string    // Server-side metadata
	Iat    time.Time // Server-side metadata (issued at time)
}

// RefreshRepo manages server-side storage of refresh token metadata, keyed
// by the opaque token string.
type RefreshRepo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	DeleteAll() error
}

// RefreshManager handles refresh token creation and validation. Tokens are
// not rotated when they are exchanged for a new access token.
type RefreshManager struct {
	repo   RefreshRepo
	length int
	expiry time.Duration
}

// NewRefreshManager creates a new refresh token manager
func NewRefreshManager(repo RefreshRepo, expiry time.Duration) *RefreshManager {
	if expiry <= 0 {
		expiry = DefaultRefreshTokenExpiry
	}
	return &RefreshManager{
		repo:   repo,
		length: DefaultRefreshTokenLength,
		expiry: expiry,
	}
}

// Create generates a new refresh token and stores it
func (m *RefreshManager) Create(userID string) (string, error) {
	tokenBytes := make([]byte, m.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

// Validate returns the stored token if it exists and has not expired.
// Expired tokens are removed.
func (m *RefreshManager) Validate(token string) (*StoredRefreshToken, error) {
	if token == "" {
		return nil, ErrInvalidRefreshToken
	}
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, fmt.Errorf("%w: expired", ErrInvalidRefreshToken)
	}
	return rt, nil
}

// IsExpired checks if a refresh token has expired
func (m *RefreshManager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.expiry
}

// Delete removes a refresh token from storage
func (m *RefreshManager) Delete(token string) error {
	return m.repo.Delete(token)
}

// RevokeAll removes every stored refresh token.
func (m *RefreshManager) RevokeAll() error {
	return m.repo.DeleteAll()
}
