package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

const DefaultResetTokenExpiry = time.Hour

var ErrInvalidResetToken = errors.New("invalid or expired reset token")

type resetEntry struct {
	userID  string
	expires time.Time
	seq     uint64
}

// ResetManager issues single-use password reset tokens.
type ResetManager struct {
	mu      sync.Mutex
	pending map[string]resetEntry
	expiry  time.Duration
	seq     uint64
}

func NewResetManager(expiry time.Duration) *ResetManager {
	if expiry <= 0 {
		expiry = DefaultResetTokenExpiry
	}
	return &ResetManager{pending: make(map[string]resetEntry), expiry: expiry}
}

// Create issues a reset token for the user.
func (m *ResetManager) Create(userID string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	token := hex.EncodeToString(b)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending[token] = resetEntry{userID: userID, expires: NowTimeFunc().Add(m.expiry), seq: m.seq}
	return token, nil
}

// Consume returns the user the token was issued for and invalidates it.
func (m *ResetManager) Consume(token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.pending[token]
	if !ok {
		return "", ErrInvalidResetToken
	}
	delete(m.pending, token)
	if NowTimeFunc().After(entry.expires) {
		return "", ErrInvalidResetToken
	}
	return entry.userID, nil
}

// Latest returns the most recent unexpired token issued for userID, standing
// in for the email the real backend would send.
func (m *ResetManager) Latest(userID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		best    string
		bestSeq uint64
	)
	now := NowTimeFunc()
	for token, entry := range m.pending {
		if entry.userID == userID && entry.seq > bestSeq && !now.After(entry.expires) {
			best, bestSeq = token, entry.seq
		}
	}
	return best, best != ""
}
