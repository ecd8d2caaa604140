package sessions

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
	"golang.org/x/oauth2"
)

// AccessClaims are the access token claims the admin client cares about.
// The token is decoded without verifying its signature: the client only
// reads them for display, the API remains the authority.
type AccessClaims struct {
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim is in the past.
func (c *AccessClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

type accessTokenClaims struct {
	Email  string `json:"email,omitempty"`
	UserID any    `json:"user_id,omitempty"` // Django simplejwt puts the id here
	jwt.RegisteredClaims
}

// Claims decodes the current access token.
func (s *Session) Claims() (*AccessClaims, error) {
	raw := s.AccessToken()
	if raw == "" {
		return nil, apierrors.ErrNotAuthenticated
	}
	return ParseAccessClaims(raw)
}

// ParseAccessClaims decodes a JWT access token without verifying it.
func ParseAccessClaims(raw string) (*AccessClaims, error) {
	var claims accessTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("[ParseAccessClaims] %w: %v", apierrors.ErrInvalidToken, err)
	}

	ac := &AccessClaims{
		Subject: claims.Subject,
		Email:   claims.Email,
	}
	if ac.Subject == "" && claims.UserID != nil {
		ac.Subject = fmt.Sprint(claims.UserID)
	}
	if claims.IssuedAt != nil {
		ac.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		ac.ExpiresAt = claims.ExpiresAt.Time
	}
	return ac, nil
}

// TokenSource exposes the session's current access token to x/oauth2 clients.
func (s *Session) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{s: s}
}

type sessionTokenSource struct {
	s *Session
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	raw := ts.s.AccessToken()
	if raw == "" {
		return nil, apierrors.ErrNotAuthenticated
	}
	tok := &oauth2.Token{
		AccessToken:  raw,
		TokenType:    "Bearer",
		RefreshToken: ts.s.RefreshToken(),
	}
	// Opaque tokens have no expiry; oauth2 treats a zero Expiry as never expiring.
	if claims, err := ParseAccessClaims(raw); err == nil {
		tok.Expiry = claims.ExpiresAt
	}
	return tok, nil
}
