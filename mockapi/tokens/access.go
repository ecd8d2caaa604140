package tokens

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-learn-admin/mockapi/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const (
	DefaultAccessTokenTTL = 5 * time.Minute
	tokenTypeAccess       = "access"
	claimGeneration       = "gen"
)

var ErrInvalidAccessToken = errors.New("invalid access token")

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	UserID string
	Email  string
	JTI    string
	Expiry time.Time
}

// AccessIssuer creates and verifies short-lived HS256 access tokens.
// Every token carries the issuer's generation; ExpireAll bumps the
// generation so all earlier tokens stop verifying.
type AccessIssuer struct {
	signer     Signer
	ttl        time.Duration
	generation atomic.Int64
}

// NewAccessIssuer creates an issuer. A non-positive ttl uses DefaultAccessTokenTTL.
func NewAccessIssuer(signer Signer, ttl time.Duration) *AccessIssuer {
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &AccessIssuer{signer: signer, ttl: ttl}
}

// Issue creates an access token for the user
func (a *AccessIssuer) Issue(user *users.User) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"sub":           user.ID,               // Users unique ID
		"user_id":       user.ID,               // Same ID under the name the platform API uses
		"email":         user.Email,            // Shown by the admin CLI
		"token_type":    tokenTypeAccess,       // Distinguishes access from any other JWT
		"iat":           now.Unix(),            // Issued At
		"exp":           now.Add(a.ttl).Unix(), // Expiry
		"jti":           uuid.New().String(),   // Unique token ID
		claimGeneration: a.generation.Load(),   // See ExpireAll
	}

	signed, err := a.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and generation of a raw token.
func (a *AccessIssuer) Verify(raw string) (*AccessClaims, error) {
	claims := jwtlib.MapClaims{}
	token, err := jwtlib.ParseWithClaims(raw, claims, a.signer.GetVerificationKey,
		jwtlib.WithValidMethods([]string{a.signer.GetSigningMethod().Alg()}),
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}

	if tt, _ := claims["token_type"].(string); tt != tokenTypeAccess {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidAccessToken)
	}
	gen, _ := claims[claimGeneration].(float64)
	if int64(gen) < a.generation.Load() {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidAccessToken)
	}

	ac := &AccessClaims{}
	ac.UserID, _ = claims["sub"].(string)
	ac.Email, _ = claims["email"].(string)
	ac.JTI, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ac.Expiry = exp.Time
	}
	return ac, nil
}

// ExpireAll invalidates every access token issued so far.
func (a *AccessIssuer) ExpireAll() {
	a.generation.Add(1)
}

// TTL returns the lifetime of newly issued tokens.
func (a *AccessIssuer) TTL() time.Duration {
	return a.ttl
}
