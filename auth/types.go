package auth

// Auth endpoints, relative to the API base URL.
const (
	RouteLogin                = "/auth/login/"
	RouteTokenRefresh         = "/auth/token/refresh/"
	RoutePasswordReset        = "/auth/password-reset/"
	RoutePasswordResetConfirm = "/auth/password-reset-confirm/"
)

// LoginRequest is the body of POST /auth/login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is returned from a successful login.
type TokenPair struct {
	// Access is the short-lived bearer token.
	// Usage: "Authorization: Bearer <access>"
	Access string `json:"access"`

	// Refresh is exchanged at /auth/token/refresh/ for a new access token.
	// It is not rotated by the refresh endpoint.
	Refresh string `json:"refresh"`
}

// RefreshRequest is the body of POST /auth/token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse carries the new access token.
type RefreshResponse struct {
	Access string `json:"access"`
}

// PasswordResetRequest starts the reset flow; the backend mails a token.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest sets a new password using the mailed token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
