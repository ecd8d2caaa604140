package auth

import "errors"

var (
	InvalidEmailErr          = errors.New("invalid email format")
	EmailRequiredErr         = errors.New("email is required")
	PasswordRequiredErr      = errors.New("password is required")
	ResetTokenRequiredErr    = errors.New("reset token is required")
	UnexpectedTokenPairErr   = errors.New("token response missing access or refresh token")
	UnexpectedAccessTokenErr = errors.New("refresh response missing access token")
)
