package auth

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
)

// Validator holds the client-side checks run before any auth request is sent.
// Failures are *apierrors.ValidationError values keyed by request field.
type Validator struct {
	minPasswordLength int
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{minPasswordLength: 8}
}

// ValidateLogin validates login credentials
func (v *Validator) ValidateLogin(email, password string) error {
	errs := apierrors.NewValidationError()
	if err := v.ValidateEmail(email); err != nil {
		errs.Add("email", err.Error())
	}
	if password == "" {
		errs.Add("password", PasswordRequiredErr.Error())
	}
	return errs.ErrOrNil()
}

// ValidatePasswordReset validates the reset request body
func (v *Validator) ValidatePasswordReset(email string) error {
	errs := apierrors.NewValidationError()
	if err := v.ValidateEmail(email); err != nil {
		errs.Add("email", err.Error())
	}
	return errs.ErrOrNil()
}

// ValidatePasswordResetConfirm validates the reset token and the new password
func (v *Validator) ValidatePasswordResetConfirm(token, newPassword string) error {
	errs := apierrors.NewValidationError()
	if strings.TrimSpace(token) == "" {
		errs.Add("token", ResetTokenRequiredErr.Error())
	}
	if err := v.ValidatePasswordStrength(newPassword); err != nil {
		errs.Add("new_password", err.Error())
	}
	return errs.ErrOrNil()
}

// ValidateEmail checks presence and basic address syntax
func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return EmailRequiredErr
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return InvalidEmailErr
	}
	return nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func (v *Validator) ValidatePasswordStrength(password string) error {
	if password == "" {
		return PasswordRequiredErr
	}
	if len(password) < v.minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", v.minPasswordLength)
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
