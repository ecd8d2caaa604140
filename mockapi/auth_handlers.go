package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-learn-admin/auth"
	"github.com/jrsteele09/go-learn-admin/mockapi/users"
)

// LoginHandler exchanges email and password for an access/refresh pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error.")
			return
		}

		missing := map[string][]string{}
		if strings.TrimSpace(req.Email) == "" {
			missing["email"] = []string{fieldRequired}
		}
		if req.Password == "" {
			missing["password"] = []string{fieldRequired}
		}
		if len(missing) > 0 {
			writeFieldErrors(w, missing)
			return
		}

		user, err := s.users.GetByEmail(req.Email)
		if err != nil || user.Blocked || !user.CheckPassword(req.Password) {
			writeJSONError(w, "no_active_account", "No active account found with the given credentials", http.StatusUnauthorized)
			return
		}

		access, err := s.access.Issue(user)
		if err != nil {
			s.logger.Error().Err(err).Msg("issue access token")
			writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			return
		}
		refresh, err := s.tokens.Create(user.ID)
		if err != nil {
			s.logger.Error().Err(err).Msg("issue refresh token")
			writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			return
		}

		if err := s.users.RecordLogin(user.ID, time.Now()); err != nil {
			s.logger.Error().Err(err).Msg("record login")
			writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			return
		}

		s.logger.Info().Str("email", user.Email).Msg("user logged in")
		writeJSON(w, http.StatusOK, auth.TokenPair{Access: access, Refresh: refresh})
	}
}

// RefreshHandler issues a new access token. The refresh token is not rotated.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RefreshRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error.")
			return
		}
		if req.Refresh == "" {
			writeFieldErrors(w, map[string][]string{"refresh": {fieldRequired}})
			return
		}

		stored, err := s.tokens.Validate(req.Refresh)
		if err != nil {
			s.logger.Debug().Err(err).Msg("refresh token rejected")
			writeJSONError(w, tokenNotValid, "Token is invalid or expired", http.StatusUnauthorized)
			return
		}
		user, err := s.users.GetByID(stored.UserID)
		if err != nil || user.Blocked {
			writeJSONError(w, tokenNotValid, "User not found or inactive.", http.StatusUnauthorized)
			return
		}

		access, err := s.access.Issue(user)
		if err != nil {
			s.logger.Error().Err(err).Msg("issue access token")
			writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			return
		}
		writeJSON(w, http.StatusOK, auth.RefreshResponse{Access: access})
	}
}

// PasswordResetHandler always answers 202 so callers cannot discover
// registered addresses.
func (s *Server) PasswordResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.PasswordResetRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error.")
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			writeFieldErrors(w, map[string][]string{"email": {fieldRequired}})
			return
		}

		if user, err := s.users.GetByEmail(req.Email); err == nil && !user.Blocked {
			if _, err := s.resets.Create(user.ID); err != nil {
				s.logger.Error().Err(err).Msg("issue reset token")
			} else {
				s.logger.Info().Str("email", user.Email).Msg("password reset token issued")
			}
		}
		writeJSON(w, http.StatusAccepted, map[string]string{})
	}
}

// PasswordResetConfirmHandler sets a new password using a reset token.
func (s *Server) PasswordResetConfirmHandler() http.HandlerFunc {
	validator := auth.NewValidator()
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.PasswordResetConfirmRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error.")
			return
		}

		fields := map[string][]string{}
		if req.Token == "" {
			fields["token"] = []string{fieldRequired}
		}
		if err := validator.ValidatePasswordStrength(req.NewPassword); err != nil {
			fields["new_password"] = []string{err.Error()}
		}
		if len(fields) > 0 {
			writeFieldErrors(w, fields)
			return
		}

		userID, err := s.resets.Consume(req.Token)
		if err != nil {
			writeFieldErrors(w, map[string][]string{"token": {"Invalid or expired token."}})
			return
		}
		user, err := s.users.GetByID(userID)
		if err != nil {
			writeFieldErrors(w, map[string][]string{"token": {"Invalid or expired token."}})
			return
		}
		hash, err := users.HashPassword(req.NewPassword)
		if err != nil {
			s.logger.Error().Err(err).Msg("hash password")
			writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			return
		}
		if err := s.users.SetPasswordHash(user.ID, hash); err != nil {
			s.logger.Error().Err(err).Msg("store password")
			writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			return
		}

		s.logger.Info().Str("email", user.Email).Msg("password reset")
		writeJSON(w, http.StatusOK, map[string]string{})
	}
}
