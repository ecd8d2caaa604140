package mockapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUserID stores the authenticated user ID
const ContextKeyUserID ContextKey = "user_id"

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("handler panicked")
				writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			}
		}()
		next(w, r)
	}
}

// CountingMiddleware counts requests against pattern, see Server.Calls.
func (s *Server) CountingMiddleware(pattern string) func(http.HandlerFunc) http.HandlerFunc {
	counter := s.counter(pattern)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			counter.Add(1)
			next(w, r)
		}
	}
}

// RequireAuth is middleware that validates a Bearer access token and puts
// the user ID in the request context.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, "not_authenticated", "Authentication credentials were not provided.", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			writeJSONError(w, "not_authenticated", "Invalid Authorization header format.", http.StatusUnauthorized)
			return
		}

		claims, err := s.access.Verify(parts[1])
		if err != nil {
			s.logger.Debug().Err(err).Msg("bearer token rejected")
			writeJSONError(w, tokenNotValid, "Given token not valid for any token type", http.StatusUnauthorized)
			return
		}
		user, err := s.users.GetByID(claims.UserID)
		if err != nil || user.Blocked {
			writeJSONError(w, tokenNotValid, "User not found or inactive.", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUserID, user.ID)
		next(w, r.WithContext(ctx))
	}
}
