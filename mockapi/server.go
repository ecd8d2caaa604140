package mockapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-learn-admin/internal/config"
	"github.com/jrsteele09/go-learn-admin/mockapi/content"
	"github.com/jrsteele09/go-learn-admin/mockapi/tokens"
	refreshrepofake "github.com/jrsteele09/go-learn-admin/mockapi/tokens/repofake"
	"github.com/jrsteele09/go-learn-admin/mockapi/users"
	fakeuserrepo "github.com/jrsteele09/go-learn-admin/mockapi/users/repofake"
	"github.com/jrsteele09/go-learn-admin/resources"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultPrefix is where the API is mounted, matching the default base URL.
const DefaultPrefix = "/api"

// Server is an in-memory stand-in for the platform API: the four auth
// endpoints plus bearer-protected CRUD collections.
type Server struct {
	env     string
	prefix  string
	secret  string
	ttl     time.Duration
	mux     *http.ServeMux
	routes  []string
	logger  zerolog.Logger
	users   users.UserRepo
	refresh tokens.RefreshRepo
	access  *tokens.AccessIssuer
	tokens  *tokens.RefreshManager
	resets  *tokens.ResetManager
	content *content.Store

	callsMu sync.Mutex
	calls   map[string]*atomic.Int64
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithJWTSecret sets the HS256 secret used to sign access tokens.
func WithJWTSecret(secret string) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.ttl = ttl
	}
}

// WithPrefix mounts the API under prefix instead of DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Server) {
		s.prefix = "/" + strings.Trim(prefix, "/")
		if s.prefix == "/" {
			s.prefix = ""
		}
	}
}

func WithEnv(env string) Option {
	return func(s *Server) {
		s.env = env
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithUserRepo(repo users.UserRepo) Option {
	return func(s *Server) {
		s.users = repo
	}
}

func WithRefreshRepo(repo tokens.RefreshRepo) Option {
	return func(s *Server) {
		s.refresh = repo
	}
}

// New creates a Server with empty stores and the content collections registered.
func New(options ...Option) (*Server, error) {
	s := &Server{
		prefix:  DefaultPrefix,
		mux:     http.NewServeMux(),
		logger:  log.Logger.With().Str("component", "mockapi").Logger(),
		content: content.NewStore(),
		calls:   make(map[string]*atomic.Int64),
	}
	for _, opt := range options {
		opt(s)
	}

	if s.secret == "" {
		return nil, errors.New("[mockapi.New] JWT secret is required")
	}
	if s.users == nil {
		s.users = fakeuserrepo.NewFakeUserRepo()
	}
	if s.refresh == nil {
		s.refresh = refreshrepofake.NewFakeRefreshTokenRepo()
	}
	s.access = tokens.NewAccessIssuer(tokens.NewHMACSigner(s.secret), s.ttl)
	s.tokens = tokens.NewRefreshManager(s.refresh, 0)
	s.resets = tokens.NewResetManager(0)

	s.content.Register(resources.PathQuestionTests, "title")
	s.content.Register(resources.PathIELTSLessons, "title", "section")
	s.content.Register(resources.PathSTEPSkills, "name")

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

// NewFromConfig creates a Server from configuration and seeds the configured admin.
func NewFromConfig(cfg config.Config, options ...Option) (*Server, error) {
	opts := append([]Option{
		WithEnv(cfg.GetEnv()),
		WithJWTSecret(cfg.GetJWTSecret()),
		WithAccessTokenTTL(cfg.GetAccessTokenTTL()),
	}, options...)

	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.GetSeedEmail() != "" {
		if _, err := s.SeedUser(cfg.GetSeedEmail(), cfg.GetSeedPassword()); err != nil {
			return nil, fmt.Errorf("[mockapi.NewFromConfig] seed user: %w", err)
		}
	}
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// RegisterRouteFunc registers handler for "METHOD /path" under the prefix.
// Requests are counted per pattern, see Calls.
func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	full := method + " " + s.prefix + path
	s.routes = append(s.routes, full)
	s.mux.HandleFunc(full, ChainMiddleware(handler, s.CountingMiddleware(pattern), s.LoggingMiddleware, s.RecoverMiddleware))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, _ := strings.Cut(route, " ")
		s.logger.Debug().Str("method", method).Str("path", path).Msg("route")
	}
}

// Calls returns how many requests matched a pattern such as
// "POST /auth/token/refresh/".
func (s *Server) Calls(pattern string) int64 {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	if c, ok := s.calls[pattern]; ok {
		return c.Load()
	}
	return 0
}

func (s *Server) counter(pattern string) *atomic.Int64 {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	c, ok := s.calls[pattern]
	if !ok {
		c = &atomic.Int64{}
		s.calls[pattern] = c
	}
	return c
}

// SeedUser creates (or replaces) a user with the given password.
func (s *Server) SeedUser(email, password string) (*users.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errors.New("[Server.SeedUser] email and password are required")
	}
	user, err := users.NewUser(email, password)
	if err != nil {
		return nil, err
	}
	if existing, err := s.users.GetByEmail(email); err == nil {
		user.ID = existing.ID
		user.DateJoined = existing.DateJoined
	}
	if err := s.users.Upsert(user); err != nil {
		return nil, err
	}
	return user, nil
}

// BlockUser stops a user from authenticating, including with tokens
// issued before the block.
func (s *Server) BlockUser(email string) error {
	return s.users.SetBlocked(email, true)
}

// ExpireAccessTokens makes every access token issued so far fail with 401.
func (s *Server) ExpireAccessTokens() {
	s.access.ExpireAll()
}

// RevokeRefreshTokens makes every refresh token issued so far fail.
func (s *Server) RevokeRefreshTokens() error {
	return s.tokens.RevokeAll()
}

// ResetToken returns the latest password reset token for email, standing in
// for the reset email.
func (s *Server) ResetToken(email string) (string, bool) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return "", false
	}
	return s.resets.Latest(user.ID)
}

// Content exposes the backing store, e.g. to seed fixtures.
func (s *Server) Content() *content.Store {
	return s.content
}

// Prefix is the path the API is mounted under.
func (s *Server) Prefix() string {
	return s.prefix
}
