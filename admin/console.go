package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-learn-admin/auth"
	"github.com/jrsteele09/go-learn-admin/gateway"
	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
	"github.com/jrsteele09/go-learn-admin/internal/config"
	"github.com/jrsteele09/go-learn-admin/resources"
	"github.com/jrsteele09/go-learn-admin/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Console is the session-level controller of the admin client. It owns the
// session, logs in through the auth client and sends everything else through
// the gateway. When the gateway gives up on a session the console logs the
// forced logout and calls the OnSessionExpired hook.
type Console struct {
	session   *sessions.Session
	auth      *auth.Client
	gateway   *gateway.Gateway
	logger    zerolog.Logger
	onExpired func(reason error)

	baseURL    string
	httpClient *http.Client
	timeout    time.Duration

	QuestionTests *resources.Collection[resources.QuestionTest]
	IELTSLessons  *resources.Collection[resources.IELTSLesson]
	STEPSkills    *resources.Collection[resources.STEPSkill]
}

// Option defines a function type to modify the Console instance.
type Option func(*Console)

// WithOnSessionExpired is called after the session was torn down for any
// reason other than an explicit Logout.
func WithOnSessionExpired(f func(reason error)) Option {
	return func(c *Console) {
		c.onExpired = f
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

// WithBaseURL overrides the API root given to New or taken from configuration.
func WithBaseURL(baseURL string) Option {
	return func(c *Console) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient is shared by the auth client and the gateway.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Console) {
		c.httpClient = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Console) {
		c.timeout = timeout
	}
}

// New wires a console for the API rooted at baseURL.
func New(baseURL string, options ...Option) (*Console, error) {
	c := &Console{
		baseURL: baseURL,
		session: sessions.New(),
		logger:  log.Logger.With().Str("component", "admin").Logger(),
	}
	for _, opt := range options {
		opt(c)
	}

	authOpts := []auth.ClientOption{auth.WithLogger(c.logger), auth.WithTimeout(c.timeout)}
	gwOpts := []gateway.Option{gateway.WithLogger(c.logger), gateway.WithTimeout(c.timeout)}
	if c.httpClient != nil {
		authOpts = append(authOpts, auth.WithHTTPClient(c.httpClient))
		gwOpts = append(gwOpts, gateway.WithHTTPClient(c.httpClient))
	}

	var err error
	if c.auth, err = auth.NewClient(c.baseURL, authOpts...); err != nil {
		return nil, fmt.Errorf("[admin.New] %w", err)
	}
	if c.gateway, err = gateway.New(c.baseURL, c.session, c.auth, gwOpts...); err != nil {
		return nil, fmt.Errorf("[admin.New] %w", err)
	}
	if c.QuestionTests, err = resources.NewCollection[resources.QuestionTest](c.gateway, resources.PathQuestionTests); err != nil {
		return nil, fmt.Errorf("[admin.New] %w", err)
	}
	if c.IELTSLessons, err = resources.NewCollection[resources.IELTSLesson](c.gateway, resources.PathIELTSLessons); err != nil {
		return nil, fmt.Errorf("[admin.New] %w", err)
	}
	if c.STEPSkills, err = resources.NewCollection[resources.STEPSkill](c.gateway, resources.PathSTEPSkills); err != nil {
		return nil, fmt.Errorf("[admin.New] %w", err)
	}

	c.session.OnTeardown(c.sessionEnded)
	return c, nil
}

// NewFromConfig creates a console from the API configuration.
func NewFromConfig(cfg config.APIConfig, options ...Option) (*Console, error) {
	opts := append([]Option{WithTimeout(cfg.GetRequestTimeout())}, options...)
	return New(cfg.GetBaseURL(), opts...)
}

// Login authenticates and stores the returned token pair. A failed login
// leaves any existing session untouched.
func (c *Console) Login(ctx context.Context, email, password string) error {
	creds, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return c.session.Login(creds)
}

// Logout clears the session without calling the OnSessionExpired hook.
func (c *Console) Logout() {
	c.session.Logout()
}

func (c *Console) RequestPasswordReset(ctx context.Context, email string) error {
	return c.auth.RequestPasswordReset(ctx, email)
}

func (c *Console) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	return c.auth.ConfirmPasswordReset(ctx, token, newPassword)
}

func (c *Console) Session() *sessions.Session {
	return c.session
}

func (c *Console) Gateway() *gateway.Gateway {
	return c.gateway
}

func (c *Console) IsAuthenticated() bool {
	return c.session.IsAuthenticated()
}

// Claims decodes the current access token for display.
func (c *Console) Claims() (*sessions.AccessClaims, error) {
	return c.session.Claims()
}

// Token returns the current access token with its type and expiry.
func (c *Console) Token() (*oauth2.Token, error) {
	return c.session.TokenSource().Token()
}

func (c *Console) sessionEnded(reason error) {
	if errors.Is(reason, apierrors.ErrLoggedOut) {
		c.logger.Info().Msg("logged out")
		return
	}
	c.logger.Warn().Err(reason).Msg("session expired, login required")
	if c.onExpired != nil {
		c.onExpired(reason)
	}
}
