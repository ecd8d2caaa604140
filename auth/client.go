package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
	"github.com/jrsteele09/go-learn-admin/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client calls the unauthenticated auth endpoints of the platform API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validator  *Validator
	logger     zerolog.Logger
	timeout    time.Duration
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an auth client for the API rooted at baseURL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[auth.NewClient] baseURL is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		validator:  NewValidator(),
		logger:     log.Logger.With().Str("component", "auth").Logger(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.timeout > 0 {
		client := *c.httpClient
		client.Timeout = c.timeout
		c.httpClient = &client
	}
	return c, nil
}

// Validator returns the client-side validator used before each request.
func (c *Client) Validator() *Validator {
	return c.validator
}

// Login exchanges an email and password for an access/refresh token pair.
// A rejected login matches apierrors.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, email, password string) (sessions.Credentials, error) {
	email = strings.TrimSpace(email)
	if err := c.validator.ValidateLogin(email, password); err != nil {
		return sessions.Credentials{}, err
	}

	var pair TokenPair
	status, err := c.postJSON(ctx, RouteLogin, LoginRequest{Email: email, Password: password}, &pair)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusBadRequest {
			return sessions.Credentials{}, fmt.Errorf("%w: %w", apierrors.ErrInvalidCredentials, err)
		}
		return sessions.Credentials{}, fmt.Errorf("[Client.Login] %w", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		return sessions.Credentials{}, UnexpectedTokenPairErr
	}

	c.logger.Info().Str("email", email).Msg("logged in")
	return sessions.Credentials{AccessToken: pair.Access, RefreshToken: pair.Refresh}, nil
}

// Refresh exchanges refreshToken for a new access token. An empty token fails
// with apierrors.ErrNoRefreshToken without contacting the server.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apierrors.ErrNoRefreshToken
	}

	var resp RefreshResponse
	if _, err := c.postJSON(ctx, RouteTokenRefresh, RefreshRequest{Refresh: refreshToken}, &resp); err != nil {
		return "", fmt.Errorf("[Client.Refresh] %w", err)
	}
	if resp.Access == "" {
		return "", UnexpectedAccessTokenErr
	}
	return resp.Access, nil
}

// RequestPasswordReset asks the backend to mail a reset token to email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := c.validator.ValidatePasswordReset(email); err != nil {
		return err
	}
	if _, err := c.postJSON(ctx, RoutePasswordReset, PasswordResetRequest{Email: email}, nil); err != nil {
		return fmt.Errorf("[Client.RequestPasswordReset] %w", err)
	}
	return nil
}

// ConfirmPasswordReset sets newPassword using a mailed reset token.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if err := c.validator.ValidatePasswordResetConfirm(token, newPassword); err != nil {
		return err
	}
	req := PasswordResetConfirmRequest{Token: token, NewPassword: newPassword}
	if _, err := c.postJSON(ctx, RoutePasswordResetConfirm, req, nil); err != nil {
		return fmt.Errorf("[Client.ConfirmPasswordReset] %w", err)
	}
	return nil
}

// postJSON posts body and decodes a 2xx response into out. Any other status
// is returned as an *apierrors.APIError along with the status code.
func (c *Client) postJSON(ctx context.Context, route string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("POST %s: %w", route, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, apierrors.ParseAPIError(resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
