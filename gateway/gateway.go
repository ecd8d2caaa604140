package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
	"github.com/jrsteele09/go-learn-admin/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey = "refresh"

	// DefaultRefreshTimeout bounds the shared refresh when no timeout is configured.
	DefaultRefreshTimeout = 30 * time.Second
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Gateway sends API requests with the session's bearer token and recovers
// from an expired access token by refreshing it once and retrying once.
type Gateway struct {
	baseURL      string
	httpClient   *http.Client
	session      *sessions.Session
	refresher    Refresher
	logger       zerolog.Logger
	newRequestID func() string
	timeout        time.Duration
	refreshTimeout time.Duration
	refreshes      singleflight.Group // at most one refresh in flight
}

// Option defines a function type to modify the Gateway instance.
type Option func(*Gateway)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = client
	}
}

// WithTimeout bounds every round trip, including the refresh call.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithRefreshTimeout bounds the refresh call. It defaults to the WithTimeout
// value, or DefaultRefreshTimeout when that is unset.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.refreshTimeout = timeout
	}
}

// WithRequestIDFunc sets the X-Request-ID generator (primarily for testing)
func WithRequestIDFunc(f func() string) Option {
	return func(g *Gateway) {
		g.newRequestID = f
	}
}

// New creates a Gateway for the API rooted at baseURL.
func New(baseURL string, session *sessions.Session, refresher Refresher, options ...Option) (*Gateway, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[gateway.New] baseURL is required")
	}
	if session == nil {
		return nil, errors.New("[gateway.New] session is required")
	}
	if refresher == nil {
		return nil, errors.New("[gateway.New] refresher is required")
	}

	g := &Gateway{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{},
		session:      session,
		refresher:    refresher,
		logger:       log.Logger.With().Str("component", "gateway").Logger(),
		newRequestID: func() string { return uuid.New().String() },
	}

	for _, opt := range options {
		opt(g)
	}

	if g.timeout > 0 {
		// Copy so a shared client (e.g. http.DefaultClient) is never mutated.
		client := *g.httpClient
		client.Timeout = g.timeout
		g.httpClient = &client
	}
	if g.refreshTimeout <= 0 {
		g.refreshTimeout = g.timeout
	}
	if g.refreshTimeout <= 0 {
		g.refreshTimeout = DefaultRefreshTimeout
	}
	return g, nil
}

// Session returns the session the gateway authenticates with.
func (g *Gateway) Session() *sessions.Session {
	return g.session
}

// Send issues the request with the current access token. A 401 triggers
// exactly one refresh and one retry. If the refresh fails, or the retry
// fails for any reason (transport error or non-2xx status), the session is
// torn down and the error matches apierrors.ErrAuthenticationFailed.
// Without a 401, every status is returned to the caller unchanged.
// A cancelled ctx never tears the session down.
func (g *Gateway) Send(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	requestID := g.newRequestID()
	logger := g.logger.With().Str("method", req.Method).Str("path", req.Path).Str("request_id", requestID).Logger()

	sentToken := g.session.AccessToken()
	resp, err := g.do(ctx, req, body, sentToken, requestID)
	if err != nil {
		return nil, fmt.Errorf("[Gateway.Send] %s %s: %w", req.Method, req.Path, err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		logger.Debug().Int("status", resp.StatusCode).Msg("request complete")
		return resp, nil
	}

	logger.Debug().Msg("access token rejected, refreshing")
	newToken, err := g.tokenAfterUnauthorized(ctx, sentToken)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("[Gateway.Send] refresh abandoned: %w", ctx.Err())
		}
		if errors.Is(err, apierrors.ErrSessionChanged) {
			// The session was replaced by a new login; it is not ours to end.
			return nil, fmt.Errorf("[Gateway.Send] %s %s: %w", req.Method, req.Path, err)
		}
		return nil, g.authFailure(logger, err)
	}

	retry, err := g.do(ctx, req, body, newToken, requestID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("[Gateway.Send] retry abandoned: %w", ctx.Err())
		}
		return nil, g.authFailure(logger, fmt.Errorf("retry %s %s: %w", req.Method, req.Path, err))
	}
	if !retry.IsSuccess() {
		return nil, g.authFailure(logger, fmt.Errorf("retried request failed: %w", retry.Err()))
	}
	logger.Debug().Int("status", retry.StatusCode).Msg("retried request complete")
	return retry, nil
}

// Refresh exchanges the session's refresh token for a new access token and
// stores it. Concurrent callers share a single in-flight refresh.
func (g *Gateway) Refresh(ctx context.Context) (string, error) {
	if g.session.RefreshToken() == "" {
		return "", apierrors.ErrNoRefreshToken
	}

	// The shared refresh must not die with whichever caller started it,
	// but it still needs its own deadline.
	shared := context.WithoutCancel(ctx)
	ch := g.refreshes.DoChan(refreshKey, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(shared, g.refreshTimeout)
		defer cancel()
		return g.refresh(refreshCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *Gateway) refresh(ctx context.Context) (string, error) {
	refreshToken, err := g.session.BeginRefresh()
	if err != nil {
		return "", err
	}

	accessToken, err := g.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		g.session.AbortRefresh()
		return "", fmt.Errorf("%w: %w", apierrors.ErrRefreshFailed, err)
	}
	if err := g.session.CompleteRefresh(refreshToken, accessToken); err != nil {
		if errors.Is(err, apierrors.ErrSessionChanged) {
			return "", fmt.Errorf("[Gateway.refresh] %w", err)
		}
		g.session.AbortRefresh()
		return "", fmt.Errorf("%w: %w", apierrors.ErrRefreshFailed, err)
	}
	g.logger.Info().Msg("access token refreshed")
	return accessToken, nil
}

// tokenAfterUnauthorized returns the token to retry with. When another call
// already replaced the rejected token the current one is reused.
func (g *Gateway) tokenAfterUnauthorized(ctx context.Context, rejected string) (string, error) {
	if current := g.session.AccessToken(); current != "" && current != rejected {
		return current, nil
	}
	return g.Refresh(ctx)
}

func (g *Gateway) authFailure(logger zerolog.Logger, cause error) error {
	err := fmt.Errorf("%w: %w", apierrors.ErrAuthenticationFailed, cause)
	logger.Warn().Err(cause).Msg("authentication failed, ending session")
	g.session.Teardown(err)
	return err
}

func (g *Gateway) do(ctx context.Context, req Request, body []byte, token, requestID string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, g.url(req.Path), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", contentTypeJSON)
	}
	httpReq.Header.Set(headerRequestID, requestID)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	} else {
		httpReq.Header.Del("Authorization")
	}

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

func (g *Gateway) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.baseURL + path
}
