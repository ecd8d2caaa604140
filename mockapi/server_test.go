package mockapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-learn-admin/auth"
	"github.com/jrsteele09/go-learn-admin/gateway"
	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
	"github.com/jrsteele09/go-learn-admin/mockapi"
	"github.com/jrsteele09/go-learn-admin/mockapi/users"
	fakeuserrepo "github.com/jrsteele09/go-learn-admin/mockapi/users/repofake"
	"github.com/jrsteele09/go-learn-admin/resources"
	"github.com/jrsteele09/go-learn-admin/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "Admin12345"
	testSecret   = "test-secret"
)

type testFixture struct {
	api     *mockapi.Server
	baseURL string
	client  *auth.Client
}

func setupTestFixture(t *testing.T, options ...mockapi.Option) *testFixture {
	t.Helper()

	opts := append([]mockapi.Option{mockapi.WithJWTSecret(testSecret)}, options...)
	api, err := mockapi.New(opts...)
	require.NoError(t, err)
	_, err = api.SeedUser(testEmail, testPassword)
	require.NoError(t, err)

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	baseURL := srv.URL + mockapi.DefaultPrefix
	client, err := auth.NewClient(baseURL)
	require.NoError(t, err)
	return &testFixture{api: api, baseURL: baseURL, client: client}
}

func (f *testFixture) post(t *testing.T, path, token string, body any) (int, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, f.baseURL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func (f *testFixture) gateway(t *testing.T, creds sessions.Credentials) (*gateway.Gateway, *sessions.Session) {
	t.Helper()
	s := sessions.New()
	require.NoError(t, s.Login(creds))
	gw, err := gateway.New(f.baseURL, s, f.client)
	require.NoError(t, err)
	return gw, s
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := mockapi.New()
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	creds, err := f.client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, creds.AccessToken)
	require.Len(t, creds.RefreshToken, 64)

	claims, err := sessions.ParseAccessClaims(creds.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testEmail, claims.Email)
	require.NotEmpty(t, claims.Subject)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt, 5*time.Second)

	_, err = f.client.Login(ctx, testEmail, "Wrong12345")
	require.ErrorIs(t, err, apierrors.ErrInvalidCredentials)

	_, err = f.client.Login(ctx, "nobody@example.com", testPassword)
	require.ErrorIs(t, err, apierrors.ErrInvalidCredentials)

	require.Equal(t, int64(3), f.api.Calls("POST "+auth.RouteLogin))
}

func TestLogin_MissingFields(t *testing.T) {
	f := setupTestFixture(t)

	status, body := f.post(t, auth.RouteLogin, "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body, "email")
	require.Contains(t, body, "password")
}

func TestLogin_BlockedUser(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.api.BlockUser(testEmail))

	_, err := f.client.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, apierrors.ErrInvalidCredentials)
}

func TestRefresh_DoesNotRotate(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	creds, err := f.client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	first, err := f.client.Refresh(ctx, creds.RefreshToken)
	require.NoError(t, err)
	second, err := f.client.Refresh(ctx, creds.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	require.NotEmpty(t, second)

	require.NoError(t, f.api.RevokeRefreshTokens())
	_, err = f.client.Refresh(ctx, creds.RefreshToken)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Token is invalid or expired", apiErr.Message)
}

func TestRefresh_MissingField(t *testing.T) {
	f := setupTestFixture(t)

	status, body := f.post(t, auth.RouteTokenRefresh, "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body, "refresh")
}

func TestRequireAuth(t *testing.T) {
	f := setupTestFixture(t)
	creds, err := f.client.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	status, _ := f.post(t, resources.PathSTEPSkills, "", map[string]any{"name": "Listening", "level": 1})
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.post(t, resources.PathSTEPSkills, "garbage", map[string]any{"name": "Listening", "level": 1})
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := f.post(t, resources.PathSTEPSkills, creds.AccessToken, map[string]any{"name": "Listening", "level": 1})
	require.Equal(t, http.StatusCreated, status)
	require.EqualValues(t, 1, body["id"])

	f.api.ExpireAccessTokens()
	status, body = f.post(t, resources.PathSTEPSkills, creds.AccessToken, map[string]any{"name": "Reading", "level": 2})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "token_not_valid", body["code"])
}

func TestRequireAuth_RejectsForeignSignature(t *testing.T) {
	f := setupTestFixture(t)
	other := setupTestFixture(t, mockapi.WithJWTSecret("another-secret"))

	creds, err := other.client.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	status, _ := f.post(t, resources.PathSTEPSkills, creds.AccessToken, map[string]any{"name": "Listening", "level": 1})
	require.Equal(t, http.StatusUnauthorized, status)
}

// changingUserRepo runs afterRead once, right after the next GetByEmail, so
// the caller holds an outdated copy of the user.
type changingUserRepo struct {
	users.UserRepo
	mu        sync.Mutex
	afterRead func()
}

func (r *changingUserRepo) GetByEmail(email string) (*users.User, error) {
	user, err := r.UserRepo.GetByEmail(email)
	r.mu.Lock()
	f := r.afterRead
	r.afterRead = nil
	r.mu.Unlock()
	if f != nil {
		f()
	}
	return user, err
}

func (r *changingUserRepo) onNextRead(f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterRead = f
}

func TestLogin_KeepsConcurrentUserChanges(t *testing.T) {
	repo := &changingUserRepo{UserRepo: fakeuserrepo.NewFakeUserRepo()}
	f := setupTestFixture(t, mockapi.WithUserRepo(repo))
	ctx := context.Background()

	// The account is blocked while the login is being processed.
	repo.onNextRead(func() {
		assert.NoError(t, repo.SetBlocked(testEmail, true))
	})
	_, err := f.client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	stored, err := repo.UserRepo.GetByEmail(testEmail)
	require.NoError(t, err)
	require.True(t, stored.Blocked)
	require.False(t, stored.LastLogin.IsZero())

	_, err = f.client.Login(ctx, testEmail, testPassword)
	require.ErrorIs(t, err, apierrors.ErrInvalidCredentials)
}

func TestPasswordReset(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	// Unknown addresses get the same answer.
	require.NoError(t, f.client.RequestPasswordReset(ctx, "nobody@example.com"))
	_, ok := f.api.ResetToken("nobody@example.com")
	require.False(t, ok)

	require.NoError(t, f.client.RequestPasswordReset(ctx, testEmail))
	token, ok := f.api.ResetToken(testEmail)
	require.True(t, ok)

	require.NoError(t, f.client.ConfirmPasswordReset(ctx, token, "Changed123"))

	_, err := f.client.Login(ctx, testEmail, testPassword)
	require.ErrorIs(t, err, apierrors.ErrInvalidCredentials)
	_, err = f.client.Login(ctx, testEmail, "Changed123")
	require.NoError(t, err)

	// Tokens are single use.
	err = f.client.ConfirmPasswordReset(ctx, token, "Another123")
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Invalid or expired token.", apiErr.FieldErrors["token"])
}

func TestPasswordResetConfirm_WeakPasswordKeepsToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.client.RequestPasswordReset(ctx, testEmail))
	token, ok := f.api.ResetToken(testEmail)
	require.True(t, ok)

	status, body := f.post(t, auth.RoutePasswordResetConfirm, "", auth.PasswordResetConfirmRequest{Token: token, NewPassword: "weak"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body, "new_password")

	require.NoError(t, f.client.ConfirmPasswordReset(ctx, token, "Strong1234"))
}

func TestGateway_RecoversFromExpiredAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	creds, err := f.client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	gw, s := f.gateway(t, creds)

	f.api.ExpireAccessTokens()

	resp, err := gw.Get(ctx, resources.PathQuestionTests)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(resp.Body))

	require.Equal(t, int64(1), f.api.Calls("POST "+auth.RouteTokenRefresh))
	require.Equal(t, int64(2), f.api.Calls(mockapi.CollectionPattern(http.MethodGet, resources.PathQuestionTests, false)))
	require.NotEqual(t, creds.AccessToken, s.AccessToken())
	require.Equal(t, creds.RefreshToken, s.RefreshToken())
}

func TestGateway_RevokedRefreshTokenEndsSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	creds, err := f.client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	gw, s := f.gateway(t, creds)

	f.api.ExpireAccessTokens()
	require.NoError(t, f.api.RevokeRefreshTokens())

	_, err = gw.Get(ctx, resources.PathQuestionTests)
	require.ErrorIs(t, err, apierrors.ErrAuthenticationFailed)
	require.Equal(t, sessions.Anonymous, s.State())
	require.Equal(t, int64(1), f.api.Calls("POST "+auth.RouteTokenRefresh))
	require.Equal(t, int64(1), f.api.Calls(mockapi.CollectionPattern(http.MethodGet, resources.PathQuestionTests, false)))
}

func TestGateway_BlockedUserEndsSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	creds, err := f.client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	gw, s := f.gateway(t, creds)

	require.NoError(t, f.api.BlockUser(testEmail))

	_, err = gw.Get(ctx, resources.PathQuestionTests)
	require.ErrorIs(t, err, apierrors.ErrAuthenticationFailed)
	require.Equal(t, sessions.Anonymous, s.State())
}

func TestUnknownRoute(t *testing.T) {
	f := setupTestFixture(t)

	status, body := f.post(t, "/nothing/here/", "", map[string]string{})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Not found.", body["detail"])
}
