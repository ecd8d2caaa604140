package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-learn-admin/gateway"
	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
	"github.com/jrsteele09/go-learn-admin/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRefresher hands out a fixed access token, or fails.
type fakeRefresher struct {
	calls  atomic.Int32
	token  string
	err    error
	delay  time.Duration
	during func() // runs while the refresh is in flight
	gotArg atomic.Value
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	f.calls.Add(1)
	f.gotArg.Store(refreshToken)
	if f.during != nil {
		f.during()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

// fakeAPI accepts only the bearer tokens in valid and records every
// Authorization header it sees.
type fakeAPI struct {
	mu       sync.Mutex
	valid    map[string]bool
	seen     []string
	requests atomic.Int32
	status   int
	body     string
}

func newFakeAPI(validTokens ...string) *fakeAPI {
	api := &fakeAPI{valid: map[string]bool{}, status: http.StatusOK, body: `[{"id":1,"title":"Mock test"}]`}
	for _, tok := range validTokens {
		api.valid[tok] = true
	}
	return api
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.requests.Add(1)
	auth := r.Header.Get("Authorization")
	a.mu.Lock()
	a.seen = append(a.seen, auth)
	ok := len(auth) > len("Bearer ") && a.valid[auth[len("Bearer "):]]
	status, body := a.status, a.body
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Given token not valid for any token type"}`)
		return
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (a *fakeAPI) authHeaders() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.seen...)
}

func (a *fakeAPI) accept(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.valid[token] = true
}

type fixture struct {
	api       *fakeAPI
	refresher *fakeRefresher
	session   *sessions.Session
	gw        *gateway.Gateway
	teardowns atomic.Int32
}

func setup(t *testing.T, api *fakeAPI, refresher *fakeRefresher, creds *sessions.Credentials) *fixture {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	f := &fixture{api: api, refresher: refresher, session: sessions.New()}
	if creds != nil {
		require.NoError(t, f.session.Restore(*creds))
	}
	f.session.OnTeardown(func(error) { f.teardowns.Add(1) })

	gw, err := gateway.New(srv.URL+"/api", f.session, refresher, gateway.WithTimeout(5*time.Second))
	require.NoError(t, err)
	f.gw = gw
	return f
}

func TestNew_Validation(t *testing.T) {
	s := sessions.New()
	r := &fakeRefresher{}

	_, err := gateway.New("", s, r)
	require.Error(t, err)
	_, err = gateway.New("http://localhost", nil, r)
	require.Error(t, err)
	_, err = gateway.New("http://localhost", s, nil)
	require.Error(t, err)

	gw, err := gateway.New("http://localhost", s, r)
	require.NoError(t, err)
	require.Same(t, s, gw.Session())
}

func TestSend_ValidTokenNoRefresh(t *testing.T) {
	f := setup(t, newFakeAPI("good"), &fakeRefresher{token: "unused"},
		&sessions.Credentials{AccessToken: "good", RefreshToken: "r1"})

	resp, err := f.gw.Get(context.Background(), "/questions/tests/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[{"id":1,"title":"Mock test"}]`, string(resp.Body))
	require.Equal(t, int32(0), f.refresher.calls.Load())
	require.Equal(t, []string{"Bearer good"}, f.api.authHeaders())
}

func TestSend_RepeatedCallsAreIndependent(t *testing.T) {
	f := setup(t, newFakeAPI("good"), &fakeRefresher{},
		&sessions.Credentials{AccessToken: "good", RefreshToken: "r1"})

	for i := 0; i < 2; i++ {
		resp, err := f.gw.Get(context.Background(), "/questions/tests/")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.Equal(t, int32(2), f.api.requests.Load())
	require.Equal(t, int32(0), f.refresher.calls.Load())
	require.Equal(t, sessions.Credentials{AccessToken: "good", RefreshToken: "r1"}, f.session.Credentials())
}

func TestSend_ExpiredTokenRefreshesAndRetries(t *testing.T) {
	f := setup(t, newFakeAPI("new123"), &fakeRefresher{token: "new123"},
		&sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"})

	resp, err := f.gw.Get(context.Background(), "/questions/tests/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[{"id":1,"title":"Mock test"}]`, string(resp.Body))

	require.Equal(t, int32(1), f.refresher.calls.Load())
	require.Equal(t, "r1", f.refresher.gotArg.Load())
	require.Equal(t, []string{"Bearer expired", "Bearer new123"}, f.api.authHeaders())
	require.Equal(t, "new123", f.session.AccessToken())
	require.Equal(t, "r1", f.session.RefreshToken())
	require.Equal(t, sessions.Authenticated, f.session.State())
	require.Equal(t, int32(0), f.teardowns.Load())
}

func TestSend_RefreshFailureTearsDown(t *testing.T) {
	tests := map[string]error{
		"400 from refresh endpoint": &apierrors.APIError{StatusCode: http.StatusBadRequest},
		"500 from refresh endpoint": &apierrors.APIError{StatusCode: http.StatusInternalServerError},
		"network error":             errors.New("connection refused"),
	}
	for name, refreshErr := range tests {
		t.Run(name, func(t *testing.T) {
			f := setup(t, newFakeAPI("fresh"), &fakeRefresher{err: refreshErr},
				&sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"})

			resp, err := f.gw.Get(context.Background(), "/questions/tests/")
			require.Nil(t, resp)
			require.ErrorIs(t, err, apierrors.ErrAuthenticationFailed)
			require.ErrorIs(t, err, apierrors.ErrRefreshFailed)

			require.Equal(t, int32(1), f.refresher.calls.Load())
			require.Equal(t, int32(1), f.api.requests.Load())
			require.Equal(t, sessions.Anonymous, f.session.State())
			require.Equal(t, sessions.Credentials{}, f.session.Credentials())
			require.Equal(t, int32(1), f.teardowns.Load())
		})
	}
}

func TestSend_NoRefreshTokenFailsWithoutRefreshCall(t *testing.T) {
	f := setup(t, newFakeAPI("fresh"), &fakeRefresher{token: "fresh"},
		&sessions.Credentials{AccessToken: "expired"})

	_, err := f.gw.Get(context.Background(), "/questions/tests/")
	require.ErrorIs(t, err, apierrors.ErrAuthenticationFailed)
	require.ErrorIs(t, err, apierrors.ErrNoRefreshToken)
	require.Equal(t, int32(0), f.refresher.calls.Load())
	require.Equal(t, sessions.Anonymous, f.session.State())
	require.Empty(t, f.session.AccessToken())
}

func TestSend_RetryRejectedTearsDown(t *testing.T) {
	// The refreshed token is never accepted.
	f := setup(t, newFakeAPI(), &fakeRefresher{token: "still-bad"},
		&sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"})

	_, err := f.gw.Get(context.Background(), "/questions/tests/")
	require.ErrorIs(t, err, apierrors.ErrAuthenticationFailed)

	require.Equal(t, int32(1), f.refresher.calls.Load())
	require.Equal(t, []string{"Bearer expired", "Bearer still-bad"}, f.api.authHeaders())
	require.Equal(t, sessions.Anonymous, f.session.State())
	require.Equal(t, int32(1), f.teardowns.Load())
}

func TestSend_NonAuthErrorsPassThrough(t *testing.T) {
	api := newFakeAPI("good")
	api.status = http.StatusInternalServerError
	api.body = `{"detail":"boom"}`
	f := setup(t, api, &fakeRefresher{}, &sessions.Credentials{AccessToken: "good", RefreshToken: "r1"})

	resp, err := f.gw.Get(context.Background(), "/questions/tests/")
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, int32(1), api.requests.Load())
	require.Equal(t, int32(0), f.refresher.calls.Load())
	require.True(t, f.session.IsAuthenticated())

	var apiErr *apierrors.APIError
	require.ErrorAs(t, resp.Err(), &apiErr)
	require.Equal(t, "boom", apiErr.Message)
}

func TestSend_RetryServerErrorTearsDown(t *testing.T) {
	api := newFakeAPI("new123")
	api.status = http.StatusServiceUnavailable
	api.body = `{"detail":"maintenance"}`
	f := setup(t, api, &fakeRefresher{token: "new123"},
		&sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"})

	resp, err := f.gw.Get(context.Background(), "/questions/tests/")
	require.Nil(t, resp)
	require.ErrorIs(t, err, apierrors.ErrAuthenticationFailed)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)

	require.Equal(t, int32(1), f.refresher.calls.Load())
	require.Equal(t, int32(2), api.requests.Load())
	require.Equal(t, sessions.Anonymous, f.session.State())
	require.Equal(t, sessions.Credentials{}, f.session.Credentials())
	require.Equal(t, int32(1), f.teardowns.Load())
}

func TestSend_RetryConnectionDropTearsDown(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		// Every later request loses its connection before a response.
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	s := sessions.New()
	require.NoError(t, s.Login(sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"}))
	var teardowns atomic.Int32
	s.OnTeardown(func(error) { teardowns.Add(1) })
	refresher := &fakeRefresher{token: "new123"}
	gw, err := gateway.New(srv.URL, s, refresher, gateway.WithTimeout(5*time.Second))
	require.NoError(t, err)

	resp, err := gw.Get(context.Background(), "/questions/tests/")
	require.Nil(t, resp)
	require.ErrorIs(t, err, apierrors.ErrAuthenticationFailed)
	require.Equal(t, int32(1), refresher.calls.Load())
	require.Equal(t, sessions.Anonymous, s.State())
	require.Equal(t, int32(1), teardowns.Load())
}

func TestSend_RetrySucceedsWithAnyTwoHundred(t *testing.T) {
	api := newFakeAPI("new123")
	api.status = http.StatusNoContent
	api.body = ""
	f := setup(t, api, &fakeRefresher{token: "new123"},
		&sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"})

	resp, err := f.gw.Delete(context.Background(), "/questions/tests/1/")
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, int32(0), f.teardowns.Load())
}

func TestSend_HungRefreshIsBounded(t *testing.T) {
	api := newFakeAPI("fresh")
	srv := httptest.NewServer(api)
	defer srv.Close()

	s := sessions.New()
	require.NoError(t, s.Login(sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"}))
	refresher := &fakeRefresher{token: "fresh", delay: time.Minute}
	// No request timeout: only the refresh deadline stops the hung refresh.
	gw, err := gateway.New(srv.URL, s, refresher, gateway.WithRefreshTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = gw.Get(context.Background(), "/questions/tests/")
	require.Less(t, time.Since(start), 10*time.Second)
	require.ErrorIs(t, err, apierrors.ErrAuthenticationFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, sessions.Anonymous, s.State())

	// The singleflight slot is free again: a new login can refresh.
	refresher.delay = 0
	require.NoError(t, s.Login(sessions.Credentials{AccessToken: "expired", RefreshToken: "r2"}))
	_, err = gw.Get(context.Background(), "/questions/tests/")
	require.NoError(t, err)
	require.Equal(t, "fresh", s.AccessToken())
}

func TestSend_NewLoginDuringRefreshIsKept(t *testing.T) {
	api := newFakeAPI("fresh", "a2")
	refresher := &fakeRefresher{token: "stale"}
	f := setup(t, api, refresher, &sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"})
	refresher.during = func() {
		f.session.Logout()
		assert.NoError(t, f.session.Login(sessions.Credentials{AccessToken: "a2", RefreshToken: "r2"}))
	}

	_, err := f.gw.Get(context.Background(), "/questions/tests/")
	require.ErrorIs(t, err, apierrors.ErrSessionChanged)
	require.NotErrorIs(t, err, apierrors.ErrAuthenticationFailed)

	require.Equal(t, sessions.Credentials{AccessToken: "a2", RefreshToken: "r2"}, f.session.Credentials())
	require.Equal(t, sessions.Authenticated, f.session.State())
	// Only the explicit logout ended a session.
	require.Equal(t, int32(1), f.teardowns.Load())
}

func TestSend_TransportErrorNotRetried(t *testing.T) {
	s := sessions.New()
	require.NoError(t, s.Login(sessions.Credentials{AccessToken: "good", RefreshToken: "r1"}))
	refresher := &fakeRefresher{}

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw, err := gateway.New(url, s, refresher)
	require.NoError(t, err)

	_, err = gw.Get(context.Background(), "/questions/tests/")
	require.Error(t, err)
	require.NotErrorIs(t, err, apierrors.ErrAuthenticationFailed)
	require.Equal(t, int32(0), refresher.calls.Load())
	require.True(t, s.IsAuthenticated())
}

func TestSend_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	f := setup(t, newFakeAPI("fresh"), &fakeRefresher{token: "fresh", delay: 50 * time.Millisecond},
		&sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.gw.Get(context.Background(), "/questions/tests/")
			if err == nil && resp.StatusCode != http.StatusOK {
				err = resp.Err()
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), f.refresher.calls.Load())
	require.Equal(t, "fresh", f.session.AccessToken())
}

func TestSend_UnauthorizedAfterOtherCallerRefreshed(t *testing.T) {
	api := newFakeAPI("fresh")
	f := setup(t, api, &fakeRefresher{token: "fresh"},
		&sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"})

	_, err := f.gw.Get(context.Background(), "/questions/tests/")
	require.NoError(t, err)
	require.Equal(t, int32(1), f.refresher.calls.Load())

	// A later 401 on the fresh token refreshes again rather than reusing it.
	api.mu.Lock()
	delete(api.valid, "fresh")
	api.mu.Unlock()
	f.refresher.token = "fresher"
	api.accept("fresher")

	_, err = f.gw.Get(context.Background(), "/questions/tests/")
	require.NoError(t, err)
	require.Equal(t, int32(2), f.refresher.calls.Load())
	require.Equal(t, "fresher", f.session.AccessToken())
}

func TestSend_CancelledDuringRefreshKeepsSession(t *testing.T) {
	f := setup(t, newFakeAPI("fresh"), &fakeRefresher{token: "fresh", delay: time.Second},
		&sessions.Credentials{AccessToken: "expired", RefreshToken: "r1"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.gw.Get(ctx, "/questions/tests/")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, apierrors.ErrAuthenticationFailed)
	require.Equal(t, int32(0), f.teardowns.Load())
	require.Equal(t, "r1", f.session.RefreshToken())
}

func TestSend_Headers(t *testing.T) {
	var got http.Header
	var gotBody []byte
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := sessions.New()
	require.NoError(t, s.Login(sessions.Credentials{AccessToken: "a1", RefreshToken: "r1"}))
	gw, err := gateway.New(srv.URL+"/api/", s, &fakeRefresher{}, gateway.WithRequestIDFunc(func() string { return "req-1" }))
	require.NoError(t, err)

	resp, err := gw.Send(context.Background(), gateway.Request{
		Method: http.MethodPost,
		Path:   "ielts/lessons/",
		Body:   map[string]string{"title": "Reading 1"},
		Header: http.Header{"X-Trace": []string{"abc"}, "Authorization": []string{"Basic nope"}},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "/api/ielts/lessons/", gotPath)
	assert.Equal(t, "Bearer a1", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "req-1", got.Get("X-Request-ID"))
	assert.Equal(t, "abc", got.Get("X-Trace"))
	assert.JSONEq(t, `{"title":"Reading 1"}`, string(gotBody))
}

func TestSend_AnonymousSendsNoAuthorization(t *testing.T) {
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Values("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw, err := gateway.New(srv.URL, sessions.New(), &fakeRefresher{})
	require.NoError(t, err)

	_, err = gw.Get(context.Background(), "/health/")
	require.NoError(t, err)
	require.Empty(t, auth)
}

func TestSend_RetryResendsBodyAndRequestID(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		ids = append(ids, r.Header.Get("X-Request-ID"))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := sessions.New()
	require.NoError(t, s.Login(sessions.Credentials{AccessToken: "old", RefreshToken: "r1"}))
	gw, err := gateway.New(srv.URL, s, &fakeRefresher{token: "new"})
	require.NoError(t, err)

	_, err = gw.Patch(context.Background(), "/step/skills/3/", json.RawMessage(`{"name":"Listening"}`))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{`{"name":"Listening"}`, `{"name":"Listening"}`}, bodies)
	require.Len(t, ids, 2)
	require.NotEmpty(t, ids[0])
	require.Equal(t, ids[0], ids[1])
}

func TestRefresh(t *testing.T) {
	t.Run("no refresh token", func(t *testing.T) {
		r := &fakeRefresher{token: "x"}
		gw, err := gateway.New("http://localhost", sessions.New(), r)
		require.NoError(t, err)

		_, err = gw.Refresh(context.Background())
		require.ErrorIs(t, err, apierrors.ErrNoRefreshToken)
		require.Equal(t, int32(0), r.calls.Load())
	})

	t.Run("stores new token", func(t *testing.T) {
		s := sessions.New()
		require.NoError(t, s.Login(sessions.Credentials{AccessToken: "a1", RefreshToken: "r1"}))
		gw, err := gateway.New("http://localhost", s, &fakeRefresher{token: "a2"})
		require.NoError(t, err)

		tok, err := gw.Refresh(context.Background())
		require.NoError(t, err)
		require.Equal(t, "a2", tok)
		require.Equal(t, sessions.Credentials{AccessToken: "a2", RefreshToken: "r1"}, s.Credentials())
	})

	t.Run("failure restores state without teardown", func(t *testing.T) {
		s := sessions.New()
		require.NoError(t, s.Login(sessions.Credentials{AccessToken: "a1", RefreshToken: "r1"}))
		gw, err := gateway.New("http://localhost", s, &fakeRefresher{err: errors.New("nope")})
		require.NoError(t, err)

		_, err = gw.Refresh(context.Background())
		require.ErrorIs(t, err, apierrors.ErrRefreshFailed)
		require.Equal(t, sessions.Authenticated, s.State())
		require.Equal(t, "a1", s.AccessToken())
	})
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/questions/tests/1/":
			_, _ = io.WriteString(w, `{"id":1,"title":"Mock test"}`)
		case "/questions/tests/":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"title":["This field is required."]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Not found."}`)
		}
	}))
	defer srv.Close()

	s := sessions.New()
	require.NoError(t, s.Login(sessions.Credentials{AccessToken: "a1", RefreshToken: "r1"}))
	gw, err := gateway.New(srv.URL, s, &fakeRefresher{})
	require.NoError(t, err)
	ctx := context.Background()

	var out struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, gw.DoJSON(ctx, gateway.Request{Path: "/questions/tests/1/"}, &out))
	require.Equal(t, 1, out.ID)
	require.Equal(t, "Mock test", out.Title)

	err = gw.DoJSON(ctx, gateway.Request{Method: http.MethodPost, Path: "/questions/tests/", Body: map[string]string{}}, nil)
	require.ErrorIs(t, err, apierrors.ErrValidation)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "This field is required.", apiErr.FieldErrors["title"])

	err = gw.DoJSON(ctx, gateway.Request{Path: "/questions/tests/99/"}, &out)
	require.ErrorIs(t, err, apierrors.ErrNotFound)
}
