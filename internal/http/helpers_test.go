package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tazhibayda/mytinerary/internal/auth"
	httpapi "github.com/tazhibayda/mytinerary/internal/http"
	"github.com/tazhibayda/mytinerary/internal/oauth"
	"github.com/tazhibayda/mytinerary/internal/queue"
	"github.com/tazhibayda/mytinerary/internal/repo"
	"github.com/tazhibayda/mytinerary/internal/security"
)

const (
	testSecret   = "http-test-secret"
	frontendURL  = "http://front.test"
	failureURL   = "http://front.test/user/create-account"
	googleCode   = "good-code"
	googleAccess = "at-1"
)

type testEnv struct {
	T      *testing.T
	Store  *repo.MemoryStore
	Issuer *security.Issuer
	Svc    *auth.Service
	H      *httpapi.Handler
	Router *gin.Engine

	mu          sync.Mutex
	googleUser  map[string]any
	googleCalls int
}

type envOption func(*testEnv)

func withLimiter(l httpapi.Limiter) envOption {
	return func(e *testEnv) { e.H.Limiter = l }
}

func withoutGoogle() envOption {
	return func(e *testEnv) { e.H.Google = nil }
}

func withHealth(p httpapi.Pinger) envOption {
	return func(e *testEnv) { e.H.Health = p }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &testEnv{
		T:     t,
		Store: repo.NewMemoryStore(),
		googleUser: map[string]any{
			"sub": "g-1", "email": "Gina@Example.com", "email_verified": true,
			"given_name": "Gina", "family_name": "G", "picture": "http://img/g.png",
		},
	}
	iss, err := security.NewIssuer(testSecret)
	require.NoError(t, err)
	e.Issuer = iss
	e.Svc = auth.NewService(e.Store, security.NewHasher(bcrypt.MinCost, 4), iss, queue.NewNoop(), auth.IdentifierEmail, nil)

	provider := e.fakeGoogle()
	e.H = httpapi.NewHandler(e.Svc, e.Store, nil)
	e.H.States = e.Store
	e.H.FrontendURL = frontendURL
	e.H.FailureURL = failureURL
	e.H.Google = oauth.NewGoogle("cid", "sec", "http://api.test/user/google/redirect", "state-secret",
		oauth.WithEndpoint(provider.URL+"/auth", provider.URL+"/token", provider.URL+"/userinfo"))

	for _, o := range opts {
		o(e)
	}
	e.Router = httpapi.NewRouter(e.H, "mytinerary-test")
	return e
}

func (e *testEnv) fakeGoogle() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != googleCode {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": googleAccess, "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+googleAccess {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		e.mu.Lock()
		e.googleCalls++
		body := e.googleUser
		e.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	srv := httptest.NewServer(mux)
	e.T.Cleanup(srv.Close)
	return srv
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	e.T.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) form(path string, vals url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(email, password string) {
	e.T.Helper()
	w := e.do(http.MethodPost, "/user", `{"email":"`+email+`","password":"`+password+`","first_name":"T"}`, "")
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())
}

func (e *testEnv) login(email, password string) string {
	e.T.Helper()
	w := e.do(http.MethodPost, "/user/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(e.T, json.Unmarshal(w.Body.Bytes(), &out))
	require.True(e.T, out.Success)
	return out.Token
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("server selection timeout: mongo-0:27017") }

// denyAfter allows the first n calls per key.
type denyAfter struct {
	mu   sync.Mutex
	n    int
	seen map[string]int
}

func (d *denyAfter) Allow(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = map[string]int{}
	}
	d.seen[key]++
	return d.seen[key] <= d.n, nil
}
