package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/mytinerary/internal/repo"
	"github.com/tazhibayda/mytinerary/internal/security"
)

func TestRegister_Created(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/user", `{"email":" New@Example.com","username":"newbie","password":"password1","country":"PT"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "new@example.com", body["email"])
	assert.Equal(t, "newbie", body["username"])
	assert.Equal(t, false, body["is_logged_in"])
	assert.NotEmpty(t, body["id"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, w.Body.String(), "$2a$")
}

func TestRegister_ValidationListsEveryField(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/user", `{"email":"nope","password":"short"}`, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	var fields []string
	for _, fe := range body.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"email", "password"}, fields)

	got, _ := e.Store.FindUsers(context.Background(), repo.UserFilter{Email: "nope"})
	assert.Empty(t, got)
}

func TestRegister_Conflict(t *testing.T) {
	e := newTestEnv(t)
	e.register("dup@example.com", "password1")
	w := e.do(http.MethodPost, "/user", `{"email":"dup@example.com","password":"password2"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_BadJSON(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/user", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_Form(t *testing.T) {
	e := newTestEnv(t)
	w := e.form("/user", url.Values{"email": {"F@Example.com"}, "password": {"password1"}, "first_name": {"Fo"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"email":"f@example.com"`)

	e.login("f@example.com", "password1")
}

func TestLogin_JSONAndForm(t *testing.T) {
	e := newTestEnv(t)
	e.register("l@example.com", "password1")

	tok := e.login("l@example.com", "password1")
	claims, err := e.Issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "l@example.com", claims.Email)

	w := e.form("/user/login", url.Values{"email": {"l@example.com"}, "password": {"password1"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestLogin_WrongPasswordHasNoToken(t *testing.T) {
	e := newTestEnv(t)
	e.register("w@example.com", "password1")

	w := e.do(http.MethodPost, "/user/login", `{"email":"w@example.com","password":"password2"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "token")
}

func TestLogin_UnknownUser(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/user/login", `{"email":"ghost@example.com","password":"password1"}`, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogin_ShortPassword(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/user/login", `{"email":"a@example.com","password":"short"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	e := newTestEnv(t, withLimiter(&denyAfter{n: 2}))
	for i := 0; i < 2; i++ {
		w := e.do(http.MethodPost, "/user/login", `{"email":"x@example.com","password":"password1"}`, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	w := e.do(http.MethodPost, "/user/login", `{"email":"x@example.com","password":"password1"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestGate_RejectsIdentically(t *testing.T) {
	e := newTestEnv(t)
	e.register("gate@example.com", "password1")
	valid := e.login("gate@example.com", "password1")
	claims, err := e.Issuer.Verify(valid)
	require.NoError(t, err)

	past, err := security.NewIssuer(testSecret, security.WithClock(func() time.Time {
		return time.Now().Add(-security.TokenTTL - time.Hour)
	}))
	require.NoError(t, err)
	expired, err := past.Issue(security.Claims{UID: claims.UID, Email: claims.Email})
	require.NoError(t, err)

	forged, err := security.NewIssuer("another-secret")
	require.NoError(t, err)
	badSig, err := forged.Issue(security.Claims{UID: claims.UID})
	require.NoError(t, err)

	noHeader := e.do(http.MethodGet, "/user", "", "")
	require.Equal(t, http.StatusUnauthorized, noHeader.Code)

	for name, tok := range map[string]string{"expired": expired, "bad signature": badSig, "garbage": "a.b.c"} {
		w := e.do(http.MethodGet, "/user", "", tok)
		assert.Equal(t, noHeader.Code, w.Code, name)
		assert.Equal(t, noHeader.Body.String(), w.Body.String(), name)
	}

	w := e.do(http.MethodGet, "/user", "", valid)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGate_SchemeIsCaseInsensitive(t *testing.T) {
	e := newTestEnv(t)
	e.register("case@example.com", "password1")
	tok := e.login("case@example.com", "password1")

	req, _ := http.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "bearer  "+tok)
	w := httpRecorder(e, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Basic "+tok)
	w = httpRecorder(e, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	e := newTestEnv(t)
	e.register("me@example.com", "password1")
	tok := e.login("me@example.com", "password1")

	w := e.do(http.MethodGet, "/user", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "me@example.com", body["email"])
	assert.Equal(t, true, body["is_logged_in"])
	assert.NotContains(t, body, "password_hash")
}

func TestLogout_KeepsTokenButBlocksPrivilegedRoutes(t *testing.T) {
	e := newTestEnv(t)
	e.register("out@example.com", "password1")
	tok := e.login("out@example.com", "password1")

	w := e.do(http.MethodGet, "/user/favoriteItineraries", "", tok)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/user/logout", "", tok)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/user", "", tok)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/user/favoriteItineraries", "", tok)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"not logged in"}`, w.Body.String())

	w = e.do(http.MethodPost, "/user/favoriteItineraries", `{"itineraryTitle":"Rome"}`, tok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// logging in again restores access with a fresh token
	tok = e.login("out@example.com", "password1")
	w = e.do(http.MethodGet, "/user/favoriteItineraries", "", tok)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFavorites_Toggle(t *testing.T) {
	e := newTestEnv(t)
	e.register("fav@example.com", "password1")
	tok := e.login("fav@example.com", "password1")

	w := e.do(http.MethodPost, "/user/favoriteItineraries", `{"itineraryTitle":"Kyoto temples"}`, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"favorited":true}`, w.Body.String())

	w = e.do(http.MethodGet, "/user/favoriteItineraries", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Kyoto temples"]`, w.Body.String())

	w = e.do(http.MethodPost, "/user/favoriteItineraries", `{"itineraryTitle":"Kyoto temples"}`, tok)
	assert.JSONEq(t, `{"favorited":false}`, w.Body.String())

	w = e.do(http.MethodGet, "/user/favoriteItineraries", "", tok)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = e.do(http.MethodPost, "/user/favoriteItineraries", `{}`, tok)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	e = newTestEnv(t, withHealth(downPinger{}))
	w = e.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, strings.Contains(w.Body.String(), "mongo-0"))
}

func TestRequestIDEchoed(t *testing.T) {
	e := newTestEnv(t)
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httpRecorder(e, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = e.do(http.MethodGet, "/healthz", "", "")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
