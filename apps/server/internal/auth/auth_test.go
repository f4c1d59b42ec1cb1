package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func services(t *testing.T) map[string]Service {
	t.Helper()
	lite, err := NewSQLiteManager(filepath.Join(t.TempDir(), "auth.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lite.Close() })
	return map[string]Service{
		"memory": NewManager(),
		"sqlite": lite,
	}
}

func TestService_RegisterLoginLogout(t *testing.T) {
	for name, svc := range services(t) {
		t.Run(name, func(t *testing.T) {
			id, token, err := svc.Register("Alice", "secret1")
			require.NoError(t, err)
			require.NotZero(t, id)
			require.NotEmpty(t, token)

			_, _, err = svc.Register("alice", "another")
			assert.ErrorIs(t, err, ErrUsernameTaken)
			assert.True(t, svc.IsRegistered("ALICE"))
			assert.False(t, svc.IsRegistered("bob"))

			gotID, username, ok := svc.ResolveSession(token)
			require.True(t, ok)
			assert.Equal(t, id, gotID)
			assert.Equal(t, "Alice", username, "registration casing is kept")

			_, _, err = svc.Login("alice", "wrong-pass")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			_, _, err = svc.Login("nobody", "secret1")
			assert.ErrorIs(t, err, ErrInvalidCredentials)

			loginID, token2, err := svc.Login(" Alice ", "secret1")
			require.NoError(t, err)
			assert.Equal(t, id, loginID)
			assert.NotEqual(t, token, token2)

			svc.Logout(token)
			_, _, ok = svc.ResolveSession(token)
			assert.False(t, ok)
			_, _, ok = svc.ResolveSession(token2)
			assert.True(t, ok)
		})
	}
}

func TestService_RegisterValidation(t *testing.T) {
	for name, svc := range services(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Register("x", "secret1")
			assert.ErrorIs(t, err, ErrInvalidUsername)
			_, _, err = svc.Register("has space", "secret1")
			assert.ErrorIs(t, err, ErrInvalidUsername)
			_, _, err = svc.Register("carol", "123")
			assert.ErrorIs(t, err, ErrInvalidPassword)
		})
	}
}

func TestManager_SessionExpires(t *testing.T) {
	m := NewManagerWithTTL(time.Millisecond)
	_, token, err := m.Register("dave", "secret1")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, _, ok := m.ResolveSession(token)
	assert.False(t, ok)
}

func TestNewService_Modes(t *testing.T) {
	svc, mode, err := NewService("", "", 0)
	require.NoError(t, err)
	assert.Equal(t, ModeMemory, mode)
	assert.IsType(t, &Manager{}, svc)

	svc, mode, err = NewService("SQLite", filepath.Join(t.TempDir(), "a.db"), 0)
	require.NoError(t, err)
	assert.Equal(t, ModeSQLite, mode)
	require.NoError(t, svc.Close())

	_, _, err = NewService("redis", "", 0)
	assert.Error(t, err)
}

func TestNames_Claim(t *testing.T) {
	accounts := NewManager()
	_, _, err := accounts.Register("erin", "secret1")
	require.NoError(t, err)
	names := NewNames(accounts)

	got, err := names.Claim("conn-1", "  Frank ", false)
	require.NoError(t, err)
	assert.Equal(t, "Frank", got)
	assert.True(t, names.InUse("frank"))

	_, err = names.Claim("conn-2", "frank", false)
	assert.ErrorIs(t, err, ErrUsernameInUse)
	_, err = names.Claim("conn-2", "erin", false)
	assert.ErrorIs(t, err, ErrUsernameTaken, "registered names need a session")
	_, err = names.Claim("conn-2", "erin", true)
	require.NoError(t, err)
	_, err = names.Claim("conn-3", "no", false)
	assert.ErrorIs(t, err, ErrInvalidUsername)

	// renaming frees the old name
	_, err = names.Claim("conn-1", "grace", false)
	require.NoError(t, err)
	assert.False(t, names.InUse("frank"))

	names.Release("conn-1")
	assert.False(t, names.InUse("grace"))
	_, ok := names.Name("conn-1")
	assert.False(t, ok)
	name, ok := names.Name("conn-2")
	assert.True(t, ok)
	assert.Equal(t, "erin", name)
}

func TestHTTPHandler(t *testing.T) {
	accounts := NewManager()
	names := NewNames(accounts)
	_, err := names.Claim("conn-1", "guest1", false)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHTTPHandler(accounts, names).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	post := func(path, body string) *http.Response {
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		return resp
	}

	resp := post("/api/auth/register", `{"username":"guest1","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = post("/api/auth/register", `{"username":"heidi","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var auth sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	resp.Body.Close()
	require.NotEmpty(t, auth.SessionToken)

	resp = post("/api/auth/login", `{"username":"heidi","password":"nope-nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/auth/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+auth.SessionToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var me sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	resp.Body.Close()
	assert.Equal(t, "heidi", me.Username)

	for name, want := range map[string]bool{"heidi": false, "guest1": false, "ivan": true, "x": false} {
		resp, err := http.Get(srv.URL + "/api/auth/available?username=" + name)
		require.NoError(t, err)
		var av availabilityResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&av))
		resp.Body.Close()
		assert.Equal(t, want, av.Available, name)
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}
