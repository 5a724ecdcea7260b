package auth

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/its-lightning/tetris/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t))

	u, err := users.Create(ctx, Signup{Username: " alice_1 ", Password: "correct horse", Email: "a@example.com"}, "")
	require.NoError(t, err)
	assert.Equal(t, "alice_1", u.Username)
	assert.Equal(t, RolePlayer, u.Role)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	got, err := users.Authenticate(ctx, "ALICE_1", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.LastLogin)

	_, err = users.Authenticate(ctx, "alice_1", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Authenticate(ctx, "bob", "whatever1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	reloaded, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", reloaded.Email)
	assert.NotNil(t, reloaded.LastLogin)
}

func TestCreateUniqueness(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t))

	_, err := users.Create(ctx, Signup{Username: "carol", Password: "password1", Email: "c@example.com"}, RolePlayer)
	require.NoError(t, err)

	_, err = users.Create(ctx, Signup{Username: "CAROL", Password: "password1"}, RolePlayer)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = users.Create(ctx, Signup{Username: "carol2", Password: "password1", Email: "C@Example.com"}, RolePlayer)
	assert.ErrorIs(t, err, ErrEmailTaken)

	// accounts without email do not collide
	_, err = users.Create(ctx, Signup{Username: "dave", Password: "password1"}, RolePlayer)
	require.NoError(t, err)
	_, err = users.Create(ctx, Signup{Username: "erin", Password: "password1"}, RolePlayer)
	require.NoError(t, err)
}

func TestSignupValidation(t *testing.T) {
	users := NewUsers(newTestDB(t))
	cases := []Signup{
		{Username: "ab", Password: "password1"},
		{Username: "this_name_is_way_too_long_x", Password: "password1"},
		{Username: "bad name", Password: "password1"},
		{Username: "okname", Password: "short"},
		{Username: "okname", Password: "password1", Email: "nope"},
	}
	for _, in := range cases {
		_, err := users.Create(context.Background(), in, RolePlayer)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "%+v", in)
	}
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t))

	a, err := users.EnsureAdmin(ctx, "boss", "password1")
	require.NoError(t, err)
	assert.True(t, a.IsAdmin())

	p, err := users.Create(ctx, Signup{Username: "frank", Password: "password1"}, RolePlayer)
	require.NoError(t, err)
	promoted, err := users.EnsureAdmin(ctx, "frank", "ignored!!")
	require.NoError(t, err)
	assert.Equal(t, p.ID, promoted.ID)
	assert.Equal(t, RoleAdmin, promoted.Role)

	again, err := users.EnsureAdmin(ctx, "boss", "password1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	u := &User{ID: "u1", Username: "gina", Role: RoleAdmin}

	tok, exp, err := tokens.Issue(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.ID)
	assert.Equal(t, "gina", claims.Username)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = NewTokens("other", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(u)
	require.NoError(t, err)
	_, err = tokens.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t))
	tokens := NewTokens("secret", time.Hour)
	mw := NewMiddleware(users, tokens, CookieConfig{Name: "tok"})

	player, err := users.Create(ctx, Signup{Username: "henry", Password: "password1"}, RolePlayer)
	require.NoError(t, err)
	admin, err := users.EnsureAdmin(ctx, "root_admin", "password1")
	require.NoError(t, err)

	playerTok, _, err := tokens.Issue(player)
	require.NoError(t, err)
	adminTok, _, err := tokens.Issue(admin)
	require.NoError(t, err)

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := FromContext(r.Context()); ok {
			_, _ = w.Write([]byte(id.Username))
			return
		}
		_, _ = w.Write([]byte("guest"))
	})

	do := func(h http.Handler, bearer, cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "tok", Value: cookie})
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("optional", func(t *testing.T) {
		assert.Equal(t, "guest", do(mw.Optional(echo), "", "").Body.String())
		assert.Equal(t, "guest", do(mw.Optional(echo), "garbage", "").Body.String())
		assert.Equal(t, "henry", do(mw.Optional(echo), playerTok, "").Body.String())
		assert.Equal(t, "henry", do(mw.Optional(echo), "", playerTok).Body.String())
	})

	t.Run("require", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(mw.Require(echo), "", "").Code)
		assert.Equal(t, http.StatusUnauthorized, do(mw.Require(echo), "garbage", "").Code)
		rec := do(mw.Require(echo), playerTok, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "henry", rec.Body.String())
	})

	t.Run("admin", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(mw.RequireAdmin(echo), "", "").Code)
		assert.Equal(t, http.StatusForbidden, do(mw.RequireAdmin(echo), playerTok, "").Code)
		assert.Equal(t, http.StatusOK, do(mw.RequireAdmin(echo), adminTok, "").Code)
	})

	t.Run("cookies", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mw.SetCookie(rec, "abc", time.Now().Add(time.Hour))
		c := rec.Result().Cookies()
		require.Len(t, c, 1)
		assert.Equal(t, "tok", c[0].Name)
		assert.Equal(t, "abc", c[0].Value)
		assert.True(t, c[0].HttpOnly)

		rec = httptest.NewRecorder()
		mw.ClearCookie(rec)
		c = rec.Result().Cookies()
		require.Len(t, c, 1)
		assert.Equal(t, -1, c[0].MaxAge)
	})
}
