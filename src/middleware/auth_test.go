package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracecoe/placement-portal/src/auth"
	"github.com/gracecoe/placement-portal/src/identity"
	"github.com/gracecoe/placement-portal/src/models"
	"github.com/gracecoe/placement-portal/src/store"
)

type fixture struct {
	router       *gin.Engine
	sessionStore *auth.SessionStore
	userStore    *store.UserStore
}

func setup(t *testing.T) *fixture {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sessionStore := auth.NewSessionStore(client, time.Hour)
	userStore := store.NewUserStore(client)
	classifier := identity.NewAdminClassifier([]string{"dean@gracecoe.org"})
	m := NewAuthMiddleware(sessionStore, userStore, classifier)

	r := gin.New()
	r.GET("/protected", m.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/admin", m.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/open", m.OptionalAuth(), func(c *gin.Context) {
		_, authed := c.Get(ContextIdentityKey)
		c.JSON(http.StatusOK, gin.H{"authed": authed})
	})

	return &fixture{router: r, sessionStore: sessionStore, userStore: userStore}
}

func (f *fixture) loginAs(t *testing.T, email string, isAdmin bool) *auth.Session {
	user := &models.User{
		ID:      "u-" + email,
		Email:   email,
		Name:    "Someone",
		IsAdmin: isAdmin,
	}
	require.NoError(t, f.userStore.Create(t.Context(), user))

	session, err := f.sessionStore.CreateSession(t.Context(), user.ID, email)
	require.NoError(t, err)
	return session
}

func request(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_NoSession(t *testing.T) {
	f := setup(t)

	w := request(f.router, "/protected", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_BrowserGetsRedirect(t *testing.T) {
	f := setup(t)

	w := request(f.router, "/protected", map[string]string{"Accept": "text/html"})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("Location"))
}

func TestRequireAuth_BearerToken(t *testing.T) {
	f := setup(t)
	session := f.loginAs(t, "student@example.com", false)

	w := request(f.router, "/protected", map[string]string{
		"Authorization": "Bearer " + session.ID,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin_NonAdminRedirectsHome(t *testing.T) {
	f := setup(t)
	session := f.loginAs(t, "student@example.com", false)

	w := request(f.router, "/admin", map[string]string{
		"Authorization": "Bearer " + session.ID,
		"Accept":        "text/html",
	})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRequireAdmin_StoredFlagGrantsAccess(t *testing.T) {
	f := setup(t)
	session := f.loginAs(t, "someone@example.com", true)

	w := request(f.router, "/admin", map[string]string{
		"Authorization": "Bearer " + session.ID,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin_AllowListGrantsAccess(t *testing.T) {
	// The stored flag is false; membership in the allow-list alone is
	// enough because the classifier ORs its signals.
	f := setup(t)
	session := f.loginAs(t, "dean@gracecoe.org", false)

	w := request(f.router, "/admin", map[string]string{
		"Authorization": "Bearer " + session.ID,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuth_NeverBlocks(t *testing.T) {
	f := setup(t)

	w := request(f.router, "/open", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authed":false`)

	session := f.loginAs(t, "student@example.com", false)
	w = request(f.router, "/open", map[string]string{
		"Authorization": "Bearer " + session.ID,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authed":true`)
}
