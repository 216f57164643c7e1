package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gracecoe/placement-portal/src/auth"
	"github.com/gracecoe/placement-portal/src/identity"
	"github.com/gracecoe/placement-portal/src/models"
)

// Context keys set for downstream handlers.
const (
	ContextUserKey     = "user"
	ContextIdentityKey = "identity"
	ContextSessionKey  = "session"
)

// AuthMiddleware resolves the login session into a CanonicalIdentity and
// enforces route-guard decisions. All privilege checks go through the
// shared classifier; nothing here re-derives admin status on its own.
type AuthMiddleware struct {
	sessionStore *auth.SessionStore
	users        models.UserDirectory
	classifier   *identity.AdminClassifier
}

func NewAuthMiddleware(sessionStore *auth.SessionStore, users models.UserDirectory, classifier *identity.AdminClassifier) *AuthMiddleware {
	return &AuthMiddleware{
		sessionStore: sessionStore,
		users:        users,
		classifier:   classifier,
	}
}

// RequireAuth gates authenticated-only routes.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return m.guard(identity.RouteAuthenticated)
}

// RequireAdmin gates admin-only routes.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.guard(identity.RouteAdminOnly)
}

// OptionalAuth attaches the identity when a valid session is present but
// never blocks the request.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, session, user := m.resolve(c)
		if ident != nil {
			m.attach(c, ident, session, user)
		}
		c.Next()
	}
}

func (m *AuthMiddleware) guard(class identity.RouteClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, session, user := m.resolve(c)

		decision := identity.Authorize(class, ident, false)
		if decision.Verdict != identity.Allow {
			m.deny(c, class, decision)
			return
		}

		m.attach(c, ident, session, user)
		c.Next()
	}
}

// resolve turns the session cookie (or Bearer token) into a canonical
// identity. A missing or expired session yields a nil identity; a user
// directory outage degrades to a session-only identity rather than
// logging the caller out.
func (m *AuthMiddleware) resolve(c *gin.Context) (*models.CanonicalIdentity, *auth.Session, *models.User) {
	sessionID := sessionIDFrom(c)
	if sessionID == "" {
		return nil, nil, nil
	}

	session, err := m.sessionStore.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		return nil, nil, nil
	}

	user, err := m.users.GetByID(c.Request.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, nil
		}
		log.Printf("⚠️  User lookup failed during auth, degrading to session identity: %v", err)
		ident := &models.CanonicalIdentity{
			Email: strings.ToLower(session.Email),
			Name:  localPart(session.Email),
			IsAdmin: m.classifier.IsAdmin(identity.Signals{
				Email: session.Email,
			}),
		}
		return ident, session, nil
	}

	ident := &models.CanonicalIdentity{
		Email:    strings.ToLower(session.Email),
		Name:     user.Name,
		Picture:  user.Picture,
		Provider: user.Provider,
		RecordID: user.ID,
		IsAdmin: m.classifier.IsAdmin(identity.Signals{
			Email:      session.Email,
			StoredFlag: user.IsAdmin,
		}),
	}
	return ident, session, user
}

func (m *AuthMiddleware) attach(c *gin.Context, ident *models.CanonicalIdentity, session *auth.Session, user *models.User) {
	c.Set(ContextIdentityKey, ident)
	if session != nil {
		c.Set(ContextSessionKey, session)
		// A failed refresh only shortens the sliding window; the request
		// itself still proceeds.
		if err := m.sessionStore.RefreshSession(c.Request.Context(), session.ID); err != nil {
			log.Printf("⚠️  Failed to refresh session %s: %v", session.ID, err)
		}
	}
	if user != nil {
		c.Set(ContextUserKey, user)
	}
}

// deny translates a guard decision for the transport: browser navigations
// get the redirect the guard chose, API calls get a status code.
func (m *AuthMiddleware) deny(c *gin.Context, class identity.RouteClass, decision identity.Decision) {
	if decision.Verdict == identity.Redirect && acceptsHTML(c) {
		c.Redirect(http.StatusFound, decision.Target)
		c.Abort()
		return
	}

	if class == identity.RouteAdminOnly {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
	} else {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	c.Abort()
}

func sessionIDFrom(c *gin.Context) string {
	if sessionID, err := c.Cookie("session_id"); err == nil && sessionID != "" {
		return sessionID
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func acceptsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
