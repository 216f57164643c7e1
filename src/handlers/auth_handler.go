package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/gracecoe/placement-portal/src/auth"
	"github.com/gracecoe/placement-portal/src/config"
	"github.com/gracecoe/placement-portal/src/events"
	"github.com/gracecoe/placement-portal/src/identity"
	"github.com/gracecoe/placement-portal/src/middleware"
	"github.com/gracecoe/placement-portal/src/models"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// AuthHandler exposes every sign-in path. Each one ends in the same
// reconciler call; the handlers only differ in how they authenticate.
type AuthHandler struct {
	oauthConfig     *oauth2.Config
	stateStore      *auth.StateStore
	sessionStore    *auth.SessionStore
	credentialStore *auth.CredentialStore
	reconciler      *identity.Reconciler
	bus             events.Publisher
	config          *config.AuthConfig
	userInfoURL     string
}

func NewAuthHandler(
	oauthConfig *oauth2.Config,
	stateStore *auth.StateStore,
	sessionStore *auth.SessionStore,
	credentialStore *auth.CredentialStore,
	reconciler *identity.Reconciler,
	bus events.Publisher,
	cfg *config.AuthConfig,
) *AuthHandler {
	return &AuthHandler{
		oauthConfig:     oauthConfig,
		stateStore:      stateStore,
		sessionStore:    sessionStore,
		credentialStore: credentialStore,
		reconciler:      reconciler,
		bus:             bus,
		config:          cfg,
		userInfoURL:     googleUserInfoURL,
	}
}

// GoogleLogin issues the Google consent URL with a one-time state.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, err := h.stateStore.GenerateState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate state"})
		return
	}

	if err := h.stateStore.SaveState(c.Request.Context(), state); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save state"})
		return
	}

	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GoogleCallback finishes the OAuth round trip and signs the user in.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")

	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing state or code parameter"})
		return
	}

	valid, err := h.stateStore.ConsumeState(c.Request.Context(), state)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate state"})
		return
	}
	if !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired state"})
		return
	}

	token, err := h.oauthConfig.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to exchange code for token"})
		return
	}

	googleUser, err := h.fetchGoogleUserInfo(c.Request.Context(), token.AccessToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user info"})
		return
	}

	if !googleUser.VerifiedEmail {
		c.JSON(http.StatusForbidden, gin.H{"error": "Email not verified"})
		return
	}

	session := &models.Session{
		SubjectID: googleUser.ID,
		Email:     googleUser.Email,
		Provider:  "google",
		Metadata: models.SessionMetadata{
			Name:     googleUser.Name,
			FullName: strings.TrimSpace(googleUser.GivenName + " " + googleUser.FamilyName),
			Picture:  googleUser.Picture,
		},
	}

	ident, err := h.reconciler.Reconcile(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	if err := h.establishSession(c, ident, googleUser.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.Redirect(http.StatusFound, h.config.FrontendURL+"/auth/callback")
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

// Signup registers an email/password account and signs it in.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and a password of at least 8 characters are required"})
		return
	}

	email := strings.ToLower(req.Email)

	exists, err := h.credentialStore.HasCredential(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check account"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "An account already exists for this email"})
		return
	}

	if err := h.credentialStore.SetPassword(c.Request.Context(), email, req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	ident, err := h.signInWithPassword(c, email, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": ident})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an email/password account.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	email := strings.ToLower(req.Email)

	if err := h.credentialStore.Verify(c.Request.Context(), email, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify credentials"})
		return
	}

	ident, err := h.signInWithPassword(c, email, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": ident})
}

// Logout deletes the session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie("session_id")
	if err == nil {
		h.sessionStore.DeleteSession(c.Request.Context(), sessionID)
	}

	h.clearSessionCookie(c)
	h.bus.Publish(events.Event{Kind: events.SignedOut})

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the reconciled identity for the current session.
func (h *AuthHandler) Me(c *gin.Context) {
	identValue, exists := c.Get(middleware.ContextIdentityKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ident, ok := identValue.(*models.CanonicalIdentity)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid identity data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": ident})
}

type resetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset issues a one-time reset token. The response is the
// same whether or not the account exists.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	email := strings.ToLower(req.Email)

	exists, err := h.credentialStore.HasCredential(c.Request.Context(), email)
	if err == nil && exists {
		token, tokenErr := h.credentialStore.CreateResetToken(c.Request.Context(), email)
		if tokenErr == nil {
			// Mail delivery is handled out of band; the token is logged
			// for the operator until then.
			log.Printf("Password reset requested for %s: %s/reset-password?token=%s", email, h.config.FrontendURL, token)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "If an account exists, a reset link has been sent"})
}

type resetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// ConfirmPasswordReset exchanges a reset token for a new password.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token and a password of at least 8 characters are required"})
		return
	}

	email, err := h.credentialStore.ConsumeResetToken(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify reset token"})
		return
	}

	if err := h.credentialStore.SetPassword(c.Request.Context(), email, req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// signInWithPassword reconciles an email/password session and opens a
// login session for it.
func (h *AuthHandler) signInWithPassword(c *gin.Context, email, name string) (*models.CanonicalIdentity, error) {
	session := &models.Session{
		Email:    email,
		Provider: "email",
		Metadata: models.SessionMetadata{
			Name: name,
		},
	}

	ident, err := h.reconciler.Reconcile(c.Request.Context(), session)
	if err != nil {
		return nil, err
	}

	if err := h.establishSession(c, ident, ""); err != nil {
		return nil, err
	}

	return ident, nil
}

// establishSession creates the login session and sets the cookie. When
// reconciliation ran degraded there is no record ID; the provider subject
// keeps the session usable until the directory recovers.
func (h *AuthHandler) establishSession(c *gin.Context, ident *models.CanonicalIdentity, fallbackID string) error {
	userID := ident.RecordID
	if userID == "" {
		userID = fallbackID
	}
	if userID == "" {
		userID = ident.Email
	}

	session, err := h.sessionStore.CreateSession(c.Request.Context(), userID, ident.Email)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, session.ID)
	h.bus.Publish(events.Event{Kind: events.SignedIn, Identity: ident})
	return nil
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(h.cookieSameSite())
	c.SetCookie(
		"session_id",
		sessionID,
		int(h.config.SessionDuration/time.Second),
		"/",
		h.cookieDomain(),
		h.config.CookieSecure,
		true,
	)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(h.cookieSameSite())
	c.SetCookie(
		"session_id",
		"",
		-1,
		"/",
		h.cookieDomain(),
		h.config.CookieSecure,
		true,
	)
}

func (h *AuthHandler) cookieSameSite() http.SameSite {
	switch h.config.CookieSameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (h *AuthHandler) cookieDomain() string {
	if h.config.CookieDomain == "localhost" {
		return ""
	}
	return h.config.CookieDomain
}

func (h *AuthHandler) fetchGoogleUserInfo(ctx context.Context, accessToken string) (*auth.GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", h.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch user info: status %d, body: %s", resp.StatusCode, string(body))
	}

	var googleUser auth.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &googleUser, nil
}
