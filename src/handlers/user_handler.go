package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gracecoe/placement-portal/src/middleware"
	"github.com/gracecoe/placement-portal/src/models"
	"github.com/gracecoe/placement-portal/src/store"
)

// UserHandler covers profile self-service and admin user management.
type UserHandler struct {
	users *store.UserStore
}

func NewUserHandler(users *store.UserStore) *UserHandler {
	return &UserHandler{users: users}
}

type profileRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateProfile lets the signed-in user edit their display name. A name
// set here is exactly what the reconciler's non-clobber rule protects on
// later sign-ins.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	userValue, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		// Degraded session: the directory row was unreachable, so there
		// is nothing to write the edit to.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Profile temporarily unavailable"})
		return
	}

	user, ok := userValue.(*models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user data"})
		return
	}

	user.Name = name
	user.UpdatedAt = time.Now()

	if err := h.users.Save(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	identValue, _ := c.Get(middleware.ContextIdentityKey)
	if ident, ok := identValue.(*models.CanonicalIdentity); ok {
		ident.Name = name
		c.JSON(http.StatusOK, gin.H{"user": ident})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser removes a user row and its email index. Admin-gated; the
// reconciler itself never deletes.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
