package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	client *redis.Client
}

func NewHealthHandler(client *redis.Client) *HealthHandler {
	return &HealthHandler{client: client}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if err := h.client.Ping(c.Request.Context()).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
