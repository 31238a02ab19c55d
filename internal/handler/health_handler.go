package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "mpesa-stk-push"
	serviceVersion = "2.0.0"
)

// Health serves GET /health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   serviceVersion,
		"service":   serviceName,
	})
}
