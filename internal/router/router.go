package router

import (
	"net/http"

	"pesabridge/config"
	"pesabridge/internal/handler"
	"pesabridge/internal/middleware"
	"pesabridge/internal/service"
	"pesabridge/pkg/mpesa"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Setup wires middleware, handlers, and routes into a gin engine.
func Setup(cfg *config.Config, gateway mpesa.Gateway, callbacks *service.CallbackService, log *zap.SugaredLogger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// An uncaught fault becomes an opaque 500; internal detail stays in the log.
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Errorw("panic in handler", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error occurred. Please try again.",
		})
	}))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)))

	stkHandler := handler.NewSTKPushHandler(gateway, cfg.Mpesa.MaxAmount, log)
	callbackHandler := handler.NewCallbackHandler(callbacks, log)

	r.POST("/stk-push/", stkHandler.Handle)
	r.POST("/mpesa/callback", callbackHandler.Handle)
	r.GET("/health", handler.Health)

	return r
}
