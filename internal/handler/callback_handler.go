package handler

import (
	"io"
	"net/http"

	"pesabridge/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CallbackHandler receives provider-initiated payment notifications.
type CallbackHandler struct {
	callbacks *service.CallbackService
	log       *zap.SugaredLogger
}

func NewCallbackHandler(callbacks *service.CallbackService, log *zap.SugaredLogger) *CallbackHandler {
	return &CallbackHandler{callbacks: callbacks, log: log}
}

// Handle serves POST /mpesa/callback. It always acknowledges with 200 and
// ResultCode 0: anything else makes the provider hammer the endpoint with
// redeliveries, so even an internal fault must not change the response.
func (h *CallbackHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warnw("callback body read failed", "error", err)
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				h.log.Errorw("panic while processing callback", "panic", r, "body", string(body))
			}
		}()
		h.callbacks.Process(c.Request.Context(), body)
	}()

	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Success"})
}
