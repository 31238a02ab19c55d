package handler

import (
	"net/http"

	"pesabridge/internal/validate"
	"pesabridge/pkg/mpesa"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// STKPushHandler is the request orchestrator: it validates the inbound body,
// calls the gateway, and maps the structured result onto the HTTP response.
type STKPushHandler struct {
	gateway   mpesa.Gateway
	maxAmount float64
	log       *zap.SugaredLogger
}

func NewSTKPushHandler(gateway mpesa.Gateway, maxAmount float64, log *zap.SugaredLogger) *STKPushHandler {
	return &STKPushHandler{gateway: gateway, maxAmount: maxAmount, log: log}
}

// Handle serves POST /stk-push/.
func (h *STKPushHandler) Handle(c *gin.Context) {
	var in validate.STKPushInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Request body must be valid JSON"})
		return
	}

	req, err := validate.NewPaymentRequest(in, h.maxAmount)
	if err != nil {
		h.log.Warnw("invalid stk push request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	result := h.gateway.InitiatePayment(c.Request.Context(), req)
	if !result.Accepted {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": result.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"data": gin.H{
			"MerchantRequestID":   result.MerchantRequestID,
			"CheckoutRequestID":   result.CheckoutRequestID,
			"ResponseCode":        result.ResponseCode,
			"ResponseDescription": result.ResponseDescription,
		},
	})
}
