package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pesabridge/pkg/mpesa"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stubGateway struct {
	result *mpesa.PaymentResult
	got    *mpesa.PaymentRequest
	calls  int
}

func (s *stubGateway) InitiatePayment(_ context.Context, req *mpesa.PaymentRequest) *mpesa.PaymentResult {
	s.got = req
	s.calls++
	return s.result
}

type stkPushReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		MerchantRequestID   string `json:"MerchantRequestID"`
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
	} `json:"data"`
}

func newSTKPushRouter(gw mpesa.Gateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/stk-push/", NewSTKPushHandler(gw, 70000, zap.NewNop().Sugar()).Handle)
	return r
}

func doSTKPush(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, stkPushReply) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/stk-push/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var reply stkPushReply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	return w, reply
}

func TestSTKPushAccepted(t *testing.T) {
	gw := &stubGateway{result: &mpesa.PaymentResult{
		Accepted:          true,
		Message:           "STK push sent successfully. Please check your phone.",
		MerchantRequestID: "mr-1",
		CheckoutRequestID: "cr-1",
		ResponseCode:      "0",
	}}
	r := newSTKPushRouter(gw)

	w, reply := doSTKPush(t, r, `{"phoneNumber":"0712345678","amount":50}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !reply.Success {
		t.Fatalf("success = false: %s", reply.Message)
	}
	if reply.Data.MerchantRequestID != "mr-1" || reply.Data.CheckoutRequestID != "cr-1" {
		t.Errorf("ids = %q / %q", reply.Data.MerchantRequestID, reply.Data.CheckoutRequestID)
	}
	if gw.got == nil || gw.got.PhoneNumber != "254712345678" {
		t.Errorf("gateway saw phone %+v, want normalized 254712345678", gw.got)
	}
}

func TestSTKPushGatewayRejection(t *testing.T) {
	gw := &stubGateway{result: mpesa.Rejected("STK push failed: Invalid Amount")}
	r := newSTKPushRouter(gw)

	w, reply := doSTKPush(t, r, `{"phoneNumber":"0712345678","amount":50}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if reply.Success {
		t.Fatal("success = true for a rejected payment")
	}
	if !strings.Contains(reply.Message, "Invalid Amount") {
		t.Errorf("message = %q", reply.Message)
	}
}

func TestSTKPushValidationFailureSkipsGateway(t *testing.T) {
	gw := &stubGateway{result: &mpesa.PaymentResult{Accepted: true}}
	r := newSTKPushRouter(gw)

	cases := []string{
		`{"phoneNumber":"123","amount":50}`,
		`{"phoneNumber":"0712345678","amount":0}`,
		`{"phoneNumber":"0712345678","amount":"abc"}`,
		`{"phoneNumber":"0712345678"}`,
		`{"amount":50}`,
	}
	for _, body := range cases {
		w, reply := doSTKPush(t, r, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
		if reply.Success {
			t.Errorf("body %s: success = true", body)
		}
		if reply.Message == "" {
			t.Errorf("body %s: empty validation message", body)
		}
	}
	if gw.calls != 0 {
		t.Errorf("gateway called %d times for invalid input", gw.calls)
	}
}

func TestSTKPushMalformedBody(t *testing.T) {
	gw := &stubGateway{result: &mpesa.PaymentResult{Accepted: true}}
	r := newSTKPushRouter(gw)

	w, reply := doSTKPush(t, r, `{"phoneNumber":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if reply.Success {
		t.Fatal("success = true for malformed JSON")
	}
}

func TestSTKPushAmountAsString(t *testing.T) {
	gw := &stubGateway{result: &mpesa.PaymentResult{Accepted: true, ResponseCode: "0"}}
	r := newSTKPushRouter(gw)

	w, _ := doSTKPush(t, r, `{"phoneNumber":"254712345678","amount":"250"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gw.got.Amount != 250 {
		t.Errorf("amount = %v", gw.got.Amount)
	}
}
