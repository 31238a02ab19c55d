package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	oauthPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	transactionType = "CustomerPayBillOnline"
	timestampLayout = "20060102150405"

	successMessage = "STK push sent successfully. Please check your phone."
)

// Gateway initiates STK push payments. Implemented by Client; handlers depend
// on the interface so tests can stub the gateway out.
type Gateway interface {
	InitiatePayment(ctx context.Context, req *PaymentRequest) *PaymentResult
}

type ClientConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      int
	Passkey        string
	CallbackURL    string
	Timeout        time.Duration
	TokenValidity  time.Duration
	TokenMargin    time.Duration
}

// Client talks to the Daraja API: token acquisition (through a TokenCache)
// and payment initiation. The STK POST goes through a circuit breaker so a
// flapping gateway degrades into fast rejections instead of piled-up waits.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	tokens  *TokenCache
	breaker *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewClient(cfg ClientConfig, log *zap.SugaredLogger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.TokenValidity == 0 {
		cfg.TokenValidity = time.Hour
	}
	if cfg.TokenMargin == 0 {
		cfg.TokenMargin = 5 * time.Minute
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
		now:  time.Now,
	}
	c.tokens = NewTokenCache(c.fetchToken, cfg.TokenValidity, cfg.TokenMargin)
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "mpesa-stkpush"})
	return c
}

// fetchToken calls the OAuth endpoint with Basic auth built from the
// consumer key and secret. Non-2xx or malformed responses surface as
// *AuthError; the TokenCache decides when this runs.
func (c *Client) fetchToken(ctx context.Context, creds Credentials) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+oauthPath, nil)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	req.SetBasicAuth(creds.Key, creds.Secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil || out.AccessToken == "" {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	c.log.Infow("new access token generated", "token", tokenPrefix(out.AccessToken))
	return out.AccessToken, nil
}

// InitiatePayment sends the STK push for a validated request. It always
// returns a structured result: authentication, transport, and gateway
// failures all map to a rejection, never a raw error.
func (c *Client) InitiatePayment(ctx context.Context, req *PaymentRequest) *PaymentResult {
	c.log.Infow("initiating stk push",
		"phone", MaskPhone(req.PhoneNumber),
		"amount", req.Amount,
		"reference", req.Reference,
	)

	token, err := c.tokens.Token(ctx, Credentials{Key: c.cfg.ConsumerKey, Secret: c.cfg.ConsumerSecret})
	if err != nil {
		c.log.Errorw("token acquisition failed", "error", err)
		return Rejected("STK push failed: could not authenticate with payment gateway")
	}

	timestamp := c.now().Format(timestampLayout)
	password := base64.StdEncoding.EncodeToString(
		[]byte(strconv.Itoa(c.cfg.Shortcode) + c.cfg.Passkey + timestamp))

	payload := stkPushPayload{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   transactionType,
		Amount:            int64(req.Amount),
		PartyA:            req.PhoneNumber,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.Reference,
		TransactionDesc:   req.Description,
	}
	body, _ := json.Marshal(payload)

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.postSTKPush(ctx, token, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.Warnw("stk push short-circuited", "error", err)
			return Rejected("STK push failed: payment gateway temporarily unavailable")
		}
		c.log.Errorw("stk push request failed", "error", err)
		return Rejected(fmt.Sprintf("Network error during STK push: %v", err))
	}

	out := res.(*stkPushResponse)
	if out.ResponseCode == "0" {
		c.log.Infow("stk push accepted",
			"merchant_request_id", out.MerchantRequestID,
			"checkout_request_id", out.CheckoutRequestID,
		)
		return &PaymentResult{
			Accepted:            true,
			Message:             successMessage,
			MerchantRequestID:   out.MerchantRequestID,
			CheckoutRequestID:   out.CheckoutRequestID,
			ResponseCode:        out.ResponseCode,
			ResponseDescription: out.ResponseDescription,
		}
	}

	reason := out.ErrorMessage
	if reason == "" {
		reason = out.ResponseDescription
	}
	if reason == "" {
		reason = "Unknown error"
	}
	gerr := &GatewayError{Code: out.ResponseCode, Description: reason}
	c.log.Warnw("stk push rejected", "error", gerr)
	return &PaymentResult{
		Accepted:            false,
		Message:             "STK push failed: " + reason,
		ResponseCode:        out.ResponseCode,
		ResponseDescription: out.ResponseDescription,
	}
}

func (c *Client) postSTKPush(ctx context.Context, token string, body []byte) (*stkPushResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+stkPushPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// Daraja reports errors in the JSON body even on non-2xx statuses, so the
	// body is parsed regardless and the ResponseCode check decides the outcome.
	var out stkPushResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("invalid gateway response: %w", err)
	}
	return &out, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "..."
}
