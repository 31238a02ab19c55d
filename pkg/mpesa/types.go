package mpesa

import "strings"

// PaymentRequest is a validated STK push request. Construct it through
// validate.NewPaymentRequest; the fields here are always normalized.
type PaymentRequest struct {
	PhoneNumber string  // 254XXXXXXXXX
	Amount      float64 // 0 < amount <= configured maximum
	Reference   string  // account reference shown on the customer statement
	Description string
}

// PaymentResult is the structured outcome of an STK push attempt. The client
// never surfaces a raw error; every failure shape collapses into a rejection.
type PaymentResult struct {
	Accepted            bool
	Message             string
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseCode        string
	ResponseDescription string
}

// Rejected builds a failed result with a caller-facing reason.
func Rejected(reason string) *PaymentResult {
	return &PaymentResult{Accepted: false, Message: reason}
}

// CallbackOutcome is the parsed result of a single Daraja payment
// notification, keyed by (MerchantRequestID, CheckoutRequestID). The gateway
// may redeliver the same notification; consumers dedupe by Key.
type CallbackOutcome struct {
	MerchantRequestID string
	CheckoutRequestID string
	Succeeded         bool

	// Failure fields
	ResultCode int
	ResultDesc string

	// Success fields, from the callback metadata items
	ReceiptNumber   string
	Amount          float64
	PhoneNumber     string
	TransactionDate string
	Balance         float64
}

func (o *CallbackOutcome) Key() string {
	return o.MerchantRequestID + ":" + o.CheckoutRequestID
}

// MaskPhone hides the subscriber part of a phone number for logging,
// keeping the prefix and the last two digits.
func MaskPhone(phone string) string {
	if len(phone) < 9 {
		return "***"
	}
	return phone[:6] + strings.Repeat("*", len(phone)-8) + phone[len(phone)-2:]
}

// Daraja wire types.

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type stkPushPayload struct {
	BusinessShortCode int    `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            int    `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}
