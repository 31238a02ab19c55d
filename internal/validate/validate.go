package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pesabridge/pkg/mpesa"
)

const (
	countryCode     = "254"
	maxReferenceLen = 20
)

// ValidationError carries a user-facing message for a bad request field.
// The orchestrator returns the message verbatim with a 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func errf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// STKPushInput is the raw inbound body before validation. Amount is untyped
// because clients send it as either a JSON number or a string.
type STKPushInput struct {
	PhoneNumber string `json:"phoneNumber"`
	Amount      any    `json:"amount"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
}

var cleaner = strings.NewReplacer(" ", "", "-", "", "+", "")

// Phone normalizes a Kenyan phone number to 254XXXXXXXXX. Accepted shapes:
// already-prefixed 254 plus nine digits, a ten-digit 07/01 local number, or
// a nine-digit number starting with 7 or 1. Pure function.
func Phone(raw string) (string, error) {
	phone := cleaner.Replace(strings.TrimSpace(raw))
	if phone == "" {
		return "", errf("Phone number is required")
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return "", errf("Phone number must contain only digits")
		}
	}
	switch {
	case len(phone) == 12 && strings.HasPrefix(phone, countryCode):
		return phone, nil
	case len(phone) == 10 && (strings.HasPrefix(phone, "07") || strings.HasPrefix(phone, "01")):
		return countryCode + phone[1:], nil
	case len(phone) == 9 && (phone[0] == '7' || phone[0] == '1'):
		return countryCode + phone, nil
	}
	return "", errf("Invalid phone number format. Use 254XXXXXXXXX, 07XXXXXXXX, or 7XXXXXXXX")
}

// Amount parses and bounds-checks the transaction amount. max comes from
// config (70000 in the sandbox tier).
func Amount(raw any, max float64) (float64, error) {
	if raw == nil {
		return 0, errf("Amount is required")
	}
	var amount float64
	switch v := raw.(type) {
	case float64:
		amount = v
	case int:
		amount = float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, errf("Amount is required")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errf("Amount must be a valid number")
		}
		amount = f
	default:
		return 0, errf("Amount must be a valid number")
	}
	if amount <= 0 {
		return 0, errf("Amount must be greater than 0")
	}
	if amount > max {
		return 0, errf("Amount cannot exceed %s KES", strconv.FormatFloat(max, 'f', -1, 64))
	}
	return amount, nil
}

// NewPaymentRequest validates the inbound body and builds a PaymentRequest;
// an invalid request never yields a partially-valid object. The first failing
// field short-circuits with its message. Absent reference and description are
// synthesized from the phone, current time, and amount.
func NewPaymentRequest(in STKPushInput, maxAmount float64) (*mpesa.PaymentRequest, error) {
	phone, err := Phone(in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	amount, err := Amount(in.Amount, maxAmount)
	if err != nil {
		return nil, err
	}

	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		reference = fmt.Sprintf("PAY_%s_%d", phone[len(phone)-6:], time.Now().Unix()%100000)
	}
	if len(reference) > maxReferenceLen {
		return nil, errf("Reference cannot exceed %d characters", maxReferenceLen)
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = fmt.Sprintf("Payment of KES %s", strconv.FormatFloat(amount, 'f', -1, 64))
	}

	return &mpesa.PaymentRequest{
		PhoneNumber: phone,
		Amount:      amount,
		Reference:   reference,
		Description: description,
	}, nil
}
