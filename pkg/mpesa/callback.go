package mpesa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type callbackEnvelope struct {
	Body struct {
		StkCallback *stkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type stkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []metadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// metadataItem values arrive untyped: Amount and Balance as numbers,
// PhoneNumber and TransactionDate sometimes as numbers too.
type metadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// ParseCallback turns a raw Daraja notification body into an outcome.
// An empty body or a missing stkCallback object is a benign no-op (the
// provider sends health-check pings) and yields (nil, nil). A body that is
// not valid JSON is an error; the HTTP boundary still acknowledges it.
func ParseCallback(body []byte) (*CallbackOutcome, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var env callbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("callback envelope: %w", err)
	}
	cb := env.Body.StkCallback
	if cb == nil {
		return nil, nil
	}

	outcome := &CallbackOutcome{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}
	if cb.ResultCode != 0 {
		return outcome, nil
	}

	outcome.Succeeded = true
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			outcome.Amount = metaFloat(item.Value)
		case "MpesaReceiptNumber":
			outcome.ReceiptNumber = metaString(item.Value)
		case "PhoneNumber":
			outcome.PhoneNumber = metaString(item.Value)
		case "TransactionDate":
			outcome.TransactionDate = metaString(item.Value)
		case "Balance":
			outcome.Balance = metaFloat(item.Value)
		}
	}
	return outcome, nil
}

func metaString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func metaFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}
