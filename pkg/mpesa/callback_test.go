package mpesa

import "testing"

const successCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "CallbackMetadata": {
        "Item": [
          {"Name": "Amount", "Value": 100},
          {"Name": "MpesaReceiptNumber", "Value": "ABC123"},
          {"Name": "TransactionDate", "Value": 20191219102115},
          {"Name": "PhoneNumber", "Value": "254712345678"}
        ]
      }
    }
  }
}`

const failureCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 1032,
      "ResultDesc": "Request cancelled by user"
    }
  }
}`

func TestParseCallbackSuccess(t *testing.T) {
	outcome, err := ParseCallback([]byte(successCallback))
	if err != nil {
		t.Fatal(err)
	}
	if outcome == nil {
		t.Fatal("expected an outcome")
	}
	if !outcome.Succeeded {
		t.Fatal("expected success")
	}
	if outcome.Amount != 100 {
		t.Errorf("amount = %v", outcome.Amount)
	}
	if outcome.ReceiptNumber != "ABC123" {
		t.Errorf("receipt = %q", outcome.ReceiptNumber)
	}
	if outcome.PhoneNumber != "254712345678" {
		t.Errorf("phone = %q", outcome.PhoneNumber)
	}
	if outcome.TransactionDate != "20191219102115" {
		t.Errorf("transaction date = %q", outcome.TransactionDate)
	}
	if outcome.MerchantRequestID != "29115-34620561-1" || outcome.CheckoutRequestID != "ws_CO_191220191020363925" {
		t.Errorf("key = %q", outcome.Key())
	}
}

func TestParseCallbackFailure(t *testing.T) {
	outcome, err := ParseCallback([]byte(failureCallback))
	if err != nil {
		t.Fatal(err)
	}
	if outcome == nil || outcome.Succeeded {
		t.Fatal("expected a failure outcome")
	}
	if outcome.ResultCode != 1032 {
		t.Errorf("result code = %d", outcome.ResultCode)
	}
	if outcome.ResultDesc != "Request cancelled by user" {
		t.Errorf("result desc = %q", outcome.ResultDesc)
	}
}

func TestParseCallbackBenignNoOps(t *testing.T) {
	for _, body := range []string{"", "   ", "{}", `{"Body":{}}`} {
		outcome, err := ParseCallback([]byte(body))
		if err != nil {
			t.Errorf("ParseCallback(%q) unexpected error: %v", body, err)
		}
		if outcome != nil {
			t.Errorf("ParseCallback(%q) produced an outcome", body)
		}
	}
}

func TestParseCallbackInvalidJSON(t *testing.T) {
	outcome, err := ParseCallback([]byte("not json"))
	if err == nil {
		t.Fatal("expected error")
	}
	if outcome != nil {
		t.Fatal("no outcome expected for invalid JSON")
	}
}

func TestParseCallbackMissingMetadataDefaults(t *testing.T) {
	body := `{"Body":{"stkCallback":{"MerchantRequestID":"m","CheckoutRequestID":"c","ResultCode":0,"ResultDesc":"ok"}}}`
	outcome, err := ParseCallback([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Succeeded {
		t.Fatal("expected success")
	}
	if outcome.Amount != 0 || outcome.Balance != 0 || outcome.ReceiptNumber != "" || outcome.PhoneNumber != "" {
		t.Errorf("expected zero/empty defaults, got %+v", outcome)
	}
}
