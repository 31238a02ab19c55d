package mpesa

import "fmt"

// AuthError reports a failed token acquisition. No retry is performed at
// this layer; retries are caller policy.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token generation failed: %d - %s", e.StatusCode, e.Body)
}

// GatewayError reports a payment initiation the gateway refused or that
// failed in transit.
type GatewayError struct {
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("gateway error: %s", e.Description)
}
