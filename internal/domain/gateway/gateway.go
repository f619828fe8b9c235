// Package gateway defines the contract between the payment engine and the
// external mobile-money provider. Both the real MTN MoMo client and the
// credential-free simulator satisfy Client, so the rest of the system is
// wired against this package only.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrPhoneRequired = errors.New("gateway: phone number is required")

// ProviderState is the provider's view of a payment request.
type ProviderState string

const (
	StatePending    ProviderState = "PENDING"
	StateSuccessful ProviderState = "SUCCESSFUL"
	StateFailed     ProviderState = "FAILED"
	StateUnknown    ProviderState = "UNKNOWN"
)

// ParseProviderState maps a raw provider status string onto the closed enum.
// Anything unrecognised becomes StateUnknown rather than an error so a new
// provider status can never be misread as a terminal outcome.
func ParseProviderState(raw string) ProviderState {
	switch ProviderState(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatePending:
		return StatePending
	case StateSuccessful:
		return StateSuccessful
	case StateFailed:
		return StateFailed
	default:
		return StateUnknown
	}
}

// SubmitRequest carries everything the provider needs to push a USSD prompt
// to the payer. ExternalID is the local transaction reference the provider
// echoes back in payloads.
type SubmitRequest struct {
	ExternalID string
	Amount     decimal.Decimal
	Currency   string
	Phone      string
	Message    string
}

// SubmitResult is returned on provider acceptance. Reference is the
// provider-side id used for all later status lookups.
type SubmitResult struct {
	Reference string
	Phone     string
	Payload   json.RawMessage
}

// StatusResult is a read-only snapshot of the provider state. Fetching it
// has no side effects, so pollers may call QueryStatus repeatedly.
type StatusResult struct {
	State   ProviderState
	Reason  string
	Payload json.RawMessage
}

type Client interface {
	SubmitPayment(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	QueryStatus(ctx context.Context, reference string) (*StatusResult, error)
}

// Error wraps anything that went wrong at the provider boundary: transport
// failures, timeouts and explicit provider rejections. Reason carries the
// raw provider error string for the audit log.
type Error struct {
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("gateway: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsGatewayError reports whether err originated at the provider boundary.
func IsGatewayError(err error) bool {
	var ge *Error
	return errors.As(err, &ge)
}

const countryPrefix = "250"

// NormalizeMSISDN canonicalises a phone number to the provider's expected
// international format: digits only, prefixed with the Rwandan country code.
// "+250 788 000 000", "0788000000" and "788000000" all normalize to
// "250788000000".
func NormalizeMSISDN(phone string) (string, error) {
	cleaned := strings.NewReplacer("+", "", " ", "", "-", "").Replace(phone)
	if cleaned == "" {
		return "", ErrPhoneRequired
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("gateway: invalid phone number %q", phone)
		}
	}
	if !strings.HasPrefix(cleaned, countryPrefix) {
		cleaned = countryPrefix + strings.TrimLeft(cleaned, "0")
	}
	return cleaned, nil
}
