// Package gatewaysim is the credential-free stand-in for the mobile-money
// gateway. Submissions are accepted unconditionally; a status query reports
// PENDING until a fixed warm-up interval has elapsed since submission and
// SUCCESSFUL afterwards, so the reconciliation engine can be exercised
// end-to-end without network access.
package gatewaysim

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hangart/hangart/internal/domain/gateway"
)

const DefaultWarmup = 5 * time.Second

// fallbackPhone is used when the caller supplies no phone number, mirroring
// the sandbox test MSISDN.
const fallbackPhone = "250788000000"

type submission struct {
	at     time.Time
	phone  string
	amount string
}

type Simulator struct {
	mu        sync.Mutex
	warmup    time.Duration
	now       func() time.Time
	submitted map[string]submission
}

func New(warmup time.Duration) *Simulator {
	return NewWithClock(warmup, time.Now)
}

// NewWithClock injects the clock so tests can step time deterministically.
func NewWithClock(warmup time.Duration, now func() time.Time) *Simulator {
	if warmup <= 0 {
		warmup = DefaultWarmup
	}
	return &Simulator{
		warmup:    warmup,
		now:       now,
		submitted: make(map[string]submission),
	}
}

func (s *Simulator) SubmitPayment(ctx context.Context, req gateway.SubmitRequest) (*gateway.SubmitResult, error) {
	_ = ctx

	phone := req.Phone
	if phone == "" {
		phone = fallbackPhone
	}
	normalized, err := gateway.NormalizeMSISDN(phone)
	if err != nil {
		return nil, err
	}

	reference := uuid.NewString()

	s.mu.Lock()
	s.submitted[reference] = submission{
		at:     s.now().UTC(),
		phone:  normalized,
		amount: req.Amount.Truncate(0).String(),
	}
	s.mu.Unlock()

	payload, _ := json.Marshal(map[string]any{
		"momo_reference": reference,
		"phone":          normalized,
		"status":         "pending",
		"mock":           true,
	})
	return &gateway.SubmitResult{
		Reference: reference,
		Phone:     normalized,
		Payload:   payload,
	}, nil
}

func (s *Simulator) QueryStatus(ctx context.Context, reference string) (*gateway.StatusResult, error) {
	_ = ctx

	s.mu.Lock()
	sub, ok := s.submitted[reference]
	s.mu.Unlock()

	if !ok {
		return nil, &gateway.Error{Op: "status", Reason: "payment not found"}
	}

	elapsed := s.now().UTC().Sub(sub.at)
	if elapsed < s.warmup {
		remaining := int((s.warmup - elapsed).Round(time.Second) / time.Second)
		payload, _ := json.Marshal(map[string]any{
			"status":            string(gateway.StatePending),
			"seconds_remaining": remaining,
			"mock":              true,
		})
		return &gateway.StatusResult{State: gateway.StatePending, Payload: payload}, nil
	}

	payload, _ := json.Marshal(map[string]any{
		"status":                 string(gateway.StateSuccessful),
		"amount":                 sub.amount,
		"currency":               "RWF",
		"financialTransactionId": fmt.Sprintf("MOCK-%.8s", reference),
		"payer": map[string]string{
			"partyIdType": "MSISDN",
			"partyId":     sub.phone,
		},
		"mock": true,
	})
	return &gateway.StatusResult{State: gateway.StateSuccessful, Payload: payload}, nil
}
