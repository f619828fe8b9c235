package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("payment: transaction not found")
	ErrDuplicateOrder   = errors.New("payment: transaction already exists for order")
	ErrMethodRequired   = errors.New("payment: payment method is required")
	ErrMethodNotSupported = errors.New("payment: payment method not yet supported")
	ErrUnknownMethod    = errors.New("payment: unknown payment method")
	ErrAlreadyTerminal  = errors.New("payment: transaction already in a terminal state")
	ErrStatusConflict   = errors.New("payment: transaction status changed concurrently")
	ErrUnknownOutcome   = errors.New("payment: unknown provider outcome")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// Terminal reports whether no further automatic transition is allowed from s.
// Refunded is reachable only through the audited administrative path, never
// through reconciliation, but once set it is just as final.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccessful, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type Method string

const (
	MethodMobileMoney Method = "momo"
	MethodCard        Method = "card"
	MethodPayPal      Method = "paypal"
	MethodBank        Method = "bank"
)

// ParseMethod maps a caller-supplied method string onto the closed enum.
func ParseMethod(raw string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return "", ErrMethodRequired
	case MethodMobileMoney:
		return MethodMobileMoney, nil
	case MethodCard:
		return MethodCard, nil
	case MethodPayPal:
		return MethodPayPal, nil
	case MethodBank:
		return MethodBank, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, raw)
	}
}

// Transaction is the single payment attempt for an order. Amount is a
// snapshot of the order total at creation and never changes afterwards.
// GatewayReference is assigned once by the gateway and never reassigned.
type Transaction struct {
	ID               string
	OrderID          string
	UserID           string
	Method           Method
	Amount           decimal.Decimal
	Reference        string
	GatewayReference string
	ProviderResponse json.RawMessage
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func New(id, reference, orderID, userID string, method Method, amount decimal.Decimal) (*Transaction, error) {
	if orderID == "" {
		return nil, errors.New("payment: order id is required")
	}
	if userID == "" {
		return nil, errors.New("payment: user id is required")
	}
	if amount.IsNegative() {
		return nil, errors.New("payment: amount must be zero or greater")
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:        id,
		OrderID:   orderID,
		UserID:    userID,
		Method:    method,
		Amount:    amount,
		Reference: reference,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AssignGatewayReference records the provider-issued reference. It is
// write-once: a second assignment with a different value is rejected.
func (t *Transaction) AssignGatewayReference(ref string) error {
	if t.GatewayReference != "" && t.GatewayReference != ref {
		return fmt.Errorf("payment: gateway reference already assigned to %s", t.ID)
	}
	t.GatewayReference = ref
	t.touch()
	return nil
}

func (t *Transaction) Succeed(payload json.RawMessage) error {
	next, err := t.state().OnSuccessful(t)
	if err != nil {
		return err
	}
	t.applyState(next, payload)
	return nil
}

func (t *Transaction) Fail(payload json.RawMessage) error {
	next, err := t.state().OnFailed(t)
	if err != nil {
		return err
	}
	t.applyState(next, payload)
	return nil
}

func (t *Transaction) Cancel(payload json.RawMessage) error {
	next, err := t.state().OnCancelled(t)
	if err != nil {
		return err
	}
	t.applyState(next, payload)
	return nil
}

func (t *Transaction) applyState(next transactionState, payload json.RawMessage) {
	t.Status = next.Status()
	if len(payload) > 0 {
		t.ProviderResponse = payload
	}
	t.touch()
}

func (t *Transaction) touch() {
	t.UpdatedAt = time.Now().UTC()
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	if t.ProviderResponse != nil {
		clone.ProviderResponse = append(json.RawMessage(nil), t.ProviderResponse...)
	}
	return &clone
}
