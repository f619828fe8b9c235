package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hangart/hangart/internal/domain/gateway"
	domain "github.com/hangart/hangart/internal/domain/payment"
	"github.com/hangart/hangart/internal/observability"
	"github.com/hangart/hangart/internal/observability/logctx"
)

// Outcome is the reconciliation engine's view of a provider report, mapped
// from either a webhook claim or a poll result.
type Outcome string

const (
	OutcomePending    Outcome = "pending"
	OutcomeSuccessful Outcome = "successful"
	OutcomeFailed     Outcome = "failed"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeUnknown    Outcome = "unknown"
)

func outcomeFromProviderState(state gateway.ProviderState) Outcome {
	switch state {
	case gateway.StatePending:
		return OutcomePending
	case gateway.StateSuccessful:
		return OutcomeSuccessful
	case gateway.StateFailed:
		return OutcomeFailed
	default:
		return OutcomeUnknown
	}
}

func outcomeFromClaim(claim string) Outcome {
	switch strings.ToLower(strings.TrimSpace(claim)) {
	case "successful":
		return OutcomeSuccessful
	case "failed":
		return OutcomeFailed
	case "cancelled":
		return OutcomeCancelled
	case "pending":
		return OutcomePending
	default:
		return OutcomeUnknown
	}
}

type StatusCheck struct {
	Transaction *domain.Transaction
	// Checked is true when a provider round-trip happened for this call.
	Checked  bool
	Provider *gateway.StatusResult
}

// CheckStatus is the poll entry point. A transaction already in a terminal
// state is returned as-is without touching the gateway; a pending one is
// looked up at the provider and the reported state is applied.
func (s *Service) CheckStatus(ctx context.Context, transactionID string) (*StatusCheck, error) {
	ctx, span := s.tel.Tracer().Start(ctx, "payment.check_status",
		attribute.String("transaction_id", transactionID))
	defer span.End()

	tx, err := s.payments.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status.Terminal() {
		return &StatusCheck{Transaction: tx}, nil
	}
	if tx.GatewayReference == "" {
		// Submission never completed; nothing to ask the provider about.
		return &StatusCheck{Transaction: tx}, nil
	}

	start := time.Now()
	res, err := s.gw.QueryStatus(ctx, tx.GatewayReference)
	s.observeGateway("status", start, err)
	if err != nil {
		s.appendEvent(ctx, tx.ID, domain.EventPollResult,
			fmt.Sprintf("status check failed: %v", err))
		return nil, fmt.Errorf("payment: status check: %w", err)
	}

	updated, err := s.applyOutcome(ctx, "poll", tx.ID, outcomeFromProviderState(res.State), res.Payload, res.Reason)
	if err != nil {
		return nil, err
	}
	return &StatusCheck{Transaction: updated, Checked: true, Provider: res}, nil
}

type WebhookInput struct {
	Reference string
	Status    string
	Payload   json.RawMessage
}

// HandleWebhook is the inbound entry point for provider notifications. It is
// idempotent under redelivery: a terminal transaction absorbs the repeat as
// a no-op inside applyOutcome.
func (s *Service) HandleWebhook(ctx context.Context, input WebhookInput) (*domain.Transaction, error) {
	ctx, span := s.tel.Tracer().Start(ctx, "payment.webhook",
		attribute.String("reference", input.Reference))
	defer span.End()

	tx, err := s.payments.FindByReference(ctx, input.Reference)
	if err != nil {
		return nil, err
	}

	s.appendEvent(ctx, tx.ID, domain.EventWebhookReceived,
		fmt.Sprintf("webhook received with status %q", input.Status))

	return s.applyOutcome(ctx, "webhook", tx.ID, outcomeFromClaim(input.Status), input.Payload, "")
}

// applyOutcome is the single transition function both entry points converge
// on. It is serialized per transaction id, re-reads the transaction under
// the lock, and treats an already-terminal transaction as a no-op so
// whichever outcome-bearing call arrives first wins.
func (s *Service) applyOutcome(ctx context.Context, entry, transactionID string, outcome Outcome, payload json.RawMessage, reason string) (*domain.Transaction, error) {
	unlock := s.locks.lock(transactionID)
	defer unlock()

	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("transaction_id", transactionID),
		observability.F("entry", entry),
	)

	tx, err := s.payments.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status.Terminal() {
		s.tel.Counter(observability.MReconciliations).Add(1,
			observability.L("entry", entry), observability.L("outcome", "noop"))
		return tx, nil
	}

	s.tel.Counter(observability.MReconciliations).Add(1,
		observability.L("entry", entry), observability.L("outcome", string(outcome)))

	switch outcome {
	case OutcomeSuccessful:
		if err := s.transition(ctx, tx, domain.StatusSuccessful, payload); err != nil {
			if errors.Is(err, domain.ErrStatusConflict) {
				return s.payments.FindByID(ctx, transactionID)
			}
			return nil, err
		}
		s.appendEvent(ctx, tx.ID, domain.EventConfirmed, "payment successful via gateway")
		if s.publisher != nil {
			_ = s.publisher.Publish(ctx, domain.NewSucceededEvent(tx))
		}
		s.fulfill(ctx, tx)

	case OutcomeFailed:
		if err := s.transition(ctx, tx, domain.StatusFailed, payload); err != nil {
			if errors.Is(err, domain.ErrStatusConflict) {
				return s.payments.FindByID(ctx, transactionID)
			}
			return nil, err
		}
		msg := "payment failed"
		if reason != "" {
			msg = "payment failed: " + reason
		}
		s.appendEvent(ctx, tx.ID, domain.EventFailed, msg)

	case OutcomeCancelled:
		if err := s.transition(ctx, tx, domain.StatusCancelled, payload); err != nil {
			if errors.Is(err, domain.ErrStatusConflict) {
				return s.payments.FindByID(ctx, transactionID)
			}
			return nil, err
		}
		s.appendEvent(ctx, tx.ID, domain.EventCancelled, "payment cancelled by payer")

	case OutcomePending:
		s.appendEvent(ctx, tx.ID, domain.EventPollResult, pendingMessage(payload))
		return tx, nil

	default:
		// Never guess: an unrecognised provider state leaves the
		// transaction pending and is surfaced through the logs only.
		logger.Warn("unknown_provider_outcome", observability.F("payload", string(payload)))
		return tx, nil
	}

	return s.payments.FindByID(ctx, transactionID)
}

// transition performs the guarded status write. An ErrStatusConflict means
// another reconciliation call won the race; callers reload and move on.
func (s *Service) transition(ctx context.Context, tx *domain.Transaction, to domain.Status, payload json.RawMessage) error {
	if err := s.payments.UpdateStatus(ctx, tx.ID, domain.StatusPending, to, payload); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			logctx.FromOr(ctx, s.log).Info("reconciliation_race_lost",
				observability.F("transaction_id", tx.ID),
				observability.F("target_status", string(to)),
			)
			return err
		}
		return err
	}
	tx.Status = to
	if len(payload) > 0 {
		tx.ProviderResponse = payload
	}
	return nil
}

func pendingMessage(payload json.RawMessage) string {
	var p struct {
		SecondsRemaining int `json:"seconds_remaining"`
	}
	if err := json.Unmarshal(payload, &p); err == nil && p.SecondsRemaining > 0 {
		return fmt.Sprintf("payment still pending (%ds remaining)", p.SecondsRemaining)
	}
	return "payment still pending"
}
