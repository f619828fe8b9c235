package payment

import (
	"context"
	"fmt"

	domain "github.com/hangart/hangart/internal/domain/payment"
	"github.com/hangart/hangart/internal/observability"
	"github.com/hangart/hangart/internal/observability/logctx"
)

// fulfill runs the order side effects of a successful payment. It is invoked
// only from applyOutcome's successful branch, which the terminal-state guard
// already makes exactly-once under races. A fulfillment failure is absorbed:
// the money has moved, so the transaction keeps its successful status and a
// retry event is published for the fulfillment worker.
func (s *Service) fulfill(ctx context.Context, tx *domain.Transaction) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("transaction_id", tx.ID),
		observability.F("order_id", tx.OrderID),
	)

	if err := s.runFulfillment(ctx, tx); err != nil {
		logger.Error("fulfillment_failed", observability.F("error", err))
		s.appendEvent(ctx, tx.ID, domain.EventFulfillmentFailed,
			fmt.Sprintf("fulfillment failed, flagged for retry: %v", err))
		s.tel.Counter(observability.MFulfillments).Add(1, observability.L("outcome", "error"))
		if s.publisher != nil {
			_ = s.publisher.Publish(ctx, domain.NewFulfillmentRetryEvent(tx.ID, err.Error()))
		}
		return
	}

	s.tel.Counter(observability.MFulfillments).Add(1, observability.L("outcome", "success"))
	logger.Info("order_fulfilled")
}

// runFulfillment marks the order paid and every purchased artwork sold. All
// steps are idempotent so the whole sequence can be replayed after a crash
// between the transaction transition and the order update.
func (s *Service) runFulfillment(ctx context.Context, tx *domain.Transaction) error {
	ord, err := s.orders.Get(ctx, tx.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	ord.MarkPaid(tx.GatewayReference)
	if err := s.orders.Update(ctx, ord); err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	for _, item := range ord.Items {
		art, err := s.artworks.Get(ctx, item.ArtworkID)
		if err != nil {
			return fmt.Errorf("load artwork %s: %w", item.ArtworkID, err)
		}
		art.MarkSold()
		if err := s.artworks.Update(ctx, art); err != nil {
			return fmt.Errorf("mark artwork %s sold: %w", item.ArtworkID, err)
		}
	}

	s.appendEvent(ctx, tx.ID, domain.EventFulfilled,
		fmt.Sprintf("order %s marked as paid", ord.Number))
	return nil
}

// RetryFulfillment re-runs the fulfillment side effects for a transaction
// that already reached the successful state. Called by the fulfillment
// worker when an earlier attempt failed part-way.
func (s *Service) RetryFulfillment(ctx context.Context, transactionID string) error {
	unlock := s.locks.lock(transactionID)
	defer unlock()

	tx, err := s.payments.FindByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if tx.Status != domain.StatusSuccessful {
		return nil
	}
	return s.runFulfillment(ctx, tx)
}
