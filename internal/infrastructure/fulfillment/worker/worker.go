// Package worker re-runs order fulfillment for transactions whose payment
// succeeded but whose side effects failed part-way. Fulfillment is idempotent
// end to end, so retrying is always safe.
package worker

import (
	"context"
	"fmt"
	"time"

	domoutbox "github.com/hangart/hangart/internal/domain/outbox"
	domain "github.com/hangart/hangart/internal/domain/payment"
	"github.com/hangart/hangart/internal/observability"
	"github.com/hangart/hangart/internal/observability/logctx"
)

const componentFulfillmentWorker = "fulfillment_worker"

const defaultBackoff = 2 * time.Second

// Retrier is the slice of the payment service the worker needs.
type Retrier interface {
	RetryFulfillment(ctx context.Context, transactionID string) error
}

type Worker struct {
	payments Retrier
	backoff  time.Duration
	log      observability.Logger
}

func New(payments Retrier, logger observability.Logger) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		payments: payments,
		backoff:  defaultBackoff,
		log:      logger.With(observability.F("component", componentFulfillmentWorker)),
	}
}

// Register hooks the worker into the event bus.
func (w *Worker) Register(sub domoutbox.Subscriber) {
	sub.Subscribe(domain.FulfillmentRetryEvent{}.EventName(), w.handleRetry)
}

func (w *Worker) handleRetry(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domain.FulfillmentRetryEvent)
	if !ok {
		return fmt.Errorf("worker: unexpected event type %T", e)
	}

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("transaction_id", evt.TransactionID),
	)
	logger.Info("fulfillment_retry_started", observability.F("reason", evt.Reason))

	// A short pause gives transient store failures a chance to clear before
	// the replay.
	select {
	case <-time.After(w.backoff):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := w.payments.RetryFulfillment(ctx, evt.TransactionID); err != nil {
		logger.Error("fulfillment_retry_failed", observability.F("error", err))
		return err
	}
	logger.Info("fulfillment_retry_done")
	return nil
}
