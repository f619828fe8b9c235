package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	domartwork "github.com/hangart/hangart/internal/domain/artwork"
	"github.com/hangart/hangart/internal/domain/gateway"
	domorder "github.com/hangart/hangart/internal/domain/order"
	domoutbox "github.com/hangart/hangart/internal/domain/outbox"
	domain "github.com/hangart/hangart/internal/domain/payment"
	"github.com/hangart/hangart/internal/observability"
	"github.com/hangart/hangart/internal/observability/logctx"
)

const componentPaymentService = "payment_service"

// Service drives the payment transaction lifecycle: it opens exactly one
// transaction per order, submits it to the gateway, and reconciles the
// transaction to a terminal state through the webhook and poll entry points.
// The gateway implementation is injected once at process start; the service
// never selects one itself.
type Service struct {
	payments  domain.Repository
	orders    domorder.Repository
	artworks  domartwork.Repository
	gw        gateway.Client
	publisher domoutbox.Publisher
	locks     refLocks
	log       observability.Logger
	tel       observability.Telemetry
}

func NewService(
	payments domain.Repository,
	orders domorder.Repository,
	artworks domartwork.Repository,
	gw gateway.Client,
	publisher domoutbox.Publisher,
	logger observability.Logger,
	tel observability.Telemetry,
) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Service{
		payments:  payments,
		orders:    orders,
		artworks:  artworks,
		gw:        gw,
		publisher: publisher,
		log:       logger.With(observability.F("component", componentPaymentService)),
		tel:       tel,
	}
}

type InitiateInput struct {
	OrderID string
	UserID  string
	Method  string
	Phone   string
}

type InitiateResult struct {
	Transaction  *domain.Transaction
	Reference    string
	Phone        string
	Instructions string
}

// Initiate validates that the order is payable by this user, creates the
// single transaction for it, and submits the payment request to the gateway.
// On gateway rejection the transaction is kept (marked failed) so the
// attempt stays auditable; it is never rolled back.
func (s *Service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	ctx, span := s.tel.Tracer().Start(ctx, "payment.initiate",
		attribute.String("order_id", input.OrderID))
	defer span.End()

	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("order_id", input.OrderID),
		observability.F("user_id", input.UserID),
	)

	method, err := domain.ParseMethod(input.Method)
	if err != nil {
		return nil, err
	}
	if method != domain.MethodMobileMoney {
		return nil, fmt.Errorf("%w: %s", domain.ErrMethodNotSupported, method)
	}

	ord, err := s.orders.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if ord.BuyerID != input.UserID {
		return nil, domorder.ErrNotOwned
	}
	if !ord.Payable() {
		return nil, domorder.ErrNotPayable
	}
	if _, err := s.payments.FindByOrderID(ctx, ord.ID); err == nil {
		return nil, domain.ErrDuplicateOrder
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	tx, err := domain.New(uuid.NewString(), newLocalReference(), ord.ID, input.UserID, method, ord.Total)
	if err != nil {
		return nil, err
	}
	if err := s.payments.Create(ctx, tx); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, tx.ID, domain.EventInitiated,
		fmt.Sprintf("payment initiated for order %s with %s", ord.Number, method))
	s.tel.Counter(observability.MPaymentInitiations).Add(1, observability.L("method", string(method)))

	start := time.Now()
	res, err := s.gw.SubmitPayment(ctx, gateway.SubmitRequest{
		ExternalID: tx.Reference,
		Amount:     tx.Amount,
		Phone:      input.Phone,
		Message:    "Payment for HangaArt order " + ord.Number,
	})
	s.observeGateway("submit", start, err)
	if err != nil {
		logger.Warn("gateway_submit_failed", observability.F("error", err))
		s.appendEvent(ctx, tx.ID, domain.EventGatewayRejected,
			fmt.Sprintf("gateway request failed: %v", err))
		rejection, _ := json.Marshal(map[string]string{"error": err.Error()})
		if uerr := s.payments.UpdateStatus(ctx, tx.ID, domain.StatusPending, domain.StatusFailed, rejection); uerr != nil {
			logger.Error("transaction_fail_mark_failed", observability.F("error", uerr))
		}
		return nil, fmt.Errorf("payment: gateway submission: %w", err)
	}

	if err := tx.AssignGatewayReference(res.Reference); err != nil {
		return nil, err
	}
	tx.ProviderResponse = res.Payload
	if err := s.payments.Update(ctx, tx); err != nil {
		return nil, fmt.Errorf("payment: store gateway reference: %w", err)
	}
	s.appendEvent(ctx, tx.ID, domain.EventSubmitted,
		fmt.Sprintf("payment request sent to %s, reference %s", res.Phone, res.Reference))

	logger.Info("payment_initiated",
		observability.F("transaction_id", tx.ID),
		observability.F("gateway_reference", res.Reference),
	)
	return &InitiateResult{
		Transaction:  tx,
		Reference:    res.Reference,
		Phone:        res.Phone,
		Instructions: "Payment request sent. Approve the prompt on your phone to complete the purchase.",
	}, nil
}

// Get returns a transaction with its audit log.
func (s *Service) Get(ctx context.Context, id string) (*domain.Transaction, []domain.Event, error) {
	tx, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	events, err := s.payments.ListEvents(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return tx, events, nil
}

// appendEvent records an audit log entry; the log is best-effort and never
// fails the surrounding operation.
func (s *Service) appendEvent(ctx context.Context, transactionID string, kind domain.EventKind, message string) {
	if err := s.payments.AppendEvent(ctx, domain.NewEvent(transactionID, kind, message)); err != nil {
		logctx.FromOr(ctx, s.log).Error("event_append_failed",
			observability.F("transaction_id", transactionID),
			observability.F("kind", string(kind)),
			observability.F("error", err),
		)
	}
}

// observeGateway records one provider round-trip.
func (s *Service) observeGateway(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.tel.Counter(observability.MGatewayRequests).Add(1,
		observability.L("op", op), observability.L("outcome", outcome))
	s.tel.Histogram(observability.MGatewayDuration).Observe(time.Since(start).Seconds(),
		observability.L("op", op))
}

func newLocalReference() string {
	return "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// refLocks serializes reconciliation per transaction id so a webhook and a
// poll landing together cannot both run the successful branch. Entries are
// reference-counted and evicted once the last holder releases, so the map
// does not grow with transaction count.
type refLocks struct {
	mu sync.Mutex
	m  map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func (l *refLocks) lock(id string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*refLock)
	}
	entry, ok := l.m[id]
	if !ok {
		entry = &refLock{}
		l.m[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
