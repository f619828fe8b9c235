package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	appOrder "github.com/hangart/hangart/internal/application/order"
	appPayment "github.com/hangart/hangart/internal/application/payment"
	domainArtwork "github.com/hangart/hangart/internal/domain/artwork"
	"github.com/hangart/hangart/internal/domain/gateway"
	domainOrder "github.com/hangart/hangart/internal/domain/order"
	domainPayment "github.com/hangart/hangart/internal/domain/payment"
	"github.com/hangart/hangart/internal/observability"
	"github.com/hangart/hangart/internal/observability/logctx"
)

type Handler struct {
	orderService   *appOrder.Service
	paymentService *appPayment.Service
	webhookSecret  string
	log            observability.Logger
	tel            observability.Telemetry
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerUserID         = "X-User-ID"
	headerSignature      = "X-Webhook-Signature"
)

func NewHandler(orderSvc *appOrder.Service, paymentSvc *appPayment.Service, webhookSecret string,
	logger observability.Logger, tel observability.Telemetry,
) *Handler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = observability.NopLogger()
	}
	return &Handler{
		orderService:   orderSvc,
		paymentService: paymentSvc,
		webhookSecret:  webhookSecret,
		log:            baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:            tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Wire each route with middlewares:
	// Trace → ObservabilityMiddleware (request logger + metrics) → Access log → Handler
	h.muxHandle(mux, http.MethodPost, "/api/orders", h.handleCreateOrder)
	h.muxHandle(mux, http.MethodGet, "/api/orders/{id}", h.handleGetOrder)
	h.muxHandle(mux, http.MethodPost, "/api/payments/initiate/{orderID}", h.handleInitiatePayment)
	h.muxHandle(mux, http.MethodGet, "/api/payments/{id}", h.handleGetPayment)
	h.muxHandle(mux, http.MethodGet, "/api/payments/{id}/status", h.handlePaymentStatus)
	h.muxHandle(mux, http.MethodPost, "/api/payments/webhook", h.handleWebhook)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	mux.HandleFunc(method+" "+route, func(w http.ResponseWriter, r *http.Request) {
		// Store stable route template for low-cardinality labels
		ctx := contextWithRoute(r.Context(), route)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(ctx, h.log),
				func(r *http.Request) string {
					return r.Header.Get(headerRequestID)
				},
				h.tel,
			)(
				h.withAccessLog(handler),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

type createOrderItemRequest struct {
	ArtworkID string `json:"artwork_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items       []createOrderItemRequest `json:"items"`
	ShippingFee string                   `json:"shipping_fee"`
}

type orderItemResponse struct {
	ArtworkID string `json:"artwork_id"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

type orderResponse struct {
	OrderID     string              `json:"order_id"`
	Number      string              `json:"number"`
	Status      domainOrder.Status  `json:"status"`
	Subtotal    string              `json:"subtotal"`
	ShippingFee string              `json:"shipping_fee"`
	Total       string              `json:"total"`
	Items       []orderItemResponse `json:"items"`
}

func orderToResponse(o *domainOrder.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ArtworkID: it.ArtworkID,
			Price:     it.Price.StringFixed(2),
			Quantity:  it.Quantity,
		})
	}
	return orderResponse{
		OrderID:     o.ID,
		Number:      o.Number,
		Status:      o.Status,
		Subtotal:    o.Subtotal.StringFixed(2),
		ShippingFee: o.ShippingFee.StringFixed(2),
		Total:       o.Total.StringFixed(2),
		Items:       items,
	}
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	buyerID := r.Header.Get(headerUserID)
	if buyerID == "" {
		writeError(w, http.StatusUnauthorized, errors.New("missing "+headerUserID+" header"))
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	shippingFee := decimal.Zero
	if req.ShippingFee != "" {
		fee, err := decimal.NewFromString(req.ShippingFee)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid shipping_fee"))
			return
		}
		shippingFee = fee
	}

	items := make([]appOrder.CreateItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, appOrder.CreateItemInput{
			ArtworkID: it.ArtworkID,
			Quantity:  it.Quantity,
		})
	}

	ord, err := h.orderService.Create(r.Context(), appOrder.CreateInput{
		BuyerID:     buyerID,
		Items:       items,
		ShippingFee: shippingFee,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, orderToResponse(ord))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := h.orderService.Get(r.Context(), r.PathValue("id"), r.Header.Get(headerUserID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderToResponse(ord))
}

type initiatePaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
	Phone         string `json:"phone"`
}

type initiatePaymentResponse struct {
	TransactionID string               `json:"transaction_id"`
	Reference     string               `json:"reference"`
	Status        domainPayment.Status `json:"status"`
	Phone         string               `json:"phone"`
	Amount        string               `json:"amount"`
	Instructions  string               `json:"instructions"`
}

func (h *Handler) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, errors.New("missing "+headerUserID+" header"))
		return
	}

	var req initiatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.paymentService.Initiate(r.Context(), appPayment.InitiateInput{
		OrderID: r.PathValue("orderID"),
		UserID:  userID,
		Method:  req.PaymentMethod,
		Phone:   req.Phone,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, initiatePaymentResponse{
		TransactionID: result.Transaction.ID,
		Reference:     result.Transaction.Reference,
		Status:        result.Transaction.Status,
		Phone:         result.Phone,
		Amount:        result.Transaction.Amount.StringFixed(2),
		Instructions:  result.Instructions,
	})
}

type transactionEventResponse struct {
	Kind      domainPayment.EventKind `json:"kind"`
	Message   string                  `json:"message"`
	CreatedAt time.Time               `json:"created_at"`
}

type transactionResponse struct {
	TransactionID    string                     `json:"transaction_id"`
	OrderID          string                     `json:"order_id"`
	Method           domainPayment.Method       `json:"method"`
	Amount           string                     `json:"amount"`
	Reference        string                     `json:"reference"`
	GatewayReference string                     `json:"gateway_reference,omitempty"`
	Status           domainPayment.Status      `json:"status"`
	Events           []transactionEventResponse `json:"events,omitempty"`
}

func transactionToResponse(t *domainPayment.Transaction, events []domainPayment.Event) transactionResponse {
	resp := transactionResponse{
		TransactionID:    t.ID,
		OrderID:          t.OrderID,
		Method:           t.Method,
		Amount:           t.Amount.StringFixed(2),
		Reference:        t.Reference,
		GatewayReference: t.GatewayReference,
		Status:           t.Status,
	}
	for _, e := range events {
		resp.Events = append(resp.Events, transactionEventResponse{
			Kind:      e.Kind,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		})
	}
	return resp
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	tx, events, err := h.paymentService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionToResponse(tx, events))
}

type paymentStatusResponse struct {
	TransactionID string               `json:"transaction_id"`
	Status        domainPayment.Status `json:"status"`
	Checked       bool                 `json:"checked"`
}

func (h *Handler) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	check, err := h.paymentService.CheckStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentStatusResponse{
		TransactionID: check.Transaction.ID,
		Status:        check.Transaction.Status,
		Checked:       check.Checked,
	})
}

type webhookRequest struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !h.verifySignature(body, r.Header.Get(headerSignature)) {
		writeError(w, http.StatusUnauthorized, errors.New("invalid webhook signature"))
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Reference) == "" {
		writeError(w, http.StatusBadRequest, errors.New("reference is required"))
		return
	}

	tx, err := h.paymentService.HandleWebhook(r.Context(), appPayment.WebhookInput{
		Reference: req.Reference,
		Status:    req.Status,
		Payload:   json.RawMessage(body),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentStatusResponse{
		TransactionID: tx.ID,
		Status:        tx.Status,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainPayment.ErrNotFound),
		errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, domainArtwork.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainOrder.ErrNotOwned):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domainPayment.ErrDuplicateOrder):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domainPayment.ErrMethodRequired),
		errors.Is(err, domainPayment.ErrUnknownMethod),
		errors.Is(err, domainPayment.ErrMethodNotSupported),
		errors.Is(err, domainOrder.ErrNotPayable),
		errors.Is(err, domainOrder.ErrNoItems),
		errors.Is(err, domainArtwork.ErrUnavailable),
		errors.Is(err, gateway.ErrPhoneRequired):
		writeError(w, http.StatusBadRequest, err)
	case gateway.IsGatewayError(err):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
