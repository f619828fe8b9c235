package observability

const (
	MHTTPRequests        = "http_requests_total"
	MHTTPRequestDuration = "http_request_duration_seconds"
	MPaymentInitiations  = "payment_initiations_total"
	MReconciliations     = "payment_reconciliations_total"
	MFulfillments        = "payment_fulfillments_total"
	MGatewayRequests     = "gateway_requests_total"
	MGatewayDuration     = "gateway_request_duration_seconds"
)
