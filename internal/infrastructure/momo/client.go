// Package momo implements the gateway client against the MTN Mobile Money
// collection API. Credentials are provisioned once via the momosetup command;
// at runtime the client lazily acquires a bearer token and retries a failed
// call exactly once with a fresh token before surfacing the error.
package momo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/hangart/hangart/internal/domain/gateway"
	"github.com/hangart/hangart/internal/observability"
)

const (
	DefaultBaseURL = "https://sandbox.momodeveloper.mtn.com"

	headerReference         = "X-Reference-Id"
	headerTargetEnvironment = "X-Target-Environment"
	headerSubscriptionKey   = "Ocp-Apim-Subscription-Key"
)

type Config struct {
	BaseURL           string
	SubscriptionKey   string
	APIUser           string
	APIKey            string
	TargetEnvironment string
	// Currency is EUR in the sandbox environment and RWF in production.
	Currency string
	Timeout  time.Duration
}

type Client struct {
	cfg  Config
	http *resty.Client
	log  observability.Logger

	mu    sync.Mutex
	token string
}

func New(cfg Config, logger observability.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TargetEnvironment == "" {
		cfg.TargetEnvironment = "sandbox"
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Client{
		cfg:  cfg,
		http: resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(cfg.Timeout),
		log:  logger.With(observability.F("component", "momo_client")),
	}
}

// Configured reports whether runtime credentials are present. The
// composition root substitutes the simulator when they are not.
func (c *Client) Configured() bool {
	return c.cfg.APIUser != "" && c.cfg.APIKey != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns the cached bearer token, fetching a fresh one when the
// cache is empty or force is set. Refresh is serialized so concurrent
// requests do not hammer the token endpoint.
func (c *Client) accessToken(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && !force {
		return c.token, nil
	}

	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(headerSubscriptionKey, c.cfg.SubscriptionKey).
		SetBasicAuth(c.cfg.APIUser, c.cfg.APIKey).
		SetResult(&out).
		Post("/collection/token/")
	if err != nil {
		return "", &gateway.Error{Op: "token", Err: err}
	}
	if resp.IsError() || out.AccessToken == "" {
		return "", &gateway.Error{Op: "token", Reason: resp.String()}
	}

	c.token = out.AccessToken
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

type requestToPay struct {
	Amount       string     `json:"amount"`
	Currency     string     `json:"currency"`
	ExternalID   string     `json:"externalId"`
	Payer        payerParty `json:"payer"`
	PayerMessage string     `json:"payerMessage"`
	PayeeNote    string     `json:"payeeNote"`
}

type payerParty struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

// SubmitPayment asks the provider to push a USSD approval prompt to the
// payer's phone. On acceptance (202) the provider-side reference is returned;
// on rejection the raw provider error is wrapped in a gateway.Error and the
// caller decides what to do with the transaction.
func (c *Client) SubmitPayment(ctx context.Context, req gateway.SubmitRequest) (*gateway.SubmitResult, error) {
	phone, err := gateway.NormalizeMSISDN(req.Phone)
	if err != nil {
		return nil, err
	}

	referenceID := uuid.NewString()
	body := requestToPay{
		Amount:     req.Amount.Truncate(0).String(),
		Currency:   c.cfg.Currency,
		ExternalID: req.ExternalID,
		Payer: payerParty{
			PartyIDType: "MSISDN",
			PartyID:     phone,
		},
		PayerMessage: req.Message,
		PayeeNote:    "HangaArt payment",
	}

	resp, err := c.doWithAuth(ctx, func(token string) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetHeader(headerReference, referenceID).
			SetHeader(headerTargetEnvironment, c.cfg.TargetEnvironment).
			SetHeader(headerSubscriptionKey, c.cfg.SubscriptionKey).
			SetBody(body).
			Post("/collection/v1_0/requesttopay")
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusAccepted {
		c.log.Warn("momo_submit_rejected",
			observability.F("status", resp.StatusCode()),
			observability.F("external_id", req.ExternalID),
		)
		return nil, &gateway.Error{Op: "submit", Reason: resp.String()}
	}

	payload, _ := json.Marshal(map[string]any{
		"momo_reference": referenceID,
		"phone":          phone,
		"status":         "pending",
	})
	return &gateway.SubmitResult{
		Reference: referenceID,
		Phone:     phone,
		Payload:   payload,
	}, nil
}

type statusResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// QueryStatus is a read-only status lookup; it never mutates local state and
// is safe to call repeatedly from the poll entry point.
func (c *Client) QueryStatus(ctx context.Context, reference string) (*gateway.StatusResult, error) {
	resp, err := c.doWithAuth(ctx, func(token string) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetHeader(headerTargetEnvironment, c.cfg.TargetEnvironment).
			SetHeader(headerSubscriptionKey, c.cfg.SubscriptionKey).
			Get("/collection/v1_0/requesttopay/" + reference)
	})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &gateway.Error{Op: "status", Reason: resp.String()}
	}

	var out statusResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, &gateway.Error{Op: "status", Err: fmt.Errorf("decode response: %w", err)}
	}

	return &gateway.StatusResult{
		State:   gateway.ParseProviderState(out.Status),
		Reason:  out.Reason,
		Payload: append(json.RawMessage(nil), resp.Body()...),
	}, nil
}

// doWithAuth runs call with a bearer token, refreshing the token and
// retrying once on 401. The refresh itself is not retried.
func (c *Client) doWithAuth(ctx context.Context, call func(token string) (*resty.Response, error)) (*resty.Response, error) {
	token, err := c.accessToken(ctx, false)
	if err != nil {
		return nil, err
	}

	resp, err := call(token)
	if err != nil {
		return nil, &gateway.Error{Op: "request", Err: err}
	}
	if resp.StatusCode() != http.StatusUnauthorized {
		return resp, nil
	}

	c.invalidateToken()
	token, err = c.accessToken(ctx, true)
	if err != nil {
		return nil, err
	}
	resp, err = call(token)
	if err != nil {
		return nil, &gateway.Error{Op: "request", Err: err}
	}
	return resp, nil
}
