package momo

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/hangart/hangart/internal/domain/gateway"
)

// Provisioner performs the one-time sandbox credential setup: create an API
// user, then create its API key. It is outside the payment hot path and only
// needs the subscription key.
type Provisioner struct {
	http            *resty.Client
	subscriptionKey string
	callbackHost    string
}

func NewProvisioner(baseURL, subscriptionKey, callbackHost string) *Provisioner {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provisioner{
		http:            resty.New().SetBaseURL(baseURL),
		subscriptionKey: subscriptionKey,
		callbackHost:    callbackHost,
	}
}

// CreateAPIUser registers a new API user and returns its reference id, which
// becomes the MOMO_API_USER credential.
func (p *Provisioner) CreateAPIUser(ctx context.Context) (string, error) {
	referenceID := uuid.NewString()

	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader(headerReference, referenceID).
		SetHeader(headerSubscriptionKey, p.subscriptionKey).
		SetBody(map[string]string{"providerCallbackHost": p.callbackHost}).
		Post("/v1_0/apiuser")
	if err != nil {
		return "", &gateway.Error{Op: "create_api_user", Err: err}
	}
	if resp.StatusCode() != http.StatusCreated {
		return "", &gateway.Error{Op: "create_api_user", Reason: resp.String()}
	}
	return referenceID, nil
}

type apiKeyResponse struct {
	APIKey string `json:"apiKey"`
}

// CreateAPIKey issues the key for an existing API user, which becomes the
// MOMO_API_KEY credential.
func (p *Provisioner) CreateAPIKey(ctx context.Context, apiUser string) (string, error) {
	var out apiKeyResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader(headerSubscriptionKey, p.subscriptionKey).
		SetResult(&out).
		Post("/v1_0/apiuser/" + apiUser + "/apikey")
	if err != nil {
		return "", &gateway.Error{Op: "create_api_key", Err: err}
	}
	if resp.StatusCode() != http.StatusCreated || out.APIKey == "" {
		return "", &gateway.Error{Op: "create_api_key", Reason: resp.String()}
	}
	return out.APIKey, nil
}
