package momo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangart/hangart/internal/domain/gateway"
)

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:         baseURL,
		SubscriptionKey: "sub-key",
		APIUser:         "api-user",
		APIKey:          "api-key",
		Currency:        "EUR",
	}, nil)
}

func TestSubmitPaymentAcceptsOn202(t *testing.T) {
	var submitted requestToPay
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collection/token/":
			user, key, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "api-user", user)
			assert.Equal(t, "api-key", key)
			assert.Equal(t, "sub-key", r.Header.Get(headerSubscriptionKey))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1", ExpiresIn: 3600})
		case "/collection/v1_0/requesttopay":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			assert.Equal(t, "sandbox", r.Header.Get(headerTargetEnvironment))
			assert.NotEmpty(t, r.Header.Get(headerReference))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			w.WriteHeader(http.StatusAccepted)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	res, err := c.SubmitPayment(context.Background(), gateway.SubmitRequest{
		ExternalID: "TXN-ABC",
		Amount:     decimal.NewFromInt(45000),
		Phone:      "0788123456",
		Message:    "Payment for HangaArt order ORD-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Reference)
	assert.Equal(t, "250788123456", res.Phone)
	assert.Equal(t, "45000", submitted.Amount)
	assert.Equal(t, "EUR", submitted.Currency)
	assert.Equal(t, "TXN-ABC", submitted.ExternalID)
	assert.Equal(t, "MSISDN", submitted.Payer.PartyIDType)
	assert.Equal(t, "250788123456", submitted.Payer.PartyID)
}

func TestSubmitPaymentRejectionWrapsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collection/token/" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1"})
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"payer limit exceeded"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SubmitPayment(context.Background(), gateway.SubmitRequest{
		ExternalID: "TXN-ABC",
		Amount:     decimal.NewFromInt(45000),
		Phone:      "0788123456",
	})
	require.Error(t, err)
	assert.True(t, gateway.IsGatewayError(err))
	assert.Contains(t, err.Error(), "payer limit exceeded")
}

func TestExpiredTokenIsRefreshedOnce(t *testing.T) {
	tokens := 0
	statusCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/collection/token/":
			tokens++
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-" + string(rune('0'+tokens))})
		default:
			statusCalls++
			if r.Header.Get("Authorization") == "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(statusResponse{Status: "PENDING"})
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	res, err := c.QueryStatus(context.Background(), "gw-ref")
	require.NoError(t, err)
	assert.Equal(t, gateway.StatePending, res.State)
	assert.Equal(t, 2, tokens, "a 401 forces exactly one token refresh")
	assert.Equal(t, 2, statusCalls)
}

func TestQueryStatusMapsProviderStates(t *testing.T) {
	body := statusResponse{Status: "SUCCESSFUL"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collection/token/" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1"})
			return
		}
		assert.Equal(t, "/collection/v1_0/requesttopay/gw-ref", r.URL.Path)
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	res, err := c.QueryStatus(context.Background(), "gw-ref")
	require.NoError(t, err)
	assert.Equal(t, gateway.StateSuccessful, res.State)
	assert.NotEmpty(t, res.Payload)

	body = statusResponse{Status: "SOMETHING_NEW"}
	c2 := newTestClient(srv.URL)
	res, err = c2.QueryStatus(context.Background(), "gw-ref")
	require.NoError(t, err)
	assert.Equal(t, gateway.StateUnknown, res.State)
}

func TestConfigured(t *testing.T) {
	assert.True(t, newTestClient("http://example.invalid").Configured())
	assert.False(t, New(Config{}, nil).Configured())
}
