package gatewaysim

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangart/hangart/internal/domain/gateway"
)

func TestSubmitThenWarmupThenSuccess(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	sim := NewWithClock(5*time.Second, clock)
	ctx := context.Background()

	res, err := sim.SubmitPayment(ctx, gateway.SubmitRequest{
		ExternalID: "TXN-1",
		Amount:     decimal.NewFromInt(45000),
		Phone:      "0788123456",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Reference)
	assert.Equal(t, "250788123456", res.Phone)

	status, err := sim.QueryStatus(ctx, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatePending, status.State)

	var pending struct {
		SecondsRemaining int `json:"seconds_remaining"`
	}
	require.NoError(t, json.Unmarshal(status.Payload, &pending))
	assert.Equal(t, 5, pending.SecondsRemaining)

	now = now.Add(2 * time.Second)
	status, err = sim.QueryStatus(ctx, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatePending, status.State)

	now = now.Add(4 * time.Second)
	status, err = sim.QueryStatus(ctx, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, gateway.StateSuccessful, status.State)

	var success struct {
		FinancialTransactionID string `json:"financialTransactionId"`
		Amount                 string `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(status.Payload, &success))
	assert.Contains(t, success.FinancialTransactionID, "MOCK-")
	assert.Equal(t, "45000", success.Amount)
}

func TestQueryStatusUnknownReference(t *testing.T) {
	sim := New(0)
	_, err := sim.QueryStatus(context.Background(), "missing")
	assert.True(t, gateway.IsGatewayError(err))
}

func TestSubmitWithoutPhoneUsesFallback(t *testing.T) {
	sim := New(0)
	res, err := sim.SubmitPayment(context.Background(), gateway.SubmitRequest{
		ExternalID: "TXN-1",
		Amount:     decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.Equal(t, fallbackPhone, res.Phone)
}
