package payment

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(t *testing.T) *Transaction {
	t.Helper()
	tx, err := New("tx-1", "TXN-ABCDEF123456", "order-1", "user-1",
		MethodMobileMoney, decimal.NewFromInt(45000))
	require.NoError(t, err)
	return tx
}

func TestNewTransactionStartsPending(t *testing.T) {
	tx := newTestTransaction(t)
	assert.Equal(t, StatusPending, tx.Status)
	assert.False(t, tx.Status.Terminal())
}

func TestNewTransactionValidation(t *testing.T) {
	_, err := New("tx-1", "ref", "", "user-1", MethodMobileMoney, decimal.NewFromInt(1))
	assert.Error(t, err)

	_, err = New("tx-1", "ref", "order-1", "", MethodMobileMoney, decimal.NewFromInt(1))
	assert.Error(t, err)

	_, err = New("tx-1", "ref", "order-1", "user-1", MethodMobileMoney, decimal.NewFromInt(-1))
	assert.Error(t, err)
}

func TestSucceedIsTerminal(t *testing.T) {
	tx := newTestTransaction(t)
	payload := json.RawMessage(`{"status":"SUCCESSFUL"}`)

	require.NoError(t, tx.Succeed(payload))
	assert.Equal(t, StatusSuccessful, tx.Status)
	assert.True(t, tx.Status.Terminal())
	assert.JSONEq(t, string(payload), string(tx.ProviderResponse))

	// Every further transition must bounce off the terminal state.
	assert.ErrorIs(t, tx.Fail(nil), ErrAlreadyTerminal)
	assert.ErrorIs(t, tx.Cancel(nil), ErrAlreadyTerminal)
	assert.ErrorIs(t, tx.Succeed(nil), ErrAlreadyTerminal)
	assert.Equal(t, StatusSuccessful, tx.Status)
}

func TestFailAndCancelAreTerminal(t *testing.T) {
	tx := newTestTransaction(t)
	require.NoError(t, tx.Fail(nil))
	assert.Equal(t, StatusFailed, tx.Status)
	assert.ErrorIs(t, tx.Succeed(nil), ErrAlreadyTerminal)

	tx = newTestTransaction(t)
	require.NoError(t, tx.Cancel(nil))
	assert.Equal(t, StatusCancelled, tx.Status)
	assert.ErrorIs(t, tx.Succeed(nil), ErrAlreadyTerminal)
}

func TestRefundedIsTerminal(t *testing.T) {
	tx := newTestTransaction(t)
	tx.Status = StatusRefunded
	assert.True(t, tx.Status.Terminal())
	assert.ErrorIs(t, tx.Succeed(nil), ErrAlreadyTerminal)
}

func TestAssignGatewayReferenceIsWriteOnce(t *testing.T) {
	tx := newTestTransaction(t)

	require.NoError(t, tx.AssignGatewayReference("gw-1"))
	require.NoError(t, tx.AssignGatewayReference("gw-1"))
	assert.Error(t, tx.AssignGatewayReference("gw-2"))
	assert.Equal(t, "gw-1", tx.GatewayReference)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" MoMo ")
	require.NoError(t, err)
	assert.Equal(t, MethodMobileMoney, m)

	_, err = ParseMethod("")
	assert.ErrorIs(t, err, ErrMethodRequired)

	_, err = ParseMethod("cowries")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestCloneIsDeep(t *testing.T) {
	tx := newTestTransaction(t)
	tx.ProviderResponse = json.RawMessage(`{"a":1}`)

	clone := tx.Clone()
	clone.ProviderResponse[2] = 'x'
	assert.Equal(t, byte('a'), tx.ProviderResponse[2])
}
