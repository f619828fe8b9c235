package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/hangart/hangart/internal/domain/payment"
)

func seedTransaction(t *testing.T, repo *PaymentRepository, id, orderID string) *domain.Transaction {
	t.Helper()
	tx, err := domain.New(id, "TXN-"+id, orderID, "user-1",
		domain.MethodMobileMoney, decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx))
	return tx
}

func TestCreateEnforcesOneTransactionPerOrder(t *testing.T) {
	repo := NewPaymentRepository()
	seedTransaction(t, repo, "tx-1", "order-1")

	dup, err := domain.New("tx-2", "TXN-tx-2", "order-1", "user-1",
		domain.MethodMobileMoney, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(context.Background(), dup), domain.ErrDuplicateOrder)
}

func TestFindByReferenceFallsBackToLocalReference(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()
	tx := seedTransaction(t, repo, "tx-1", "order-1")

	got, err := repo.FindByReference(ctx, tx.Reference)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)

	require.NoError(t, tx.AssignGatewayReference("gw-1"))
	require.NoError(t, repo.Update(ctx, tx))

	got, err = repo.FindByReference(ctx, "gw-1")
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)

	_, err = repo.FindByReference(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateCannotChangeStatus(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()
	tx := seedTransaction(t, repo, "tx-1", "order-1")

	tx.Status = domain.StatusSuccessful
	require.NoError(t, repo.Update(ctx, tx))

	stored, err := repo.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status,
		"status writes must go through UpdateStatus")
}

func TestUpdateStatusGuardsOnCurrentStatus(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()
	tx := seedTransaction(t, repo, "tx-1", "order-1")

	payload := json.RawMessage(`{"status":"SUCCESSFUL"}`)
	require.NoError(t, repo.UpdateStatus(ctx, tx.ID, domain.StatusPending, domain.StatusSuccessful, payload))

	// The losing side of the race sees a conflict, not a silent overwrite.
	err := repo.UpdateStatus(ctx, tx.ID, domain.StatusPending, domain.StatusFailed, nil)
	assert.ErrorIs(t, err, domain.ErrStatusConflict)

	stored, err := repo.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccessful, stored.Status)
	assert.JSONEq(t, string(payload), string(stored.ProviderResponse))

	err = repo.UpdateStatus(ctx, "no-such-id", domain.StatusPending, domain.StatusFailed, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventsAreAppendOnlyAndOrdered(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()
	tx := seedTransaction(t, repo, "tx-1", "order-1")

	kinds := []domain.EventKind{domain.EventInitiated, domain.EventSubmitted, domain.EventConfirmed}
	for _, kind := range kinds {
		require.NoError(t, repo.AppendEvent(ctx, domain.NewEvent(tx.ID, kind, string(kind))))
	}

	events, err := repo.ListEvents(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, kinds[i], e.Kind)
		assert.NotZero(t, e.ID)
	}
	assert.Less(t, events[0].ID, events[1].ID)
	assert.Less(t, events[1].ID, events[2].ID)
}

func TestFindByIDReturnsClone(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()
	tx := seedTransaction(t, repo, "tx-1", "order-1")

	got, err := repo.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	got.Status = domain.StatusFailed

	again, err := repo.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, again.Status)
}
