package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/enum"
)

func newTestPurchaseService(store *memStore) (*PurchaseService, *mockTxBeginner) {
	pool := &mockTxBeginner{tx: &mockTx{}}
	return NewPurchaseService(pool, func(db database.DBTX) PurchaseStore { return store }), pool
}

func TestCreatePurchase_RestocksAndJournals(t *testing.T) {
	store := newMemStore()
	userID := uuid.New()
	item := store.addItem(userID, "Washing Machine", 2)
	svc, pool := newTestPurchaseService(store)

	result, err := svc.CreatePurchase(context.Background(), CreatePurchaseRequest{
		UserID:      userID,
		ItemID:      item.ID,
		Supplier:    "Haier Traders",
		Quantity:    3,
		UnitCost:    dec("45000.50"),
		PaymentMode: "BANK",
		Date:        fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), pool.tx.committed.Load())

	assert.True(t, numericEquals(t, result.Purchase.TotalAmount, "135001.50"))
	assert.Equal(t, int32(5), result.Item.Quantity)
	assert.Equal(t, int32(5), store.items[item.ID].Quantity)

	require.Len(t, store.daybook, 1)
	entry := store.daybook[0]
	assert.Equal(t, enum.DaybookTypeExpense, entry.Type)
	assert.Equal(t, "Purchase of Washing Machine from Haier Traders", entry.Description)
	assert.Equal(t, result.Purchase.ID, uuid.UUID(entry.PurchaseID.Bytes))

	require.NotNil(t, result.LedgerEntry)
	assert.Equal(t, enum.TransactionTypeDebit, result.LedgerEntry.TransactionType)
	assert.Equal(t, enum.LedgerTypePurchase, result.LedgerEntry.Type)
}

func TestCreatePurchase_CashHasNoLedger(t *testing.T) {
	store := newMemStore()
	userID := uuid.New()
	item := store.addItem(userID, "Iron", 0)
	svc, _ := newTestPurchaseService(store)

	result, err := svc.CreatePurchase(context.Background(), CreatePurchaseRequest{
		UserID:      userID,
		ItemID:      item.ID,
		Supplier:    "Local",
		Quantity:    1,
		UnitCost:    dec("1500"),
		PaymentMode: "CASH",
		Date:        time.Now(),
	})
	require.NoError(t, err)
	assert.Nil(t, result.LedgerEntry)
	assert.Empty(t, store.ledger)
}

func TestCreatePurchase_Validation(t *testing.T) {
	store := newMemStore()
	userID := uuid.New()
	item := store.addItem(userID, "Iron", 0)
	svc, pool := newTestPurchaseService(store)

	base := CreatePurchaseRequest{UserID: userID, ItemID: item.ID, Supplier: "Local", Quantity: 1, UnitCost: dec("10"), PaymentMode: "CASH", Date: fixedNow}

	r := base
	r.Quantity = 0
	_, err := svc.CreatePurchase(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	r = base
	r.UnitCost = dec("0")
	_, err = svc.CreatePurchase(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	r = base
	r.Quantity = 2
	r.UnitCost = dec("5000000000.00")
	_, err = svc.CreatePurchase(context.Background(), r)
	assert.ErrorIs(t, err, ErrAmountTooLarge)

	r = base
	r.PaymentMode = "CARD"
	_, err = svc.CreatePurchase(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalidPaymentMode)

	assert.Equal(t, int32(0), pool.begins.Load())

	r = base
	r.ItemID = uuid.New()
	_, err = svc.CreatePurchase(context.Background(), r)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Empty(t, store.purchases)
}
