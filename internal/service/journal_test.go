package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zaryan/api/internal/enum"
)

func TestWriteDaybookEntry(t *testing.T) {
	store := newMemStore()
	saleID := uuid.New()

	entry, err := WriteDaybookEntry(context.Background(), store, DaybookInput{
		UserID:      uuid.New(),
		Type:        enum.DaybookTypeIncome,
		Amount:      dec("99.5"),
		Description: "Counter sale",
		Date:        fixedNow,
		SaleID:      saleID,
	})
	require.NoError(t, err)
	assert.Equal(t, enum.DaybookStatusCleared, entry.Status)
	assert.Equal(t, "99.50", numericToDecimal(entry.Amount).StringFixed(2))
	assert.True(t, entry.SaleID.Valid)
	assert.False(t, entry.CustomerID.Valid)
	assert.False(t, entry.Category.Valid)
	assert.Equal(t, 15, entry.Date.Time.Day())
}

func TestWriteDaybookEntry_Rejects(t *testing.T) {
	valid := DaybookInput{Type: enum.DaybookTypeExpense, Amount: dec("5"), Description: "Tea", Date: fixedNow}
	tests := []struct {
		name   string
		mutate func(*DaybookInput)
		want   error
	}{
		{"type", func(in *DaybookInput) { in.Type = "transfer" }, ErrInvalidEntryType},
		{"zero amount", func(in *DaybookInput) { in.Amount = dec("0") }, ErrInvalidAmount},
		{"blank description", func(in *DaybookInput) { in.Description = "  " }, ErrMissingDescription},
		{"payment mode", func(in *DaybookInput) { in.PaymentMode = "CARD" }, ErrInvalidPaymentMode},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			in := valid
			tc.mutate(&in)
			_, err := WriteDaybookEntry(context.Background(), store, in)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, store.daybook)
		})
	}
}

func TestWriteLedgerEntry(t *testing.T) {
	store := newMemStore()

	entry, err := WriteLedgerEntry(context.Background(), store, LedgerInput{
		UserID:          uuid.New(),
		Title:           "Owner deposit",
		Amount:          dec("5000"),
		TransactionType: enum.TransactionTypeCredit,
		PaymentMethod:   enum.PaymentModeBank,
		Date:            fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, enum.LedgerTypeManual, entry.Type)

	_, err = WriteLedgerEntry(context.Background(), store, LedgerInput{
		Title:           "x",
		Amount:          dec("1"),
		TransactionType: "REFUND",
		PaymentMethod:   enum.PaymentModeBank,
	})
	assert.ErrorIs(t, err, ErrInvalidTransactionType)

	_, err = WriteLedgerEntry(context.Background(), store, LedgerInput{
		Title:           "x",
		Amount:          dec("-1"),
		TransactionType: enum.TransactionTypeDebit,
		PaymentMethod:   enum.PaymentModeCash,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Len(t, store.ledger, 1)
}
