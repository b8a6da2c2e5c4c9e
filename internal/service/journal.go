package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/enum"
)

// JournalStore appends daybook and ledger rows.
// Satisfied by *database.Queries (and its WithTx variant).
type JournalStore interface {
	CreateDaybookEntry(ctx context.Context, arg database.CreateDaybookEntryParams) (database.DaybookEntry, error)
	CreateLedgerEntry(ctx context.Context, arg database.CreateLedgerEntryParams) (database.LedgerEntry, error)
}

// DaybookInput is one income or expense row. Zero UUIDs leave the link empty.
type DaybookInput struct {
	UserID        uuid.UUID
	Type          string
	Amount        decimal.Decimal
	Description   string
	Category      string
	Status        string
	PaymentMode   string
	Date          time.Time
	CustomerID    uuid.UUID
	SaleID        uuid.UUID
	InstallmentID uuid.UUID
	PurchaseID    uuid.UUID
	StockID       uuid.UUID
}

// LedgerInput is one credit or debit row.
type LedgerInput struct {
	UserID          uuid.UUID
	Type            string
	Title           string
	Amount          decimal.Decimal
	TransactionType string
	PaymentMethod   string
	Date            time.Time
}

// WriteDaybookEntry checks in and appends it through store.
func WriteDaybookEntry(ctx context.Context, store JournalStore, in DaybookInput) (database.DaybookEntry, error) {
	if in.Type != enum.DaybookTypeIncome && in.Type != enum.DaybookTypeExpense {
		return database.DaybookEntry{}, ErrInvalidEntryType
	}
	if !in.Amount.IsPositive() {
		return database.DaybookEntry{}, ErrInvalidAmount
	}
	if strings.TrimSpace(in.Description) == "" {
		return database.DaybookEntry{}, ErrMissingDescription
	}
	if in.PaymentMode != "" && !validPaymentMode(in.PaymentMode) {
		return database.DaybookEntry{}, ErrInvalidPaymentMode
	}
	status := in.Status
	if status == "" {
		status = enum.DaybookStatusCleared
	}

	entry, err := store.CreateDaybookEntry(ctx, database.CreateDaybookEntryParams{
		UserID:        in.UserID,
		Type:          in.Type,
		Amount:        decimalToNumeric(in.Amount),
		Description:   in.Description,
		Category:      textToPg(in.Category),
		Status:        status,
		PaymentMode:   textToPg(in.PaymentMode),
		Date:          dateToPg(in.Date),
		CustomerID:    uuidToPg(in.CustomerID),
		SaleID:        uuidToPg(in.SaleID),
		InstallmentID: uuidToPg(in.InstallmentID),
		PurchaseID:    uuidToPg(in.PurchaseID),
		StockID:       uuidToPg(in.StockID),
	})
	if err != nil {
		return database.DaybookEntry{}, fmt.Errorf("create daybook entry: %w", err)
	}
	return entry, nil
}

// WriteLedgerEntry checks in and appends it through store.
func WriteLedgerEntry(ctx context.Context, store JournalStore, in LedgerInput) (database.LedgerEntry, error) {
	if in.TransactionType != enum.TransactionTypeCredit && in.TransactionType != enum.TransactionTypeDebit {
		return database.LedgerEntry{}, ErrInvalidTransactionType
	}
	if !validPaymentMode(in.PaymentMethod) {
		return database.LedgerEntry{}, ErrInvalidPaymentMode
	}
	if !in.Amount.IsPositive() {
		return database.LedgerEntry{}, ErrInvalidAmount
	}
	if strings.TrimSpace(in.Title) == "" {
		return database.LedgerEntry{}, ErrMissingDescription
	}
	typ := in.Type
	if typ == "" {
		typ = enum.LedgerTypeManual
	}

	entry, err := store.CreateLedgerEntry(ctx, database.CreateLedgerEntryParams{
		UserID:          in.UserID,
		Type:            typ,
		Title:           in.Title,
		Amount:          decimalToNumeric(in.Amount),
		TransactionType: in.TransactionType,
		PaymentMethod:   in.PaymentMethod,
		Date:            dateToPg(in.Date),
	})
	if err != nil {
		return database.LedgerEntry{}, fmt.Errorf("create ledger entry: %w", err)
	}
	return entry, nil
}
