package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/enum"
	"github.com/zaryan/api/internal/validate"
)

// PurchaseStore defines the DB methods needed to record a stock purchase.
// Satisfied by *database.Queries (and its WithTx variant).
type PurchaseStore interface {
	JournalStore
	GetInventoryItem(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error)
	CreatePurchase(ctx context.Context, arg database.CreatePurchaseParams) (database.Purchase, error)
	IncrementInventoryQuantity(ctx context.Context, arg database.IncrementInventoryQuantityParams) (database.InventoryItem, error)
}

// NewPurchaseStore creates a PurchaseStore from a DBTX (pool or tx).
type NewPurchaseStore func(db database.DBTX) PurchaseStore

// CreatePurchaseRequest is the validated input for a stock purchase.
type CreatePurchaseRequest struct {
	UserID      uuid.UUID
	ItemID      uuid.UUID
	Supplier    string
	Quantity    int32
	UnitCost    decimal.Decimal
	PaymentMode string
	Date        time.Time
	Notes       string
}

// CreatePurchaseResult holds the purchase, the restocked item and the
// journal rows.
type CreatePurchaseResult struct {
	Purchase     database.Purchase
	Item         database.InventoryItem
	DaybookEntry database.DaybookEntry
	LedgerEntry  *database.LedgerEntry
}

// PurchaseService records stock purchases.
type PurchaseService struct {
	pool     TxBeginner
	newStore NewPurchaseStore
}

// NewPurchaseService creates a new PurchaseService.
func NewPurchaseService(pool TxBeginner, newStore NewPurchaseStore) *PurchaseService {
	return &PurchaseService{pool: pool, newStore: newStore}
}

// CreatePurchase records the purchase, restocks the item and books the
// expense in one transaction.
func (s *PurchaseService) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*CreatePurchaseResult, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if !req.UnitCost.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !validPaymentMode(req.PaymentMode) {
		return nil, ErrInvalidPaymentMode
	}
	total := req.UnitCost.Mul(decimal.NewFromInt32(req.Quantity)).Round(2)
	if total.GreaterThan(validate.MaxMoney) {
		return nil, ErrAmountTooLarge
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetInventoryItem(ctx, database.GetInventoryItemParams{ID: req.ItemID, UserID: req.UserID})
	if err != nil {
		return nil, notFound(err, ErrItemNotFound)
	}

	purchase, err := store.CreatePurchase(ctx, database.CreatePurchaseParams{
		UserID:      req.UserID,
		ItemID:      item.ID,
		Supplier:    req.Supplier,
		Quantity:    req.Quantity,
		UnitCost:    decimalToNumeric(req.UnitCost),
		TotalAmount: decimalToNumeric(total),
		PaymentMode: req.PaymentMode,
		Date:        dateToPg(req.Date),
		Notes:       textToPg(req.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	restocked, err := store.IncrementInventoryQuantity(ctx, database.IncrementInventoryQuantityParams{
		ID:       item.ID,
		UserID:   req.UserID,
		Quantity: req.Quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("increment stock: %w", err)
	}

	result := &CreatePurchaseResult{Purchase: purchase, Item: restocked}

	result.DaybookEntry, err = WriteDaybookEntry(ctx, store, DaybookInput{
		UserID:      req.UserID,
		Type:        enum.DaybookTypeExpense,
		Amount:      total,
		Description: fmt.Sprintf("Purchase of %s from %s", item.Name, req.Supplier),
		Category:    enum.DaybookCategoryPurchase,
		PaymentMode: req.PaymentMode,
		Date:        req.Date,
		PurchaseID:  purchase.ID,
		StockID:     item.ID,
	})
	if err != nil {
		return nil, err
	}

	if req.PaymentMode == enum.PaymentModeBank {
		ledger, err := WriteLedgerEntry(ctx, store, LedgerInput{
			UserID:          req.UserID,
			Type:            enum.LedgerTypePurchase,
			Title:           fmt.Sprintf("Purchase of %s from %s", item.Name, req.Supplier),
			Amount:          total,
			TransactionType: enum.TransactionTypeDebit,
			PaymentMethod:   enum.PaymentModeBank,
			Date:            req.Date,
		})
		if err != nil {
			return nil, err
		}
		result.LedgerEntry = &ledger
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}
