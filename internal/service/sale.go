package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/enum"
	"github.com/zaryan/api/internal/installment"
)

const (
	maxReferenceRetries     = 3
	saleReferenceConstraint = "sales_reference_key"
)

// SaleStore defines the DB methods needed by the sale service.
// Satisfied by *database.Queries (and its WithTx variant).
type SaleStore interface {
	JournalStore
	GetCustomer(ctx context.Context, arg database.GetCustomerParams) (database.Customer, error)
	GetInventoryItem(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error)
	IncrementInventoryQuantity(ctx context.Context, arg database.IncrementInventoryQuantityParams) (database.InventoryItem, error)
	DecrementInventoryQuantity(ctx context.Context, arg database.DecrementInventoryQuantityParams) (database.InventoryItem, error)
	CreateSale(ctx context.Context, arg database.CreateSaleParams) (database.Sale, error)
	CreateInstallment(ctx context.Context, arg database.CreateInstallmentParams) (database.Installment, error)
	GetSaleForUpdate(ctx context.Context, arg database.GetSaleForUpdateParams) (database.Sale, error)
	CountPaidInstallmentsBySale(ctx context.Context, saleID uuid.UUID) (int64, error)
	UpdateSale(ctx context.Context, arg database.UpdateSaleParams) (database.Sale, error)
	DeleteSale(ctx context.Context, arg database.DeleteSaleParams) error
}

// NewSaleStore creates a SaleStore from a DBTX (pool or tx).
type NewSaleStore func(db database.DBTX) SaleStore

// CreateSaleRequest is the validated input for creating a sale.
type CreateSaleRequest struct {
	UserID        uuid.UUID
	CustomerID    uuid.UUID
	ItemID        uuid.UUID
	TotalAmount   decimal.Decimal
	AdvanceAmount decimal.Decimal
	PaymentMode   string
	Duration      int
}

// CreateSaleResult holds every row written for a new sale.
type CreateSaleResult struct {
	Sale         database.Sale
	Installments []database.Installment
	DaybookEntry database.DaybookEntry
	AdvanceEntry *database.DaybookEntry
	LedgerEntry  *database.LedgerEntry
}

// UpdateSaleRequest changes the customer and/or item of a sale.
type UpdateSaleRequest struct {
	UserID     uuid.UUID
	SaleID     uuid.UUID
	CustomerID *uuid.UUID
	ItemID     *uuid.UUID
}

// SaleService handles installment sale business logic.
type SaleService struct {
	pool      TxBeginner
	newStore  NewSaleStore
	now       func() time.Time
	reference func(time.Time) string
}

// NewSaleService creates a new SaleService.
func NewSaleService(pool TxBeginner, newStore NewSaleStore) *SaleService {
	return &SaleService{
		pool:      pool,
		newStore:  newStore,
		now:       time.Now,
		reference: NewSaleReference,
	}
}

// NewSaleReference returns SALE-<unix millis>-<6 random base36 chars>.
func NewSaleReference(t time.Time) string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var b strings.Builder
	for range 6 {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return "SALE-" + strconv.FormatInt(t.UnixMilli(), 10) + "-" + b.String()
}

// CreateSale writes the sale, its installment schedule and its journal rows
// in one transaction. A reference collision is retried with a fresh
// reference up to maxReferenceRetries times.
func (s *SaleService) CreateSale(ctx context.Context, req CreateSaleRequest) (*CreateSaleResult, error) {
	if !validPaymentMode(req.PaymentMode) {
		return nil, ErrInvalidPaymentMode
	}
	if req.AdvanceAmount.GreaterThan(req.TotalAmount) {
		return nil, ErrAdvanceExceedsTotal
	}

	now := s.now().UTC()
	schedule, err := installment.Generate(req.TotalAmount, req.AdvanceAmount, req.Duration, now)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxReferenceRetries; attempt++ {
		result, err := s.createSaleTx(ctx, req, schedule, now)
		if err == nil {
			return result, nil
		}
		if isUniqueViolation(err, saleReferenceConstraint) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *SaleService) createSaleTx(ctx context.Context, req CreateSaleRequest, schedule []installment.Schedule, now time.Time) (*CreateSaleResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	customer, err := store.GetCustomer(ctx, database.GetCustomerParams{ID: req.CustomerID, UserID: req.UserID})
	if err != nil {
		return nil, notFound(err, ErrCustomerNotFound)
	}
	item, err := store.GetInventoryItem(ctx, database.GetInventoryItemParams{ID: req.ItemID, UserID: req.UserID})
	if err != nil {
		return nil, notFound(err, ErrItemNotFound)
	}

	ref := s.reference(now)
	sale, err := store.CreateSale(ctx, database.CreateSaleParams{
		UserID:        req.UserID,
		CustomerID:    customer.ID,
		ItemID:        item.ID,
		Reference:     ref,
		TotalAmount:   decimalToNumeric(req.TotalAmount),
		AdvanceAmount: decimalToNumeric(req.AdvanceAmount),
		PaymentMode:   req.PaymentMode,
		Duration:      int32(req.Duration),
	})
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	installments := make([]database.Installment, 0, len(schedule))
	for i, row := range schedule {
		ins, err := store.CreateInstallment(ctx, database.CreateInstallmentParams{
			SaleID:  sale.ID,
			Amount:  decimalToNumeric(row.Amount),
			DueDate: dateToPg(row.DueDate),
			Status:  enum.InstallmentStatusPending,
		})
		if err != nil {
			return nil, fmt.Errorf("create installment %d: %w", i+1, err)
		}
		installments = append(installments, ins)
	}

	if err := takeFromStock(ctx, store, req.UserID, item.ID); err != nil {
		return nil, err
	}

	result := &CreateSaleResult{Sale: sale, Installments: installments}

	result.DaybookEntry, err = WriteDaybookEntry(ctx, store, DaybookInput{
		UserID:      req.UserID,
		Type:        enum.DaybookTypeIncome,
		Amount:      req.TotalAmount,
		Description: fmt.Sprintf("Sale %s", ref),
		Category:    enum.DaybookCategorySale,
		PaymentMode: req.PaymentMode,
		Date:        now,
		CustomerID:  customer.ID,
		SaleID:      sale.ID,
		StockID:     item.ID,
	})
	if err != nil {
		return nil, err
	}

	if req.AdvanceAmount.IsPositive() {
		advance, err := WriteDaybookEntry(ctx, store, DaybookInput{
			UserID:      req.UserID,
			Type:        enum.DaybookTypeIncome,
			Amount:      req.AdvanceAmount,
			Description: fmt.Sprintf("Advance payment for sale %s", ref),
			Category:    enum.DaybookCategoryAdvance,
			PaymentMode: req.PaymentMode,
			Date:        now,
			CustomerID:  customer.ID,
			SaleID:      sale.ID,
			StockID:     item.ID,
		})
		if err != nil {
			return nil, err
		}
		result.AdvanceEntry = &advance

		if req.PaymentMode == enum.PaymentModeBank {
			ledger, err := WriteLedgerEntry(ctx, store, LedgerInput{
				UserID:          req.UserID,
				Type:            enum.LedgerTypeSale,
				Title:           fmt.Sprintf("Advance for sale %s (%s)", ref, customer.Name),
				Amount:          req.AdvanceAmount,
				TransactionType: enum.TransactionTypeCredit,
				PaymentMethod:   enum.PaymentModeBank,
				Date:            now,
			})
			if err != nil {
				return nil, err
			}
			result.LedgerEntry = &ledger
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// UpdateSale reassigns the customer and/or item of a sale that has no paid
// installments. Amounts and schedule never change after creation. Moving a
// sale to another item swaps one unit of stock between the two.
func (s *SaleService) UpdateSale(ctx context.Context, req UpdateSaleRequest) (database.Sale, error) {
	if req.CustomerID == nil && req.ItemID == nil {
		return database.Sale{}, ErrNothingToUpdate
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Sale{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	sale, err := store.GetSaleForUpdate(ctx, database.GetSaleForUpdateParams{ID: req.SaleID, UserID: req.UserID})
	if err != nil {
		return database.Sale{}, notFound(err, ErrSaleNotFound)
	}
	paid, err := store.CountPaidInstallmentsBySale(ctx, sale.ID)
	if err != nil {
		return database.Sale{}, fmt.Errorf("count paid installments: %w", err)
	}
	if paid > 0 {
		return database.Sale{}, ErrSaleHasPaidInstallments
	}

	customerID, itemID := sale.CustomerID, sale.ItemID
	if req.CustomerID != nil {
		if _, err := store.GetCustomer(ctx, database.GetCustomerParams{ID: *req.CustomerID, UserID: req.UserID}); err != nil {
			return database.Sale{}, notFound(err, ErrCustomerNotFound)
		}
		customerID = *req.CustomerID
	}
	if req.ItemID != nil {
		if _, err := store.GetInventoryItem(ctx, database.GetInventoryItemParams{ID: *req.ItemID, UserID: req.UserID}); err != nil {
			return database.Sale{}, notFound(err, ErrItemNotFound)
		}
		itemID = *req.ItemID
	}

	if itemID != sale.ItemID {
		if err := takeFromStock(ctx, store, req.UserID, itemID); err != nil {
			return database.Sale{}, err
		}
		if err := returnToStock(ctx, store, req.UserID, sale.ItemID); err != nil {
			return database.Sale{}, err
		}
	}

	updated, err := store.UpdateSale(ctx, database.UpdateSaleParams{
		ID:         sale.ID,
		UserID:     req.UserID,
		CustomerID: customerID,
		ItemID:     itemID,
	})
	if err != nil {
		return database.Sale{}, fmt.Errorf("update sale: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Sale{}, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

// DeleteSale removes a sale with no paid installments. Its installments and
// sale-linked daybook rows go with it and the item goes back into stock. Ledger rows are append-only, so a
// bank advance is reversed with a DEBIT row instead.
func (s *SaleService) DeleteSale(ctx context.Context, userID, saleID uuid.UUID) (database.Sale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Sale{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	sale, err := store.GetSaleForUpdate(ctx, database.GetSaleForUpdateParams{ID: saleID, UserID: userID})
	if err != nil {
		return database.Sale{}, notFound(err, ErrSaleNotFound)
	}
	paid, err := store.CountPaidInstallmentsBySale(ctx, sale.ID)
	if err != nil {
		return database.Sale{}, fmt.Errorf("count paid installments: %w", err)
	}
	if paid > 0 {
		return database.Sale{}, ErrSaleHasPaidInstallments
	}

	if err := store.DeleteSale(ctx, database.DeleteSaleParams{ID: sale.ID, UserID: userID}); err != nil {
		return database.Sale{}, fmt.Errorf("delete sale: %w", err)
	}
	if err := returnToStock(ctx, store, userID, sale.ItemID); err != nil {
		return database.Sale{}, err
	}

	advance := numericToDecimal(sale.AdvanceAmount)
	if sale.PaymentMode == enum.PaymentModeBank && advance.IsPositive() {
		_, err := WriteLedgerEntry(ctx, store, LedgerInput{
			UserID:          userID,
			Type:            enum.LedgerTypeSaleReversal,
			Title:           fmt.Sprintf("Reversal of advance for deleted sale %s", sale.Reference),
			Amount:          advance,
			TransactionType: enum.TransactionTypeDebit,
			PaymentMethod:   enum.PaymentModeBank,
			Date:            s.now(),
		})
		if err != nil {
			return database.Sale{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Sale{}, fmt.Errorf("commit tx: %w", err)
	}
	return sale, nil
}


// takeFromStock removes the one unit a sale hands over. The conditional
// update fails with no rows when nothing is left.
func takeFromStock(ctx context.Context, store SaleStore, userID, itemID uuid.UUID) error {
	_, err := store.DecrementInventoryQuantity(ctx, database.DecrementInventoryQuantityParams{
		ID:       itemID,
		UserID:   userID,
		Quantity: 1,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOutOfStock
		}
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

func returnToStock(ctx context.Context, store SaleStore, userID, itemID uuid.UUID) error {
	_, err := store.IncrementInventoryQuantity(ctx, database.IncrementInventoryQuantityParams{
		ID:       itemID,
		UserID:   userID,
		Quantity: 1,
	})
	if err != nil {
		return fmt.Errorf("restock item: %w", err)
	}
	return nil
}
