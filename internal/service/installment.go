package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/enum"
)

// InstallmentStore defines the DB methods needed by the installment service.
// Satisfied by *database.Queries (and its WithTx variant).
type InstallmentStore interface {
	JournalStore
	GetInstallment(ctx context.Context, arg database.GetInstallmentParams) (database.InstallmentWithSale, error)
	MarkInstallmentPaid(ctx context.Context, arg database.MarkInstallmentPaidParams) (database.Installment, error)
	UpdatePendingInstallment(ctx context.Context, arg database.UpdatePendingInstallmentParams) (database.Installment, error)
	DeletePendingInstallment(ctx context.Context, id uuid.UUID) (int64, error)
}

// NewInstallmentStore creates an InstallmentStore from a DBTX (pool or tx).
type NewInstallmentStore func(db database.DBTX) InstallmentStore

// PayInstallmentRequest marks one installment as paid by the actor.
type PayInstallmentRequest struct {
	UserID        uuid.UUID
	InstallmentID uuid.UUID
	PaymentMode   string
}

// PayInstallmentResult holds the paid installment and its journal rows.
// DaybookEntry is nil for a zero-amount installment.
type PayInstallmentResult struct {
	Installment   database.Installment
	SaleID        uuid.UUID
	SaleReference string
	DaybookEntry  *database.DaybookEntry
	LedgerEntry   *database.LedgerEntry
}

// UpdateInstallmentRequest edits the amount and/or due date of a pending
// installment.
type UpdateInstallmentRequest struct {
	UserID        uuid.UUID
	InstallmentID uuid.UUID
	Amount        *decimal.Decimal
	DueDate       *time.Time
}

// InstallmentService runs the PENDING -> PAID transition and the guarded
// edits of pending installments.
type InstallmentService struct {
	pool     TxBeginner
	newStore NewInstallmentStore
	now      func() time.Time
}

// NewInstallmentService creates a new InstallmentService.
func NewInstallmentService(pool TxBeginner, newStore NewInstallmentStore) *InstallmentService {
	return &InstallmentService{pool: pool, newStore: newStore, now: time.Now}
}

// Pay transitions a pending installment to PAID and journals the payment.
// The status flip only matches a PENDING row, so a concurrent second payer
// gets ErrInstallmentAlreadyPaid and writes nothing.
func (s *InstallmentService) Pay(ctx context.Context, req PayInstallmentRequest) (*PayInstallmentResult, error) {
	if !validPaymentMode(req.PaymentMode) {
		return nil, ErrInvalidPaymentMode
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetInstallment(ctx, database.GetInstallmentParams{ID: req.InstallmentID, UserID: req.UserID})
	if err != nil {
		return nil, notFound(err, ErrInstallmentNotFound)
	}
	if current.Status == enum.InstallmentStatusPaid {
		return nil, ErrInstallmentAlreadyPaid
	}

	paid, err := store.MarkInstallmentPaid(ctx, database.MarkInstallmentPaidParams{
		ID:          current.ID,
		PaymentMode: textToPg(req.PaymentMode),
		PaidBy:      uuidToPg(req.UserID),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInstallmentAlreadyPaid
		}
		return nil, fmt.Errorf("mark installment paid: %w", err)
	}

	result := &PayInstallmentResult{
		Installment:   paid,
		SaleID:        current.SaleID,
		SaleReference: current.SaleReference,
	}

	amount := numericToDecimal(paid.Amount)
	if amount.IsPositive() {
		now := s.now()
		entry, err := WriteDaybookEntry(ctx, store, DaybookInput{
			UserID:        req.UserID,
			Type:          enum.DaybookTypeIncome,
			Amount:        amount,
			Description:   fmt.Sprintf("Installment payment for sale %s", current.SaleReference),
			Category:      enum.DaybookCategoryInstallment,
			PaymentMode:   req.PaymentMode,
			Date:          now,
			CustomerID:    current.CustomerID,
			SaleID:        current.SaleID,
			InstallmentID: current.ID,
			StockID:       current.ItemID,
		})
		if err != nil {
			return nil, err
		}
		result.DaybookEntry = &entry

		if req.PaymentMode == enum.PaymentModeBank {
			ledger, err := WriteLedgerEntry(ctx, store, LedgerInput{
				UserID:          req.UserID,
				Type:            enum.LedgerTypeInstallment,
				Title:           fmt.Sprintf("Installment for sale %s (%s)", current.SaleReference, current.CustomerName),
				Amount:          amount,
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

// Update edits a pending installment. Paid installments are rejected.
func (s *InstallmentService) Update(ctx context.Context, req UpdateInstallmentRequest) (database.Installment, error) {
	if req.Amount == nil && req.DueDate == nil {
		return database.Installment{}, ErrNothingToUpdate
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		return database.Installment{}, ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Installment{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetInstallment(ctx, database.GetInstallmentParams{ID: req.InstallmentID, UserID: req.UserID})
	if err != nil {
		return database.Installment{}, notFound(err, ErrInstallmentNotFound)
	}
	if current.Status == enum.InstallmentStatusPaid {
		return database.Installment{}, ErrInstallmentPaid
	}

	params := database.UpdatePendingInstallmentParams{
		ID:      current.ID,
		Amount:  current.Amount,
		DueDate: current.DueDate,
	}
	if req.Amount != nil {
		params.Amount = decimalToNumeric(*req.Amount)
	}
	if req.DueDate != nil {
		params.DueDate = dateToPg(*req.DueDate)
	}

	updated, err := store.UpdatePendingInstallment(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Installment{}, ErrInstallmentPaid
		}
		return database.Installment{}, fmt.Errorf("update installment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Installment{}, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

// Delete removes a pending installment. Paid installments are rejected.
func (s *InstallmentService) Delete(ctx context.Context, userID, installmentID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetInstallment(ctx, database.GetInstallmentParams{ID: installmentID, UserID: userID})
	if err != nil {
		return notFound(err, ErrInstallmentNotFound)
	}
	if current.Status == enum.InstallmentStatusPaid {
		return ErrInstallmentPaid
	}

	n, err := store.DeletePendingInstallment(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	if n == 0 {
		return ErrInstallmentPaid
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
