package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/zaryan/api/internal/enum"
	"github.com/zaryan/api/internal/installment"
)

// Errors returned by the services. Handlers map the not-found group to 404
// and every other sentinel to 400.
var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrItemNotFound        = errors.New("inventory item not found")
	ErrSaleNotFound        = errors.New("sale not found")
	ErrInstallmentNotFound = errors.New("installment not found")

	ErrInvalidPaymentMode      = errors.New("invalid payment_mode")
	ErrAdvanceExceedsTotal     = errors.New("advance_amount must not exceed total_amount")
	ErrSaleHasPaidInstallments = errors.New("sale has paid installments")
	ErrInstallmentAlreadyPaid  = errors.New("installment is already paid")
	ErrInstallmentPaid         = errors.New("paid installment cannot be modified")
	ErrNothingToUpdate         = errors.New("nothing to update")
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrAmountTooLarge          = errors.New("amount exceeds the maximum of 9999999999.99")
	ErrInvalidQuantity         = errors.New("quantity must be > 0")
	ErrOutOfStock              = errors.New("item is out of stock")
	ErrInvalidEntryType        = errors.New("invalid entry type")
	ErrInvalidTransactionType  = errors.New("invalid transaction_type")
	ErrMissingDescription      = errors.New("description is required")
)

var notFoundErrors = []error{
	ErrCustomerNotFound,
	ErrItemNotFound,
	ErrSaleNotFound,
	ErrInstallmentNotFound,
}

var businessRuleErrors = []error{
	ErrInvalidPaymentMode,
	ErrAdvanceExceedsTotal,
	ErrSaleHasPaidInstallments,
	ErrInstallmentAlreadyPaid,
	ErrInstallmentPaid,
	ErrNothingToUpdate,
	ErrInvalidAmount,
	ErrAmountTooLarge,
	ErrInvalidQuantity,
	ErrOutOfStock,
	ErrInvalidEntryType,
	ErrInvalidTransactionType,
	ErrMissingDescription,
	installment.ErrInvalidTotal,
	installment.ErrInvalidAdvance,
	installment.ErrAdvanceTooLarge,
	installment.ErrInvalidDuration,
}

func match(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return match(err, notFoundErrors) != nil
}

// IsBusinessRule reports whether err is a rejection the caller can fix.
func IsBusinessRule(err error) bool {
	return match(err, businessRuleErrors) != nil
}

// Reason returns the sentinel wrapped in err, or nil when err is not one of
// the known service errors. Its message is safe to show to clients.
func Reason(err error) error {
	if target := match(err, notFoundErrors); target != nil {
		return target
	}
	return match(err, businessRuleErrors)
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// --- Helpers ---

func validPaymentMode(s string) bool {
	switch s {
	case enum.PaymentModeCash, enum.PaymentModeBank, enum.PaymentModeMobile:
		return true
	}
	return false
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func dateToPg(t time.Time) pgtype.Date {
	return pgtype.Date{Time: installment.StartOfDay(t), Valid: true}
}

func uuidToPg(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

func textToPg(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
