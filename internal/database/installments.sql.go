package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const installmentColumns = `id, sale_id, amount, due_date, status, payment_mode, paid_at, paid_by, created_at, updated_at`

func scanInstallment(row interface{ Scan(...any) error }) (Installment, error) {
	var i Installment
	err := row.Scan(
		&i.ID,
		&i.SaleID,
		&i.Amount,
		&i.DueDate,
		&i.Status,
		&i.PaymentMode,
		&i.PaidAt,
		&i.PaidBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createInstallment = `-- name: CreateInstallment :one
INSERT INTO installments (sale_id, amount, due_date, status)
VALUES ($1, $2, $3, $4)
RETURNING ` + installmentColumns

type CreateInstallmentParams struct {
	SaleID  uuid.UUID      `json:"sale_id"`
	Amount  pgtype.Numeric `json:"amount"`
	DueDate pgtype.Date    `json:"due_date"`
	Status  string         `json:"status"`
}

func (q *Queries) CreateInstallment(ctx context.Context, arg CreateInstallmentParams) (Installment, error) {
	return scanInstallment(q.db.QueryRow(ctx, createInstallment, arg.SaleID, arg.Amount, arg.DueDate, arg.Status))
}

const listInstallmentsBySale = `-- name: ListInstallmentsBySale :many
SELECT ` + installmentColumns + ` FROM installments
WHERE sale_id = $1
ORDER BY due_date
`

func (q *Queries) ListInstallmentsBySale(ctx context.Context, saleID uuid.UUID) ([]Installment, error) {
	rows, err := q.db.Query(ctx, listInstallmentsBySale, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Installment{}
	for rows.Next() {
		i, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// InstallmentWithSale is an installment joined with the sale fields its
// journal rows need.
type InstallmentWithSale struct {
	Installment
	SaleReference string    `json:"sale_reference"`
	CustomerID    uuid.UUID `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	ItemID        uuid.UUID `json:"item_id"`
}

const installmentWithSaleSelect = `
SELECT ins.id, ins.sale_id, ins.amount, ins.due_date, ins.status, ins.payment_mode,
       ins.paid_at, ins.paid_by, ins.created_at, ins.updated_at,
       s.reference, s.customer_id, c.name, s.item_id
FROM installments ins
JOIN sales s ON s.id = ins.sale_id
JOIN customers c ON c.id = s.customer_id
`

func scanInstallmentWithSale(row interface{ Scan(...any) error }) (InstallmentWithSale, error) {
	var i InstallmentWithSale
	err := row.Scan(
		&i.ID,
		&i.SaleID,
		&i.Amount,
		&i.DueDate,
		&i.Status,
		&i.PaymentMode,
		&i.PaidAt,
		&i.PaidBy,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.SaleReference,
		&i.CustomerID,
		&i.CustomerName,
		&i.ItemID,
	)
	return i, err
}

const getInstallment = `-- name: GetInstallment :one` + installmentWithSaleSelect + `WHERE ins.id = $1 AND s.user_id = $2
`

type GetInstallmentParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) GetInstallment(ctx context.Context, arg GetInstallmentParams) (InstallmentWithSale, error) {
	return scanInstallmentWithSale(q.db.QueryRow(ctx, getInstallment, arg.ID, arg.UserID))
}

const listInstallments = `-- name: ListInstallments :many` + installmentWithSaleSelect + `WHERE s.user_id = $1
  AND ($2::text IS NULL OR ins.status = $2)
  AND ($3::uuid IS NULL OR ins.sale_id = $3)
ORDER BY ins.due_date, ins.id
LIMIT $4 OFFSET $5
`

type ListInstallmentsParams struct {
	UserID uuid.UUID   `json:"user_id"`
	Status pgtype.Text `json:"status"`
	SaleID pgtype.UUID `json:"sale_id"`
	Limit  int32       `json:"limit"`
	Offset int32       `json:"offset"`
}

func (q *Queries) ListInstallments(ctx context.Context, arg ListInstallmentsParams) ([]InstallmentWithSale, error) {
	rows, err := q.db.Query(ctx, listInstallments, arg.UserID, arg.Status, arg.SaleID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInstallmentsWithSale(rows)
}

const listDueInstallments = `-- name: ListDueInstallments :many` + installmentWithSaleSelect + `WHERE s.user_id = $1
  AND ins.status = 'PENDING'
  AND ins.due_date <= $2
ORDER BY ins.due_date, ins.id
`

type ListDueInstallmentsParams struct {
	UserID uuid.UUID   `json:"user_id"`
	AsOf   pgtype.Date `json:"as_of"`
}

func (q *Queries) ListDueInstallments(ctx context.Context, arg ListDueInstallmentsParams) ([]InstallmentWithSale, error) {
	rows, err := q.db.Query(ctx, listDueInstallments, arg.UserID, arg.AsOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInstallmentsWithSale(rows)
}

func collectInstallmentsWithSale(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]InstallmentWithSale, error) {
	items := []InstallmentWithSale{}
	for rows.Next() {
		i, err := scanInstallmentWithSale(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Only a PENDING row matches, so of two concurrent payers exactly one gets
// a row back.
const markInstallmentPaid = `-- name: MarkInstallmentPaid :one
UPDATE installments
SET status = 'PAID', payment_mode = $2, paid_at = now(), paid_by = $3, updated_at = now()
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + installmentColumns

type MarkInstallmentPaidParams struct {
	ID          uuid.UUID   `json:"id"`
	PaymentMode pgtype.Text `json:"payment_mode"`
	PaidBy      pgtype.UUID `json:"paid_by"`
}

func (q *Queries) MarkInstallmentPaid(ctx context.Context, arg MarkInstallmentPaidParams) (Installment, error) {
	return scanInstallment(q.db.QueryRow(ctx, markInstallmentPaid, arg.ID, arg.PaymentMode, arg.PaidBy))
}

const updatePendingInstallment = `-- name: UpdatePendingInstallment :one
UPDATE installments
SET amount = $2, due_date = $3, updated_at = now()
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + installmentColumns

type UpdatePendingInstallmentParams struct {
	ID      uuid.UUID      `json:"id"`
	Amount  pgtype.Numeric `json:"amount"`
	DueDate pgtype.Date    `json:"due_date"`
}

func (q *Queries) UpdatePendingInstallment(ctx context.Context, arg UpdatePendingInstallmentParams) (Installment, error) {
	return scanInstallment(q.db.QueryRow(ctx, updatePendingInstallment, arg.ID, arg.Amount, arg.DueDate))
}

const deletePendingInstallment = `-- name: DeletePendingInstallment :execrows
DELETE FROM installments WHERE id = $1 AND status = 'PENDING'
`

func (q *Queries) DeletePendingInstallment(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deletePendingInstallment, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getInstallmentsSummary = `-- name: GetInstallmentsSummary :one
SELECT
    count(*) FILTER (WHERE ins.status = 'PENDING') AS pending_count,
    COALESCE(SUM(ins.amount) FILTER (WHERE ins.status = 'PENDING'), 0)::numeric(14,2) AS pending_amount,
    count(*) FILTER (WHERE ins.status = 'PENDING' AND ins.due_date < $2) AS overdue_count,
    count(*) FILTER (WHERE ins.status = 'PENDING' AND ins.due_date = $2) AS due_today_count
FROM installments ins
JOIN sales s ON s.id = ins.sale_id
WHERE s.user_id = $1
`

type GetInstallmentsSummaryParams struct {
	UserID uuid.UUID   `json:"user_id"`
	Today  pgtype.Date `json:"today"`
}

type GetInstallmentsSummaryRow struct {
	PendingCount  int64          `json:"pending_count"`
	PendingAmount pgtype.Numeric `json:"pending_amount"`
	OverdueCount  int64          `json:"overdue_count"`
	DueTodayCount int64          `json:"due_today_count"`
}

func (q *Queries) GetInstallmentsSummary(ctx context.Context, arg GetInstallmentsSummaryParams) (GetInstallmentsSummaryRow, error) {
	var i GetInstallmentsSummaryRow
	err := q.db.QueryRow(ctx, getInstallmentsSummary, arg.UserID, arg.Today).Scan(
		&i.PendingCount,
		&i.PendingAmount,
		&i.OverdueCount,
		&i.DueTodayCount,
	)
	return i, err
}
