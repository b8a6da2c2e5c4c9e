package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const saleColumns = `id, user_id, customer_id, item_id, reference, total_amount, advance_amount, payment_mode, duration, created_at, updated_at`

func scanSale(row interface{ Scan(...any) error }) (Sale, error) {
	var i Sale
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.CustomerID,
		&i.ItemID,
		&i.Reference,
		&i.TotalAmount,
		&i.AdvanceAmount,
		&i.PaymentMode,
		&i.Duration,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createSale = `-- name: CreateSale :one
INSERT INTO sales (user_id, customer_id, item_id, reference, total_amount, advance_amount, payment_mode, duration)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + saleColumns

type CreateSaleParams struct {
	UserID        uuid.UUID      `json:"user_id"`
	CustomerID    uuid.UUID      `json:"customer_id"`
	ItemID        uuid.UUID      `json:"item_id"`
	Reference     string         `json:"reference"`
	TotalAmount   pgtype.Numeric `json:"total_amount"`
	AdvanceAmount pgtype.Numeric `json:"advance_amount"`
	PaymentMode   string         `json:"payment_mode"`
	Duration      int32          `json:"duration"`
}

func (q *Queries) CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, createSale,
		arg.UserID,
		arg.CustomerID,
		arg.ItemID,
		arg.Reference,
		arg.TotalAmount,
		arg.AdvanceAmount,
		arg.PaymentMode,
		arg.Duration,
	))
}

const getSale = `-- name: GetSale :one
SELECT ` + saleColumns + ` FROM sales WHERE id = $1 AND user_id = $2
`

type GetSaleParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) GetSale(ctx context.Context, arg GetSaleParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, getSale, arg.ID, arg.UserID))
}

const getSaleForUpdate = `-- name: GetSaleForUpdate :one
SELECT ` + saleColumns + ` FROM sales WHERE id = $1 AND user_id = $2
FOR UPDATE
`

type GetSaleForUpdateParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) GetSaleForUpdate(ctx context.Context, arg GetSaleForUpdateParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, getSaleForUpdate, arg.ID, arg.UserID))
}

const listSales = `-- name: ListSales :many
SELECT s.id, s.user_id, s.customer_id, s.item_id, s.reference, s.total_amount, s.advance_amount,
       s.payment_mode, s.duration, s.created_at, s.updated_at,
       c.name AS customer_name,
       i.name AS item_name,
       count(ins.id) AS installment_count,
       count(ins.id) FILTER (WHERE ins.status = 'PAID') AS paid_count,
       COALESCE(SUM(ins.amount) FILTER (WHERE ins.status = 'PENDING'), 0)::numeric(12,2) AS outstanding
FROM sales s
JOIN customers c ON c.id = s.customer_id
JOIN inventory_items i ON i.id = s.item_id
LEFT JOIN installments ins ON ins.sale_id = s.id
WHERE s.user_id = $1
  AND ($2::uuid IS NULL OR s.customer_id = $2)
GROUP BY s.id, c.name, i.name
ORDER BY s.created_at DESC
LIMIT $3 OFFSET $4
`

type ListSalesParams struct {
	UserID     uuid.UUID   `json:"user_id"`
	CustomerID pgtype.UUID `json:"customer_id"`
	Limit      int32       `json:"limit"`
	Offset     int32       `json:"offset"`
}

type ListSalesRow struct {
	Sale
	CustomerName     string         `json:"customer_name"`
	ItemName         string         `json:"item_name"`
	InstallmentCount int64          `json:"installment_count"`
	PaidCount        int64          `json:"paid_count"`
	Outstanding      pgtype.Numeric `json:"outstanding"`
}

func (q *Queries) ListSales(ctx context.Context, arg ListSalesParams) ([]ListSalesRow, error) {
	rows, err := q.db.Query(ctx, listSales, arg.UserID, arg.CustomerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListSalesRow{}
	for rows.Next() {
		var i ListSalesRow
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.CustomerID,
			&i.ItemID,
			&i.Reference,
			&i.TotalAmount,
			&i.AdvanceAmount,
			&i.PaymentMode,
			&i.Duration,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.CustomerName,
			&i.ItemName,
			&i.InstallmentCount,
			&i.PaidCount,
			&i.Outstanding,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateSale = `-- name: UpdateSale :one
UPDATE sales
SET customer_id = $3, item_id = $4, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + saleColumns

type UpdateSaleParams struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	ItemID     uuid.UUID `json:"item_id"`
}

func (q *Queries) UpdateSale(ctx context.Context, arg UpdateSaleParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, updateSale, arg.ID, arg.UserID, arg.CustomerID, arg.ItemID))
}

const deleteSale = `-- name: DeleteSale :exec
DELETE FROM sales WHERE id = $1 AND user_id = $2
`

type DeleteSaleParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) DeleteSale(ctx context.Context, arg DeleteSaleParams) error {
	_, err := q.db.Exec(ctx, deleteSale, arg.ID, arg.UserID)
	return err
}

const countPaidInstallmentsBySale = `-- name: CountPaidInstallmentsBySale :one
SELECT count(*) FROM installments WHERE sale_id = $1 AND status = 'PAID'
`

func (q *Queries) CountPaidInstallmentsBySale(ctx context.Context, saleID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countPaidInstallmentsBySale, saleID).Scan(&count)
	return count, err
}
