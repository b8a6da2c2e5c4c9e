package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const purchaseColumns = `id, user_id, item_id, supplier, quantity, unit_cost, total_amount, payment_mode, date, notes, created_at`

func scanPurchase(row interface{ Scan(...any) error }) (Purchase, error) {
	var i Purchase
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.ItemID,
		&i.Supplier,
		&i.Quantity,
		&i.UnitCost,
		&i.TotalAmount,
		&i.PaymentMode,
		&i.Date,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

const createPurchase = `-- name: CreatePurchase :one
INSERT INTO purchases (user_id, item_id, supplier, quantity, unit_cost, total_amount, payment_mode, date, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + purchaseColumns

type CreatePurchaseParams struct {
	UserID      uuid.UUID      `json:"user_id"`
	ItemID      uuid.UUID      `json:"item_id"`
	Supplier    string         `json:"supplier"`
	Quantity    int32          `json:"quantity"`
	UnitCost    pgtype.Numeric `json:"unit_cost"`
	TotalAmount pgtype.Numeric `json:"total_amount"`
	PaymentMode string         `json:"payment_mode"`
	Date        pgtype.Date    `json:"date"`
	Notes       pgtype.Text    `json:"notes"`
}

func (q *Queries) CreatePurchase(ctx context.Context, arg CreatePurchaseParams) (Purchase, error) {
	return scanPurchase(q.db.QueryRow(ctx, createPurchase,
		arg.UserID,
		arg.ItemID,
		arg.Supplier,
		arg.Quantity,
		arg.UnitCost,
		arg.TotalAmount,
		arg.PaymentMode,
		arg.Date,
		arg.Notes,
	))
}

const getPurchase = `-- name: GetPurchase :one
SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1 AND user_id = $2
`

type GetPurchaseParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) GetPurchase(ctx context.Context, arg GetPurchaseParams) (Purchase, error) {
	return scanPurchase(q.db.QueryRow(ctx, getPurchase, arg.ID, arg.UserID))
}

const listPurchases = `-- name: ListPurchases :many
SELECT p.id, p.user_id, p.item_id, p.supplier, p.quantity, p.unit_cost, p.total_amount,
       p.payment_mode, p.date, p.notes, p.created_at, i.name AS item_name
FROM purchases p
JOIN inventory_items i ON i.id = p.item_id
WHERE p.user_id = $1
  AND ($2::uuid IS NULL OR p.item_id = $2)
  AND ($3::date IS NULL OR p.date >= $3)
  AND ($4::date IS NULL OR p.date <= $4)
ORDER BY p.date DESC, p.created_at DESC
LIMIT $5 OFFSET $6
`

type ListPurchasesParams struct {
	UserID    uuid.UUID   `json:"user_id"`
	ItemID    pgtype.UUID `json:"item_id"`
	StartDate pgtype.Date `json:"start_date"`
	EndDate   pgtype.Date `json:"end_date"`
	Limit     int32       `json:"limit"`
	Offset    int32       `json:"offset"`
}

type ListPurchasesRow struct {
	Purchase
	ItemName string `json:"item_name"`
}

func (q *Queries) ListPurchases(ctx context.Context, arg ListPurchasesParams) ([]ListPurchasesRow, error) {
	rows, err := q.db.Query(ctx, listPurchases,
		arg.UserID,
		arg.ItemID,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListPurchasesRow{}
	for rows.Next() {
		var i ListPurchasesRow
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.ItemID,
			&i.Supplier,
			&i.Quantity,
			&i.UnitCost,
			&i.TotalAmount,
			&i.PaymentMode,
			&i.Date,
			&i.Notes,
			&i.CreatedAt,
			&i.ItemName,
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
