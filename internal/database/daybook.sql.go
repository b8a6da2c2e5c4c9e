package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const daybookColumns = `id, user_id, type, amount, description, category, status, payment_mode, date,
       customer_id, sale_id, installment_id, purchase_id, stock_id, created_at, updated_at`

func scanDaybookEntry(row interface{ Scan(...any) error }) (DaybookEntry, error) {
	var i DaybookEntry
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Type,
		&i.Amount,
		&i.Description,
		&i.Category,
		&i.Status,
		&i.PaymentMode,
		&i.Date,
		&i.CustomerID,
		&i.SaleID,
		&i.InstallmentID,
		&i.PurchaseID,
		&i.StockID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectDaybookEntries(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]DaybookEntry, error) {
	items := []DaybookEntry{}
	for rows.Next() {
		i, err := scanDaybookEntry(rows)
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

const createDaybookEntry = `-- name: CreateDaybookEntry :one
INSERT INTO daybook_entries (user_id, type, amount, description, category, status, payment_mode, date,
                             customer_id, sale_id, installment_id, purchase_id, stock_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + daybookColumns

type CreateDaybookEntryParams struct {
	UserID        uuid.UUID      `json:"user_id"`
	Type          string         `json:"type"`
	Amount        pgtype.Numeric `json:"amount"`
	Description   string         `json:"description"`
	Category      pgtype.Text    `json:"category"`
	Status        string         `json:"status"`
	PaymentMode   pgtype.Text    `json:"payment_mode"`
	Date          pgtype.Date    `json:"date"`
	CustomerID    pgtype.UUID    `json:"customer_id"`
	SaleID        pgtype.UUID    `json:"sale_id"`
	InstallmentID pgtype.UUID    `json:"installment_id"`
	PurchaseID    pgtype.UUID    `json:"purchase_id"`
	StockID       pgtype.UUID    `json:"stock_id"`
}

func (q *Queries) CreateDaybookEntry(ctx context.Context, arg CreateDaybookEntryParams) (DaybookEntry, error) {
	return scanDaybookEntry(q.db.QueryRow(ctx, createDaybookEntry,
		arg.UserID,
		arg.Type,
		arg.Amount,
		arg.Description,
		arg.Category,
		arg.Status,
		arg.PaymentMode,
		arg.Date,
		arg.CustomerID,
		arg.SaleID,
		arg.InstallmentID,
		arg.PurchaseID,
		arg.StockID,
	))
}

const getDaybookEntry = `-- name: GetDaybookEntry :one
SELECT ` + daybookColumns + ` FROM daybook_entries WHERE id = $1 AND user_id = $2
`

type GetDaybookEntryParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) GetDaybookEntry(ctx context.Context, arg GetDaybookEntryParams) (DaybookEntry, error) {
	return scanDaybookEntry(q.db.QueryRow(ctx, getDaybookEntry, arg.ID, arg.UserID))
}

const listDaybookEntries = `-- name: ListDaybookEntries :many
SELECT ` + daybookColumns + ` FROM daybook_entries
WHERE user_id = $1
  AND ($2::text IS NULL OR type = $2)
  AND ($3::text IS NULL OR category = $3)
  AND ($4::date IS NULL OR date >= $4)
  AND ($5::date IS NULL OR date <= $5)
ORDER BY date DESC, created_at DESC
LIMIT $6 OFFSET $7
`

type ListDaybookEntriesParams struct {
	UserID    uuid.UUID   `json:"user_id"`
	Type      pgtype.Text `json:"type"`
	Category  pgtype.Text `json:"category"`
	StartDate pgtype.Date `json:"start_date"`
	EndDate   pgtype.Date `json:"end_date"`
	Limit     int32       `json:"limit"`
	Offset    int32       `json:"offset"`
}

func (q *Queries) ListDaybookEntries(ctx context.Context, arg ListDaybookEntriesParams) ([]DaybookEntry, error) {
	rows, err := q.db.Query(ctx, listDaybookEntries,
		arg.UserID,
		arg.Type,
		arg.Category,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDaybookEntries(rows)
}

const listRecentDaybookEntries = `-- name: ListRecentDaybookEntries :many
SELECT ` + daybookColumns + ` FROM daybook_entries
WHERE user_id = $1
ORDER BY date DESC, created_at DESC
LIMIT $2
`

type ListRecentDaybookEntriesParams struct {
	UserID uuid.UUID `json:"user_id"`
	Limit  int32     `json:"limit"`
}

func (q *Queries) ListRecentDaybookEntries(ctx context.Context, arg ListRecentDaybookEntriesParams) ([]DaybookEntry, error) {
	rows, err := q.db.Query(ctx, listRecentDaybookEntries, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDaybookEntries(rows)
}

const updateDaybookEntryMeta = `-- name: UpdateDaybookEntryMeta :one
UPDATE daybook_entries
SET description = COALESCE($3, description),
    category = COALESCE($4, category),
    status = COALESCE($5, status),
    updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + daybookColumns

type UpdateDaybookEntryMetaParams struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Description pgtype.Text `json:"description"`
	Category    pgtype.Text `json:"category"`
	Status      pgtype.Text `json:"status"`
}

func (q *Queries) UpdateDaybookEntryMeta(ctx context.Context, arg UpdateDaybookEntryMetaParams) (DaybookEntry, error) {
	return scanDaybookEntry(q.db.QueryRow(ctx, updateDaybookEntryMeta,
		arg.ID,
		arg.UserID,
		arg.Description,
		arg.Category,
		arg.Status,
	))
}

const deleteDaybookEntry = `-- name: DeleteDaybookEntry :exec
DELETE FROM daybook_entries WHERE id = $1 AND user_id = $2
`

type DeleteDaybookEntryParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) DeleteDaybookEntry(ctx context.Context, arg DeleteDaybookEntryParams) error {
	_, err := q.db.Exec(ctx, deleteDaybookEntry, arg.ID, arg.UserID)
	return err
}

const sumDaybookByType = `-- name: SumDaybookByType :one
SELECT
    COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0)::numeric(14,2) AS income,
    COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)::numeric(14,2) AS expense
FROM daybook_entries
WHERE user_id = $1
  AND status <> 'VOID'
  AND date >= $2 AND date <= $3
`

type SumDaybookByTypeParams struct {
	UserID    uuid.UUID   `json:"user_id"`
	StartDate pgtype.Date `json:"start_date"`
	EndDate   pgtype.Date `json:"end_date"`
}

type SumDaybookByTypeRow struct {
	Income  pgtype.Numeric `json:"income"`
	Expense pgtype.Numeric `json:"expense"`
}

func (q *Queries) SumDaybookByType(ctx context.Context, arg SumDaybookByTypeParams) (SumDaybookByTypeRow, error) {
	var i SumDaybookByTypeRow
	err := q.db.QueryRow(ctx, sumDaybookByType, arg.UserID, arg.StartDate, arg.EndDate).Scan(&i.Income, &i.Expense)
	return i, err
}
