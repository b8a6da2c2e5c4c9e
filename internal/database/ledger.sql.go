package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const ledgerColumns = `id, user_id, type, title, amount, transaction_type, payment_method, date, created_at`

func scanLedgerEntry(row interface{ Scan(...any) error }) (LedgerEntry, error) {
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Type,
		&i.Title,
		&i.Amount,
		&i.TransactionType,
		&i.PaymentMethod,
		&i.Date,
		&i.CreatedAt,
	)
	return i, err
}

const createLedgerEntry = `-- name: CreateLedgerEntry :one
INSERT INTO ledger_entries (user_id, type, title, amount, transaction_type, payment_method, date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + ledgerColumns

type CreateLedgerEntryParams struct {
	UserID          uuid.UUID      `json:"user_id"`
	Type            string         `json:"type"`
	Title           string         `json:"title"`
	Amount          pgtype.Numeric `json:"amount"`
	TransactionType string         `json:"transaction_type"`
	PaymentMethod   string         `json:"payment_method"`
	Date            pgtype.Date    `json:"date"`
}

func (q *Queries) CreateLedgerEntry(ctx context.Context, arg CreateLedgerEntryParams) (LedgerEntry, error) {
	return scanLedgerEntry(q.db.QueryRow(ctx, createLedgerEntry,
		arg.UserID,
		arg.Type,
		arg.Title,
		arg.Amount,
		arg.TransactionType,
		arg.PaymentMethod,
		arg.Date,
	))
}

const getLedgerEntry = `-- name: GetLedgerEntry :one
SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = $1 AND user_id = $2
`

type GetLedgerEntryParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) GetLedgerEntry(ctx context.Context, arg GetLedgerEntryParams) (LedgerEntry, error) {
	return scanLedgerEntry(q.db.QueryRow(ctx, getLedgerEntry, arg.ID, arg.UserID))
}

const listLedgerEntries = `-- name: ListLedgerEntries :many
SELECT ` + ledgerColumns + ` FROM ledger_entries
WHERE user_id = $1
  AND ($2::text IS NULL OR transaction_type = $2)
  AND ($3::text IS NULL OR payment_method = $3)
  AND ($4::date IS NULL OR date >= $4)
  AND ($5::date IS NULL OR date <= $5)
ORDER BY date DESC, created_at DESC
LIMIT $6 OFFSET $7
`

type ListLedgerEntriesParams struct {
	UserID          uuid.UUID   `json:"user_id"`
	TransactionType pgtype.Text `json:"transaction_type"`
	PaymentMethod   pgtype.Text `json:"payment_method"`
	StartDate       pgtype.Date `json:"start_date"`
	EndDate         pgtype.Date `json:"end_date"`
	Limit           int32       `json:"limit"`
	Offset          int32       `json:"offset"`
}

func (q *Queries) ListLedgerEntries(ctx context.Context, arg ListLedgerEntriesParams) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntries,
		arg.UserID,
		arg.TransactionType,
		arg.PaymentMethod,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		i, err := scanLedgerEntry(rows)
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

const getLedgerBalances = `-- name: GetLedgerBalances :many
SELECT payment_method,
       COALESCE(SUM(CASE WHEN transaction_type = 'CREDIT' THEN amount ELSE -amount END), 0)::numeric(14,2) AS balance
FROM ledger_entries
WHERE user_id = $1
GROUP BY payment_method
ORDER BY payment_method
`

type GetLedgerBalancesRow struct {
	PaymentMethod string         `json:"payment_method"`
	Balance       pgtype.Numeric `json:"balance"`
}

func (q *Queries) GetLedgerBalances(ctx context.Context, userID uuid.UUID) ([]GetLedgerBalancesRow, error) {
	rows, err := q.db.Query(ctx, getLedgerBalances, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetLedgerBalancesRow{}
	for rows.Next() {
		var i GetLedgerBalancesRow
		if err := rows.Scan(&i.PaymentMethod, &i.Balance); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
