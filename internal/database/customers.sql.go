package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, user_id, name, phone, email, cnic, address, notes, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (Customer, error) {
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Phone,
		&i.Email,
		&i.Cnic,
		&i.Address,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listCustomers = `-- name: ListCustomers :many
SELECT ` + customerColumns + ` FROM customers
WHERE user_id = $1
  AND ($2::text IS NULL OR name ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%')
ORDER BY name
LIMIT $3 OFFSET $4
`

type ListCustomersParams struct {
	UserID uuid.UUID   `json:"user_id"`
	Search pgtype.Text `json:"search"`
	Limit  int32       `json:"limit"`
	Offset int32       `json:"offset"`
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, arg.UserID, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Customer{}
	for rows.Next() {
		i, err := scanCustomer(rows)
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

const getCustomer = `-- name: GetCustomer :one
SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND user_id = $2
`

type GetCustomerParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) GetCustomer(ctx context.Context, arg GetCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomer, arg.ID, arg.UserID))
}

const createCustomer = `-- name: CreateCustomer :one
INSERT INTO customers (user_id, name, phone, email, cnic, address, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + customerColumns

type CreateCustomerParams struct {
	UserID  uuid.UUID   `json:"user_id"`
	Name    string      `json:"name"`
	Phone   string      `json:"phone"`
	Email   pgtype.Text `json:"email"`
	Cnic    pgtype.Text `json:"cnic"`
	Address pgtype.Text `json:"address"`
	Notes   pgtype.Text `json:"notes"`
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, createCustomer,
		arg.UserID,
		arg.Name,
		arg.Phone,
		arg.Email,
		arg.Cnic,
		arg.Address,
		arg.Notes,
	))
}

const updateCustomer = `-- name: UpdateCustomer :one
UPDATE customers
SET name = $3, phone = $4, email = $5, cnic = $6, address = $7, notes = $8, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + customerColumns

type UpdateCustomerParams struct {
	ID      uuid.UUID   `json:"id"`
	UserID  uuid.UUID   `json:"user_id"`
	Name    string      `json:"name"`
	Phone   string      `json:"phone"`
	Email   pgtype.Text `json:"email"`
	Cnic    pgtype.Text `json:"cnic"`
	Address pgtype.Text `json:"address"`
	Notes   pgtype.Text `json:"notes"`
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, updateCustomer,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Phone,
		arg.Email,
		arg.Cnic,
		arg.Address,
		arg.Notes,
	))
}

const deleteCustomer = `-- name: DeleteCustomer :one
DELETE FROM customers WHERE id = $1 AND user_id = $2
RETURNING id
`

type DeleteCustomerParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) DeleteCustomer(ctx context.Context, arg DeleteCustomerParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deleteCustomer, arg.ID, arg.UserID).Scan(&id)
	return id, err
}

const countCustomers = `-- name: CountCustomers :one
SELECT count(*) FROM customers WHERE user_id = $1
`

func (q *Queries) CountCustomers(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countCustomers, userID).Scan(&count)
	return count, err
}
