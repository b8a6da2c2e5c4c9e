package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const inventoryColumns = `id, user_id, name, sku, category, description, quantity, cost_price, sale_price, created_at, updated_at`

func scanInventoryItem(row interface{ Scan(...any) error }) (InventoryItem, error) {
	var i InventoryItem
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Sku,
		&i.Category,
		&i.Description,
		&i.Quantity,
		&i.CostPrice,
		&i.SalePrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectInventoryItems(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
	Close()
}) ([]InventoryItem, error) {
	defer rows.Close()
	items := []InventoryItem{}
	for rows.Next() {
		i, err := scanInventoryItem(rows)
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

const listInventoryItems = `-- name: ListInventoryItems :many
SELECT ` + inventoryColumns + ` FROM inventory_items
WHERE user_id = $1
  AND ($2::text IS NULL OR name ILIKE '%' || $2 || '%' OR sku ILIKE '%' || $2 || '%')
  AND ($3::text IS NULL OR category = $3)
ORDER BY name
LIMIT $4 OFFSET $5
`

type ListInventoryItemsParams struct {
	UserID   uuid.UUID   `json:"user_id"`
	Search   pgtype.Text `json:"search"`
	Category pgtype.Text `json:"category"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListInventoryItems(ctx context.Context, arg ListInventoryItemsParams) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, listInventoryItems,
		arg.UserID,
		arg.Search,
		arg.Category,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	return collectInventoryItems(rows)
}

const listAllInventoryItems = `-- name: ListAllInventoryItems :many
SELECT ` + inventoryColumns + ` FROM inventory_items
WHERE user_id = $1
ORDER BY name
`

func (q *Queries) ListAllInventoryItems(ctx context.Context, userID uuid.UUID) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, listAllInventoryItems, userID)
	if err != nil {
		return nil, err
	}
	return collectInventoryItems(rows)
}

const getInventoryItem = `-- name: GetInventoryItem :one
SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1 AND user_id = $2
`

type GetInventoryItemParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) GetInventoryItem(ctx context.Context, arg GetInventoryItemParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, getInventoryItem, arg.ID, arg.UserID))
}

const createInventoryItem = `-- name: CreateInventoryItem :one
INSERT INTO inventory_items (user_id, name, sku, category, description, quantity, cost_price, sale_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + inventoryColumns

type CreateInventoryItemParams struct {
	UserID      uuid.UUID      `json:"user_id"`
	Name        string         `json:"name"`
	Sku         pgtype.Text    `json:"sku"`
	Category    pgtype.Text    `json:"category"`
	Description pgtype.Text    `json:"description"`
	Quantity    int32          `json:"quantity"`
	CostPrice   pgtype.Numeric `json:"cost_price"`
	SalePrice   pgtype.Numeric `json:"sale_price"`
}

func (q *Queries) CreateInventoryItem(ctx context.Context, arg CreateInventoryItemParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, createInventoryItem,
		arg.UserID,
		arg.Name,
		arg.Sku,
		arg.Category,
		arg.Description,
		arg.Quantity,
		arg.CostPrice,
		arg.SalePrice,
	))
}

const updateInventoryItem = `-- name: UpdateInventoryItem :one
UPDATE inventory_items
SET name = $3, sku = $4, category = $5, description = $6, quantity = $7,
    cost_price = $8, sale_price = $9, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + inventoryColumns

type UpdateInventoryItemParams struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Name        string         `json:"name"`
	Sku         pgtype.Text    `json:"sku"`
	Category    pgtype.Text    `json:"category"`
	Description pgtype.Text    `json:"description"`
	Quantity    int32          `json:"quantity"`
	CostPrice   pgtype.Numeric `json:"cost_price"`
	SalePrice   pgtype.Numeric `json:"sale_price"`
}

func (q *Queries) UpdateInventoryItem(ctx context.Context, arg UpdateInventoryItemParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, updateInventoryItem,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Sku,
		arg.Category,
		arg.Description,
		arg.Quantity,
		arg.CostPrice,
		arg.SalePrice,
	))
}

const deleteInventoryItem = `-- name: DeleteInventoryItem :one
DELETE FROM inventory_items WHERE id = $1 AND user_id = $2
RETURNING id
`

type DeleteInventoryItemParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) DeleteInventoryItem(ctx context.Context, arg DeleteInventoryItemParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deleteInventoryItem, arg.ID, arg.UserID).Scan(&id)
	return id, err
}

const incrementInventoryQuantity = `-- name: IncrementInventoryQuantity :one
UPDATE inventory_items
SET quantity = quantity + $3, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + inventoryColumns

type IncrementInventoryQuantityParams struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Quantity int32     `json:"quantity"`
}

func (q *Queries) IncrementInventoryQuantity(ctx context.Context, arg IncrementInventoryQuantityParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, incrementInventoryQuantity, arg.ID, arg.UserID, arg.Quantity))
}

const decrementInventoryQuantity = `-- name: DecrementInventoryQuantity :one
UPDATE inventory_items
SET quantity = quantity - $3, updated_at = now()
WHERE id = $1 AND user_id = $2 AND quantity >= $3
RETURNING ` + inventoryColumns

type DecrementInventoryQuantityParams struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Quantity int32     `json:"quantity"`
}

func (q *Queries) DecrementInventoryQuantity(ctx context.Context, arg DecrementInventoryQuantityParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, decrementInventoryQuantity, arg.ID, arg.UserID, arg.Quantity))
}

const getInventoryValue = `-- name: GetInventoryValue :one
SELECT COALESCE(SUM(quantity * cost_price), 0)::numeric(14,2) AS stock_value
FROM inventory_items
WHERE user_id = $1
`

func (q *Queries) GetInventoryValue(ctx context.Context, userID uuid.UUID) (pgtype.Numeric, error) {
	var stockValue pgtype.Numeric
	err := q.db.QueryRow(ctx, getInventoryValue, userID).Scan(&stockValue)
	return stockValue, err
}
