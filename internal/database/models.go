package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	HashedPassword string    `json:"hashed_password"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Customer struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone"`
	Email     pgtype.Text `json:"email"`
	Cnic      pgtype.Text `json:"cnic"`
	Address   pgtype.Text `json:"address"`
	Notes     pgtype.Text `json:"notes"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type InventoryItem struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Name        string         `json:"name"`
	Sku         pgtype.Text    `json:"sku"`
	Category    pgtype.Text    `json:"category"`
	Description pgtype.Text    `json:"description"`
	Quantity    int32          `json:"quantity"`
	CostPrice   pgtype.Numeric `json:"cost_price"`
	SalePrice   pgtype.Numeric `json:"sale_price"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Sale struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	CustomerID    uuid.UUID      `json:"customer_id"`
	ItemID        uuid.UUID      `json:"item_id"`
	Reference     string         `json:"reference"`
	TotalAmount   pgtype.Numeric `json:"total_amount"`
	AdvanceAmount pgtype.Numeric `json:"advance_amount"`
	PaymentMode   string         `json:"payment_mode"`
	Duration      int32          `json:"duration"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Installment struct {
	ID          uuid.UUID          `json:"id"`
	SaleID      uuid.UUID          `json:"sale_id"`
	Amount      pgtype.Numeric     `json:"amount"`
	DueDate     pgtype.Date        `json:"due_date"`
	Status      string             `json:"status"`
	PaymentMode pgtype.Text        `json:"payment_mode"`
	PaidAt      pgtype.Timestamptz `json:"paid_at"`
	PaidBy      pgtype.UUID        `json:"paid_by"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type DaybookEntry struct {
	ID            uuid.UUID      `json:"id"`
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
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type LedgerEntry struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	Type            string         `json:"type"`
	Title           string         `json:"title"`
	Amount          pgtype.Numeric `json:"amount"`
	TransactionType string         `json:"transaction_type"`
	PaymentMethod   string         `json:"payment_method"`
	Date            pgtype.Date    `json:"date"`
	CreatedAt       time.Time      `json:"created_at"`
}

type Purchase struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	ItemID      uuid.UUID      `json:"item_id"`
	Supplier    string         `json:"supplier"`
	Quantity    int32          `json:"quantity"`
	UnitCost    pgtype.Numeric `json:"unit_cost"`
	TotalAmount pgtype.Numeric `json:"total_amount"`
	PaymentMode string         `json:"payment_mode"`
	Date        pgtype.Date    `json:"date"`
	Notes       pgtype.Text    `json:"notes"`
	CreatedAt   time.Time      `json:"created_at"`
}
