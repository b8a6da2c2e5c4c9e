package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/enum"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr error
	committed atomic.Int32
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed.Add(1)
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error { return nil }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner and counts transactions.
type mockTxBeginner struct {
	tx     *mockTx
	err    error
	begins atomic.Int32
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	m.begins.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.tx, nil
}

// memStore is an in-memory stand-in for *database.Queries covering the
// sale, installment and purchase stores. Writes land immediately.
type memStore struct {
	mu           sync.Mutex
	customers    map[uuid.UUID]database.Customer
	items        map[uuid.UUID]database.InventoryItem
	sales        map[uuid.UUID]database.Sale
	installments map[uuid.UUID]database.Installment
	purchases    []database.Purchase
	daybook      []database.DaybookEntry
	ledger       []database.LedgerEntry

	// createSaleErrs is consumed one per CreateSale call.
	createSaleErrs []error
}

func newMemStore() *memStore {
	return &memStore{
		customers:    make(map[uuid.UUID]database.Customer),
		items:        make(map[uuid.UUID]database.InventoryItem),
		sales:        make(map[uuid.UUID]database.Sale),
		installments: make(map[uuid.UUID]database.Installment),
	}
}

func (m *memStore) addCustomer(userID uuid.UUID, name string) database.Customer {
	c := database.Customer{ID: uuid.New(), UserID: userID, Name: name, Phone: "0300" + name}
	m.customers[c.ID] = c
	return c
}

func (m *memStore) addItem(userID uuid.UUID, name string, qty int32) database.InventoryItem {
	i := database.InventoryItem{ID: uuid.New(), UserID: userID, Name: name, Quantity: qty}
	m.items[i.ID] = i
	return i
}

func (m *memStore) GetCustomer(_ context.Context, arg database.GetCustomerParams) (database.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[arg.ID]
	if !ok || c.UserID != arg.UserID {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *memStore) GetInventoryItem(_ context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[arg.ID]
	if !ok || i.UserID != arg.UserID {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	return i, nil
}

func (m *memStore) CreateSale(_ context.Context, arg database.CreateSaleParams) (database.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createSaleErrs) > 0 {
		err := m.createSaleErrs[0]
		m.createSaleErrs = m.createSaleErrs[1:]
		if err != nil {
			return database.Sale{}, err
		}
	}
	s := database.Sale{
		ID:            uuid.New(),
		UserID:        arg.UserID,
		CustomerID:    arg.CustomerID,
		ItemID:        arg.ItemID,
		Reference:     arg.Reference,
		TotalAmount:   arg.TotalAmount,
		AdvanceAmount: arg.AdvanceAmount,
		PaymentMode:   arg.PaymentMode,
		Duration:      arg.Duration,
		CreatedAt:     time.Now(),
	}
	m.sales[s.ID] = s
	return s, nil
}

func (m *memStore) CreateInstallment(_ context.Context, arg database.CreateInstallmentParams) (database.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := database.Installment{
		ID:      uuid.New(),
		SaleID:  arg.SaleID,
		Amount:  arg.Amount,
		DueDate: arg.DueDate,
		Status:  arg.Status,
	}
	m.installments[i.ID] = i
	return i, nil
}

func (m *memStore) GetSaleForUpdate(_ context.Context, arg database.GetSaleForUpdateParams) (database.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[arg.ID]
	if !ok || s.UserID != arg.UserID {
		return database.Sale{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *memStore) CountPaidInstallmentsBySale(_ context.Context, saleID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, i := range m.installments {
		if i.SaleID == saleID && i.Status == enum.InstallmentStatusPaid {
			n++
		}
	}
	return n, nil
}

func (m *memStore) UpdateSale(_ context.Context, arg database.UpdateSaleParams) (database.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[arg.ID]
	if !ok || s.UserID != arg.UserID {
		return database.Sale{}, pgx.ErrNoRows
	}
	s.CustomerID = arg.CustomerID
	s.ItemID = arg.ItemID
	m.sales[s.ID] = s
	return s, nil
}

// DeleteSale mirrors the ON DELETE CASCADE on installments and daybook rows.
func (m *memStore) DeleteSale(_ context.Context, arg database.DeleteSaleParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sales, arg.ID)
	for id, i := range m.installments {
		if i.SaleID == arg.ID {
			delete(m.installments, id)
		}
	}
	kept := m.daybook[:0]
	for _, e := range m.daybook {
		if e.SaleID.Valid && uuid.UUID(e.SaleID.Bytes) == arg.ID {
			continue
		}
		kept = append(kept, e)
	}
	m.daybook = kept
	return nil
}

func (m *memStore) GetInstallment(_ context.Context, arg database.GetInstallmentParams) (database.InstallmentWithSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.installments[arg.ID]
	if !ok {
		return database.InstallmentWithSale{}, pgx.ErrNoRows
	}
	s, ok := m.sales[i.SaleID]
	if !ok || s.UserID != arg.UserID {
		return database.InstallmentWithSale{}, pgx.ErrNoRows
	}
	return database.InstallmentWithSale{
		Installment:   i,
		SaleReference: s.Reference,
		CustomerID:    s.CustomerID,
		CustomerName:  m.customers[s.CustomerID].Name,
		ItemID:        s.ItemID,
	}, nil
}

func (m *memStore) MarkInstallmentPaid(_ context.Context, arg database.MarkInstallmentPaidParams) (database.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.installments[arg.ID]
	if !ok || i.Status != enum.InstallmentStatusPending {
		return database.Installment{}, pgx.ErrNoRows
	}
	i.Status = enum.InstallmentStatusPaid
	i.PaymentMode = arg.PaymentMode
	i.PaidBy = arg.PaidBy
	i.PaidAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	m.installments[i.ID] = i
	return i, nil
}

func (m *memStore) UpdatePendingInstallment(_ context.Context, arg database.UpdatePendingInstallmentParams) (database.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.installments[arg.ID]
	if !ok || i.Status != enum.InstallmentStatusPending {
		return database.Installment{}, pgx.ErrNoRows
	}
	i.Amount = arg.Amount
	i.DueDate = arg.DueDate
	m.installments[i.ID] = i
	return i, nil
}

func (m *memStore) DeletePendingInstallment(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.installments[id]
	if !ok || i.Status != enum.InstallmentStatusPending {
		return 0, nil
	}
	delete(m.installments, id)
	return 1, nil
}

func (m *memStore) CreatePurchase(_ context.Context, arg database.CreatePurchaseParams) (database.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := database.Purchase{
		ID:          uuid.New(),
		UserID:      arg.UserID,
		ItemID:      arg.ItemID,
		Supplier:    arg.Supplier,
		Quantity:    arg.Quantity,
		UnitCost:    arg.UnitCost,
		TotalAmount: arg.TotalAmount,
		PaymentMode: arg.PaymentMode,
		Date:        arg.Date,
		Notes:       arg.Notes,
	}
	m.purchases = append(m.purchases, p)
	return p, nil
}

func (m *memStore) IncrementInventoryQuantity(_ context.Context, arg database.IncrementInventoryQuantityParams) (database.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[arg.ID]
	if !ok || i.UserID != arg.UserID {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	i.Quantity += arg.Quantity
	m.items[i.ID] = i
	return i, nil
}

func (m *memStore) DecrementInventoryQuantity(_ context.Context, arg database.DecrementInventoryQuantityParams) (database.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[arg.ID]
	if !ok || i.UserID != arg.UserID || i.Quantity < arg.Quantity {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	i.Quantity -= arg.Quantity
	m.items[i.ID] = i
	return i, nil
}

func (m *memStore) CreateDaybookEntry(_ context.Context, arg database.CreateDaybookEntryParams) (database.DaybookEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := database.DaybookEntry{
		ID:            uuid.New(),
		UserID:        arg.UserID,
		Type:          arg.Type,
		Amount:        arg.Amount,
		Description:   arg.Description,
		Category:      arg.Category,
		Status:        arg.Status,
		PaymentMode:   arg.PaymentMode,
		Date:          arg.Date,
		CustomerID:    arg.CustomerID,
		SaleID:        arg.SaleID,
		InstallmentID: arg.InstallmentID,
		PurchaseID:    arg.PurchaseID,
		StockID:       arg.StockID,
	}
	m.daybook = append(m.daybook, e)
	return e, nil
}

func (m *memStore) CreateLedgerEntry(_ context.Context, arg database.CreateLedgerEntryParams) (database.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := database.LedgerEntry{
		ID:              uuid.New(),
		UserID:          arg.UserID,
		Type:            arg.Type,
		Title:           arg.Title,
		Amount:          arg.Amount,
		TransactionType: arg.TransactionType,
		PaymentMethod:   arg.PaymentMethod,
		Date:            arg.Date,
	}
	m.ledger = append(m.ledger, e)
	return e, nil
}

// --- Test helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func numericEquals(t *testing.T, n pgtype.Numeric, expected string) bool {
	t.Helper()
	return numericToDecimal(n).Equal(dec(expected))
}

var fixedNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestSaleService(store *memStore) (*SaleService, *mockTxBeginner) {
	pool := &mockTxBeginner{tx: &mockTx{}}
	svc := NewSaleService(pool, func(db database.DBTX) SaleStore { return store })
	svc.now = func() time.Time { return fixedNow }
	return svc, pool
}

func newTestInstallmentService(store *memStore) (*InstallmentService, *mockTxBeginner) {
	pool := &mockTxBeginner{tx: &mockTx{}}
	svc := NewInstallmentService(pool, func(db database.DBTX) InstallmentStore { return store })
	svc.now = func() time.Time { return fixedNow }
	return svc, pool
}
