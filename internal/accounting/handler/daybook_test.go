package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/zaryan/api/internal/accounting/handler"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/enum"
	"github.com/zaryan/api/internal/ws"
)

// --- Mock store ---

type mockDaybookStore struct {
	entries   map[uuid.UUID]database.DaybookEntry
	order     []uuid.UUID
	listArg   database.ListDaybookEntriesParams
	customers map[uuid.UUID]uuid.UUID // customer id -> owner
	items     map[uuid.UUID]uuid.UUID // item id -> owner
}

func newMockDaybookStore() *mockDaybookStore {
	return &mockDaybookStore{
		entries:   make(map[uuid.UUID]database.DaybookEntry),
		customers: make(map[uuid.UUID]uuid.UUID),
		items:     make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockDaybookStore) GetCustomer(_ context.Context, arg database.GetCustomerParams) (database.Customer, error) {
	if owner, ok := m.customers[arg.ID]; !ok || owner != arg.UserID {
		return database.Customer{}, pgx.ErrNoRows
	}
	return database.Customer{ID: arg.ID, UserID: arg.UserID}, nil
}

func (m *mockDaybookStore) GetInventoryItem(_ context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
	if owner, ok := m.items[arg.ID]; !ok || owner != arg.UserID {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	return database.InventoryItem{ID: arg.ID, UserID: arg.UserID}, nil
}

func (m *mockDaybookStore) put(e database.DaybookEntry) database.DaybookEntry {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	m.entries[e.ID] = e
	m.order = append(m.order, e.ID)
	return e
}

func (m *mockDaybookStore) CreateDaybookEntry(_ context.Context, arg database.CreateDaybookEntryParams) (database.DaybookEntry, error) {
	return m.put(database.DaybookEntry{
		UserID:        arg.UserID,
		Type:          arg.Type,
		Amount:        arg.Amount,
		Description:   arg.Description,
		Category:      arg.Category,
		Status:        arg.Status,
		PaymentMode:   arg.PaymentMode,
		Date:          arg.Date,
		CustomerID:    arg.CustomerID,
		InstallmentID: arg.InstallmentID,
		StockID:       arg.StockID,
	}), nil
}

func (m *mockDaybookStore) CreateLedgerEntry(context.Context, database.CreateLedgerEntryParams) (database.LedgerEntry, error) {
	panic("not used by daybook handlers")
}

func (m *mockDaybookStore) GetDaybookEntry(_ context.Context, arg database.GetDaybookEntryParams) (database.DaybookEntry, error) {
	e, ok := m.entries[arg.ID]
	if !ok || e.UserID != arg.UserID {
		return database.DaybookEntry{}, pgx.ErrNoRows
	}
	return e, nil
}

func (m *mockDaybookStore) ListDaybookEntries(_ context.Context, arg database.ListDaybookEntriesParams) ([]database.DaybookEntry, error) {
	m.listArg = arg
	var out []database.DaybookEntry
	for _, id := range m.order {
		e, ok := m.entries[id]
		if !ok || e.UserID != arg.UserID {
			continue
		}
		if arg.Type.Valid && e.Type != arg.Type.String {
			continue
		}
		if arg.Category.Valid && e.Category.String != arg.Category.String {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockDaybookStore) UpdateDaybookEntryMeta(_ context.Context, arg database.UpdateDaybookEntryMetaParams) (database.DaybookEntry, error) {
	e, ok := m.entries[arg.ID]
	if !ok || e.UserID != arg.UserID {
		return database.DaybookEntry{}, pgx.ErrNoRows
	}
	if arg.Description.Valid {
		e.Description = arg.Description.String
	}
	if arg.Category.Valid {
		e.Category = arg.Category
	}
	if arg.Status.Valid {
		e.Status = arg.Status.String
	}
	m.entries[e.ID] = e
	return e, nil
}

func (m *mockDaybookStore) DeleteDaybookEntry(_ context.Context, arg database.DeleteDaybookEntryParams) error {
	if e, ok := m.entries[arg.ID]; ok && e.UserID == arg.UserID {
		delete(m.entries, arg.ID)
	}
	return nil
}

func newDaybookRouter(store *mockDaybookStore, notify *recordingNotifier) http.Handler {
	h := handler.NewDaybookHandler(store, notify)
	return authedRouter("/daybook", h.RegisterRoutes)
}

func pgDate(s string) pgtype.Date {
	t, _ := time.Parse("2006-01-02", s)
	return pgtype.Date{Time: t, Valid: true}
}

// --- Create ---

func TestDaybookCreate(t *testing.T) {
	store := newMockDaybookStore()
	notify := &recordingNotifier{}
	r := newDaybookRouter(store, notify)
	userID := uuid.New()

	rr := doAuthed(t, r, http.MethodPost, "/daybook", userID, map[string]string{
		"type":         "expense",
		"amount":       "1500.50",
		"description":  "Shop rent",
		"category":     "rent",
		"payment_mode": "CASH",
		"date":         "2026-03-01",
	})

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp := decodeResponse(t, rr)
	assert.Equal(t, "expense", resp["type"])
	assert.Equal(t, "1500.50", resp["amount"])
	assert.Equal(t, "rent", resp["category"])
	assert.Equal(t, enum.DaybookStatusCleared, resp["status"])
	assert.Equal(t, "2026-03-01", resp["date"])
	assert.Nil(t, resp["installment_id"])
	assert.Equal(t, []string{ws.EventDaybookCreated}, notify.events())
	assert.Len(t, store.entries, 1)
}

func TestDaybookCreate_LinksOwnCustomerAndItem(t *testing.T) {
	store := newMockDaybookStore()
	r := newDaybookRouter(store, &recordingNotifier{})
	userID := uuid.New()
	customerID, itemID := uuid.New(), uuid.New()
	store.customers[customerID] = userID
	store.items[itemID] = userID

	rr := doAuthed(t, r, http.MethodPost, "/daybook", userID, map[string]string{
		"type":        "income",
		"amount":      "500",
		"description": "Repair charge",
		"customer_id": customerID.String(),
		"stock_id":    itemID.String(),
	})

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp := decodeResponse(t, rr)
	assert.Equal(t, customerID.String(), resp["customer_id"])
	assert.Equal(t, itemID.String(), resp["stock_id"])
}

func TestDaybookCreate_RejectsOtherUsersLinks(t *testing.T) {
	userID, otherID := uuid.New(), uuid.New()
	foreignCustomer, foreignItem := uuid.New(), uuid.New()

	cases := []struct {
		name  string
		field string
		id    uuid.UUID
		want  string
	}{
		{"other user's customer", "customer_id", foreignCustomer, "customer not found"},
		{"other user's item", "stock_id", foreignItem, "inventory item not found"},
		{"unknown customer", "customer_id", uuid.New(), "customer not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMockDaybookStore()
			store.customers[foreignCustomer] = otherID
			store.items[foreignItem] = otherID
			notify := &recordingNotifier{}
			r := newDaybookRouter(store, notify)

			rr := doAuthed(t, r, http.MethodPost, "/daybook", userID, map[string]string{
				"type":        "income",
				"amount":      "500",
				"description": "Repair charge",
				tc.field:      tc.id.String(),
			})

			require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
			assert.Equal(t, tc.want, decodeResponse(t, rr)["error"])
			assert.Empty(t, store.entries)
			assert.Empty(t, notify.events())
		})
	}
}

func TestDaybookCreate_DefaultsDateToToday(t *testing.T) {
	store := newMockDaybookStore()
	r := newDaybookRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodPost, "/daybook", uuid.New(), map[string]string{
		"type":        "income",
		"amount":      "10",
		"description": "Misc income",
	})

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotEmpty(t, decodeResponse(t, rr)["date"])
}

func TestDaybookCreate_Validation(t *testing.T) {
	store := newMockDaybookStore()
	r := newDaybookRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodPost, "/daybook", uuid.New(), map[string]string{
		"type":        "transfer",
		"amount":      "10000000000.00",
		"description": "x",
		"date":        "01-03-2026",
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeResponse(t, rr)
	assert.Equal(t, "validation failed", resp["error"])
	assert.ElementsMatch(t, []string{"type", "amount", "date"}, detailFields(t, resp))
	assert.Empty(t, store.entries)
}

func TestDaybookCreate_BlankDescription(t *testing.T) {
	r := newDaybookRouter(newMockDaybookStore(), &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodPost, "/daybook", uuid.New(), map[string]string{
		"type":        "income",
		"amount":      "10",
		"description": "   ",
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "description is required", decodeResponse(t, rr)["error"])
}

// --- List / Get ---

func TestDaybookList_Filters(t *testing.T) {
	store := newMockDaybookStore()
	userID := uuid.New()
	store.put(database.DaybookEntry{UserID: userID, Type: "income", Amount: numeric("100"), Category: pgtype.Text{String: "sale", Valid: true}})
	store.put(database.DaybookEntry{UserID: userID, Type: "expense", Amount: numeric("40"), Category: pgtype.Text{String: "rent", Valid: true}})
	store.put(database.DaybookEntry{UserID: uuid.New(), Type: "income", Amount: numeric("999")})
	r := newDaybookRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodGet, "/daybook?type=income&from=2026-03-01&to=2026-03-31&limit=10", userID, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeList(t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, "100.00", list[0]["amount"])
	assert.Equal(t, pgDate("2026-03-01"), store.listArg.StartDate)
	assert.Equal(t, pgDate("2026-03-31"), store.listArg.EndDate)
	assert.Equal(t, int32(10), store.listArg.Limit)
}

func TestDaybookList_BadFilters(t *testing.T) {
	r := newDaybookRouter(newMockDaybookStore(), &recordingNotifier{})

	for _, q := range []string{"?type=transfer", "?from=yesterday", "?to=2026-13-40"} {
		rr := doAuthed(t, r, http.MethodGet, "/daybook"+q, uuid.New(), nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestDaybookGet_OtherUser(t *testing.T) {
	store := newMockDaybookStore()
	e := store.put(database.DaybookEntry{UserID: uuid.New(), Type: "income", Amount: numeric("1")})
	r := newDaybookRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodGet, "/daybook/"+e.ID.String(), uuid.New(), nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- Update ---

func TestDaybookUpdate_Metadata(t *testing.T) {
	store := newMockDaybookStore()
	userID := uuid.New()
	e := store.put(database.DaybookEntry{UserID: userID, Type: "expense", Amount: numeric("40"), Description: "Tea", Status: "CLEARED"})
	r := newDaybookRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodPatch, "/daybook/"+e.ID.String(), userID, map[string]string{
		"status":   "VOID",
		"category": "office",
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decodeResponse(t, rr)
	assert.Equal(t, "VOID", resp["status"])
	assert.Equal(t, "office", resp["category"])
	assert.Equal(t, "Tea", resp["description"])
	assert.Equal(t, "40.00", resp["amount"])
}

func TestDaybookUpdate_Rejects(t *testing.T) {
	store := newMockDaybookStore()
	userID := uuid.New()
	e := store.put(database.DaybookEntry{UserID: userID, Type: "expense", Amount: numeric("40")})
	r := newDaybookRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodPatch, "/daybook/"+e.ID.String(), userID, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "nothing to update", decodeResponse(t, rr)["error"])

	rr = doAuthed(t, r, http.MethodPatch, "/daybook/"+e.ID.String(), userID, map[string]string{"status": "LOST"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doAuthed(t, r, http.MethodPatch, "/daybook/"+uuid.NewString(), userID, map[string]string{"status": "VOID"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- Delete ---

func TestDaybookDelete(t *testing.T) {
	store := newMockDaybookStore()
	userID := uuid.New()
	e := store.put(database.DaybookEntry{UserID: userID, Type: "expense", Amount: numeric("40")})
	r := newDaybookRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodDelete, "/daybook/"+e.ID.String(), userID, nil)

	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, store.entries)
}

func TestDaybookDelete_InstallmentLinked(t *testing.T) {
	store := newMockDaybookStore()
	userID := uuid.New()
	e := store.put(database.DaybookEntry{
		UserID:        userID,
		Type:          "income",
		Amount:        numeric("200"),
		InstallmentID: pgtype.UUID{Bytes: uuid.New(), Valid: true},
	})
	r := newDaybookRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodDelete, "/daybook/"+e.ID.String(), userID, nil)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "daybook entry is linked to an installment", decodeResponse(t, rr)["error"])
	assert.Len(t, store.entries, 1)
}

// --- Export ---

func TestDaybookExport(t *testing.T) {
	store := newMockDaybookStore()
	userID := uuid.New()
	store.put(database.DaybookEntry{UserID: userID, Type: "income", Amount: numeric("1200"), Description: "Sale SALE-1", Status: "CLEARED", Date: pgDate("2026-03-15")})
	store.put(database.DaybookEntry{UserID: userID, Type: "expense", Amount: numeric("300"), Description: "Rent", Status: "CLEARED", Date: pgDate("2026-03-16")})
	store.put(database.DaybookEntry{UserID: userID, Type: "expense", Amount: numeric("50"), Description: "Typo", Status: "VOID", Date: pgDate("2026-03-16")})
	r := newDaybookRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodGet, "/daybook/export?limit=1", userID, nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "daybook-")
	assert.Greater(t, store.listArg.Limit, int32(1), "export ignores pagination")

	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Daybook")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, []string{"Date", "Type", "Category", "Description", "Payment Mode", "Status", "Amount"}, rows[0])
	assert.Equal(t, "2026-03-15", rows[1][0])
	assert.Equal(t, "Sale SALE-1", rows[1][3])
	assert.Equal(t, "1200", rows[1][6])

	income, err := f.GetCellValue("Daybook", "G6")
	require.NoError(t, err)
	assert.Equal(t, "1200", income)
	expense, err := f.GetCellValue("Daybook", "G7")
	require.NoError(t, err)
	assert.Equal(t, "300", expense)
	net, err := f.GetCellValue("Daybook", "G8")
	require.NoError(t, err)
	assert.Equal(t, "900", net)
}
