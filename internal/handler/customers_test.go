package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/handler"
)

// --- Mock store ---

type mockCustomerStore struct {
	customers map[uuid.UUID]database.Customer
	sales     []database.ListSalesRow
	withSales map[uuid.UUID]bool // customers referenced by a sale
}

func newMockCustomerStore() *mockCustomerStore {
	return &mockCustomerStore{
		customers: make(map[uuid.UUID]database.Customer),
		withSales: make(map[uuid.UUID]bool),
	}
}

func (m *mockCustomerStore) ListCustomers(_ context.Context, arg database.ListCustomersParams) ([]database.Customer, error) {
	var result []database.Customer
	for _, c := range m.customers {
		if c.UserID != arg.UserID {
			continue
		}
		if arg.Search.Valid {
			search := strings.ToLower(arg.Search.String)
			if !strings.Contains(strings.ToLower(c.Phone), search) && !strings.Contains(strings.ToLower(c.Name), search) {
				continue
			}
		}
		result = append(result, c)
	}
	return result, nil
}

func (m *mockCustomerStore) GetCustomer(_ context.Context, arg database.GetCustomerParams) (database.Customer, error) {
	c, ok := m.customers[arg.ID]
	if !ok || c.UserID != arg.UserID {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockCustomerStore) CreateCustomer(_ context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
	for _, c := range m.customers {
		if c.UserID == arg.UserID && c.Phone == arg.Phone {
			return database.Customer{}, &pgconn.PgError{Code: "23505"}
		}
	}
	c := database.Customer{
		ID:        uuid.New(),
		UserID:    arg.UserID,
		Name:      arg.Name,
		Phone:     arg.Phone,
		Email:     arg.Email,
		Cnic:      arg.Cnic,
		Address:   arg.Address,
		Notes:     arg.Notes,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.customers[c.ID] = c
	return c, nil
}

func (m *mockCustomerStore) UpdateCustomer(_ context.Context, arg database.UpdateCustomerParams) (database.Customer, error) {
	c, ok := m.customers[arg.ID]
	if !ok || c.UserID != arg.UserID {
		return database.Customer{}, pgx.ErrNoRows
	}
	for _, existing := range m.customers {
		if existing.ID != arg.ID && existing.UserID == arg.UserID && existing.Phone == arg.Phone {
			return database.Customer{}, &pgconn.PgError{Code: "23505"}
		}
	}
	c.Name = arg.Name
	c.Phone = arg.Phone
	c.Email = arg.Email
	c.Cnic = arg.Cnic
	c.Address = arg.Address
	c.Notes = arg.Notes
	c.UpdatedAt = time.Now()
	m.customers[c.ID] = c
	return c, nil
}

func (m *mockCustomerStore) DeleteCustomer(_ context.Context, arg database.DeleteCustomerParams) (uuid.UUID, error) {
	c, ok := m.customers[arg.ID]
	if !ok || c.UserID != arg.UserID {
		return uuid.Nil, pgx.ErrNoRows
	}
	if m.withSales[c.ID] {
		return uuid.Nil, &pgconn.PgError{Code: "23503"}
	}
	delete(m.customers, c.ID)
	return c.ID, nil
}

func (m *mockCustomerStore) ListSales(_ context.Context, arg database.ListSalesParams) ([]database.ListSalesRow, error) {
	var result []database.ListSalesRow
	for _, s := range m.sales {
		if s.UserID != arg.UserID {
			continue
		}
		if arg.CustomerID.Valid && s.CustomerID != uuid.UUID(arg.CustomerID.Bytes) {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *mockCustomerStore) seed(userID uuid.UUID, name, phone string) database.Customer {
	c := database.Customer{ID: uuid.New(), UserID: userID, Name: name, Phone: phone}
	m.customers[c.ID] = c
	return c
}

func newCustomerRouter(store *mockCustomerStore, notify *recordingNotifier) http.Handler {
	h := handler.NewCustomerHandler(store, notify)
	return authedRouter("/customers", h.RegisterRoutes)
}

// --- Tests ---

func TestCustomerCreate(t *testing.T) {
	store := newMockCustomerStore()
	notify := &recordingNotifier{}
	r := newCustomerRouter(store, notify)
	userID := uuid.New()

	rr := doAuthed(t, r, http.MethodPost, "/customers", userID, map[string]string{
		"name":  "Ayesha Khan",
		"phone": "03001234567",
		"cnic":  "35202-1234567-1",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["name"] != "Ayesha Khan" {
		t.Errorf("name: got %v", resp["name"])
	}
	if resp["cnic"] != "35202-1234567-1" {
		t.Errorf("cnic: got %v", resp["cnic"])
	}
	if resp["email"] != nil {
		t.Errorf("email: got %v, want null", resp["email"])
	}
	if len(notify.types()) != 1 {
		t.Errorf("notifications: got %d, want 1", len(notify.types()))
	}
}

func TestCustomerCreate_Validation(t *testing.T) {
	r := newCustomerRouter(newMockCustomerStore(), &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodPost, "/customers", uuid.New(), map[string]string{
		"name":  "No Phone",
		"email": "not-an-email",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rr)
	details, _ := resp["details"].([]interface{})
	if len(details) != 2 {
		t.Fatalf("details: got %v, want phone and email errors", resp["details"])
	}
}

func TestCustomerCreate_DuplicatePhone(t *testing.T) {
	store := newMockCustomerStore()
	userID := uuid.New()
	store.seed(userID, "First", "03001234567")
	r := newCustomerRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodPost, "/customers", userID, map[string]string{
		"name":  "Second",
		"phone": "03001234567",
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestCustomerList_ScopedToUser(t *testing.T) {
	store := newMockCustomerStore()
	alice, bob := uuid.New(), uuid.New()
	store.seed(alice, "Alice Customer", "0300")
	store.seed(bob, "Bob Customer", "0311")
	r := newCustomerRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodGet, "/customers", alice, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	list := decodeList(t, rr)
	if len(list) != 1 || list[0]["name"] != "Alice Customer" {
		t.Errorf("list: got %v", list)
	}
}

func TestCustomerGet_OtherUsersCustomer(t *testing.T) {
	store := newMockCustomerStore()
	c := store.seed(uuid.New(), "Hidden", "0300")
	r := newCustomerRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodGet, "/customers/"+c.ID.String(), uuid.New(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCustomerGet_InvalidID(t *testing.T) {
	r := newCustomerRouter(newMockCustomerStore(), &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodGet, "/customers/not-a-uuid", uuid.New(), nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCustomerUpdate(t *testing.T) {
	store := newMockCustomerStore()
	userID := uuid.New()
	c := store.seed(userID, "Old Name", "0300")
	r := newCustomerRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodPut, "/customers/"+c.ID.String(), userID, map[string]string{
		"name":    "New Name",
		"phone":   "0300",
		"address": "House 12, Street 4, Lahore",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["name"] != "New Name" || resp["address"] != "House 12, Street 4, Lahore" {
		t.Errorf("update not applied: %v", resp)
	}
}

func TestCustomerDelete(t *testing.T) {
	store := newMockCustomerStore()
	userID := uuid.New()
	c := store.seed(userID, "Gone", "0300")
	r := newCustomerRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodDelete, "/customers/"+c.ID.String(), userID, nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if _, ok := store.customers[c.ID]; ok {
		t.Error("customer should be deleted")
	}
}

func TestCustomerDelete_WithSales(t *testing.T) {
	store := newMockCustomerStore()
	userID := uuid.New()
	c := store.seed(userID, "Buyer", "0300")
	store.withSales[c.ID] = true
	r := newCustomerRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodDelete, "/customers/"+c.ID.String(), userID, nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCustomerSales(t *testing.T) {
	store := newMockCustomerStore()
	userID := uuid.New()
	c := store.seed(userID, "Buyer", "0300")
	other := store.seed(userID, "Other", "0311")
	store.sales = []database.ListSalesRow{
		{
			Sale: database.Sale{
				ID: uuid.New(), UserID: userID, CustomerID: c.ID, Reference: "SALE-1",
				TotalAmount: numeric("1200"), AdvanceAmount: numeric("200"), PaymentMode: "BANK", Duration: 5,
			},
			CustomerName:     "Buyer",
			ItemName:         "Haier Fridge",
			InstallmentCount: 5,
			PaidCount:        1,
			Outstanding:      numeric("800"),
		},
		{Sale: database.Sale{ID: uuid.New(), UserID: userID, CustomerID: other.ID, Reference: "SALE-2"}},
	}
	r := newCustomerRouter(store, &recordingNotifier{})

	rr := doAuthed(t, r, http.MethodGet, "/customers/"+c.ID.String()+"/sales", userID, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	list := decodeList(t, rr)
	if len(list) != 1 {
		t.Fatalf("sales: got %d, want 1", len(list))
	}
	if list[0]["reference"] != "SALE-1" || list[0]["outstanding"] != "800.00" || list[0]["total_amount"] != "1200.00" {
		t.Errorf("sale summary: got %v", list[0])
	}
}

func TestCustomers_Unauthenticated(t *testing.T) {
	r := newCustomerRouter(newMockCustomerStore(), &recordingNotifier{})

	rr := postJSON(t, r, "/customers", map[string]string{"name": "x", "phone": "y"})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
