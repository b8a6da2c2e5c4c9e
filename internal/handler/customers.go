package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/enum"
	"github.com/zaryan/api/internal/middleware"
)

// CustomerStore defines the database methods needed by customer handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CustomerStore interface {
	ListCustomers(ctx context.Context, arg database.ListCustomersParams) ([]database.Customer, error)
	GetCustomer(ctx context.Context, arg database.GetCustomerParams) (database.Customer, error)
	CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
	UpdateCustomer(ctx context.Context, arg database.UpdateCustomerParams) (database.Customer, error)
	DeleteCustomer(ctx context.Context, arg database.DeleteCustomerParams) (uuid.UUID, error)
	ListSales(ctx context.Context, arg database.ListSalesParams) ([]database.ListSalesRow, error)
}

// CustomerHandler handles customer CRUD endpoints.
type CustomerHandler struct {
	store  CustomerStore
	notify Notifier
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(store CustomerStore, notify Notifier) *CustomerHandler {
	return &CustomerHandler{store: store, notify: orNoop(notify)}
}

// RegisterRoutes registers customer endpoints. Expected to be mounted at /customers.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.With(middleware.RequireRole(enum.UserRoleOwner)).Delete("/", h.Delete)
		r.Get("/sales", h.Sales)
	})
}

// --- Request / Response types ---

type customerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
	Cnic    string `json:"cnic" validate:"omitempty,max=32"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

type customerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email"`
	Cnic      *string   `json:"cnic"`
	Address   *string   `json:"address"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCustomerResponse(c database.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     textOrNil(c.Email),
		Cnic:      textOrNil(c.Cnic),
		Address:   textOrNil(c.Address),
		Notes:     textOrNil(c.Notes),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// --- Handlers ---

// List returns the caller's customers, with optional ?search= over name and phone.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	limit, offset := parsePagination(r)

	customers, err := h.store.ListCustomers(r.Context(), database.ListCustomersParams{
		UserID: userID,
		Search: optionalText(r.URL.Query().Get("search")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeInternalError(w, "list customers", err)
		return
	}

	resp := make([]customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = toCustomerResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single customer by ID.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	customerID, ok := parseIDParam(w, chi.URLParam(r, "id"), "customer")
	if !ok {
		return
	}

	customer, err := h.store.GetCustomer(r.Context(), database.GetCustomerParams{ID: customerID, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeInternalError(w, "get customer", err)
		return
	}

	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// Create adds a customer.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	var req customerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	customer, err := h.store.CreateCustomer(r.Context(), database.CreateCustomerParams{
		UserID:  userID,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   optionalText(req.Email),
		Cnic:    optionalText(req.Cnic),
		Address: optionalText(req.Address),
		Notes:   optionalText(req.Notes),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "phone already exists")
			return
		}
		writeInternalError(w, "create customer", err)
		return
	}

	h.notify.Changed(r.Context(), userID, "", nil)
	writeJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

// Update replaces a customer's details.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	customerID, ok := parseIDParam(w, chi.URLParam(r, "id"), "customer")
	if !ok {
		return
	}
	var req customerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	customer, err := h.store.UpdateCustomer(r.Context(), database.UpdateCustomerParams{
		ID:      customerID,
		UserID:  userID,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   optionalText(req.Email),
		Cnic:    optionalText(req.Cnic),
		Address: optionalText(req.Address),
		Notes:   optionalText(req.Notes),
	})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "phone already exists")
			return
		}
		writeInternalError(w, "update customer", err)
		return
	}

	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// Delete removes a customer that has no sales.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	customerID, ok := parseIDParam(w, chi.URLParam(r, "id"), "customer")
	if !ok {
		return
	}

	_, err := h.store.DeleteCustomer(r.Context(), database.DeleteCustomerParams{ID: customerID, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "customer has sales and cannot be deleted")
			return
		}
		writeInternalError(w, "delete customer", err)
		return
	}

	h.notify.Changed(r.Context(), userID, "", nil)
	w.WriteHeader(http.StatusNoContent)
}

// Sales lists the customer's sales with their repayment progress.
func (h *CustomerHandler) Sales(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	customerID, ok := parseIDParam(w, chi.URLParam(r, "id"), "customer")
	if !ok {
		return
	}

	if _, err := h.store.GetCustomer(r.Context(), database.GetCustomerParams{ID: customerID, UserID: userID}); err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeInternalError(w, "get customer for sales", err)
		return
	}

	limit, offset := parsePagination(r)
	rows, err := h.store.ListSales(r.Context(), database.ListSalesParams{
		UserID:     userID,
		CustomerID: pgtype.UUID{Bytes: customerID, Valid: true},
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeInternalError(w, "list customer sales", err)
		return
	}

	writeJSON(w, http.StatusOK, toSaleSummaries(rows))
}
