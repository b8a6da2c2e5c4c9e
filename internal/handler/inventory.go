package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/enum"
	"github.com/zaryan/api/internal/matcher"
	"github.com/zaryan/api/internal/middleware"
)

// InventoryStore defines the database methods needed by inventory handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type InventoryStore interface {
	ListInventoryItems(ctx context.Context, arg database.ListInventoryItemsParams) ([]database.InventoryItem, error)
	ListAllInventoryItems(ctx context.Context, userID uuid.UUID) ([]database.InventoryItem, error)
	GetInventoryItem(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, arg database.UpdateInventoryItemParams) (database.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, arg database.DeleteInventoryItemParams) (uuid.UUID, error)
}

// InventoryHandler handles stock item endpoints.
type InventoryHandler struct {
	store  InventoryStore
	notify Notifier
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(store InventoryStore, notify Notifier) *InventoryHandler {
	return &InventoryHandler{store: store, notify: orNoop(notify)}
}

// RegisterRoutes registers inventory endpoints. Expected to be mounted at /inventory.
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/search", h.Search)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.With(middleware.RequireRole(enum.UserRoleOwner)).Delete("/", h.Delete)
	})
}

// --- Request / Response types ---

type inventoryItemRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Sku         string `json:"sku" validate:"omitempty,max=64"`
	Category    string `json:"category" validate:"omitempty,max=100"`
	Description string `json:"description"`
	Quantity    int32  `json:"quantity" validate:"min=0"`
	CostPrice   string `json:"cost_price" validate:"omitempty,money"`
	SalePrice   string `json:"sale_price" validate:"omitempty,money"`
}

type inventoryItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Sku         *string   `json:"sku"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	Quantity    int32     `json:"quantity"`
	CostPrice   string    `json:"cost_price"`
	SalePrice   string    `json:"sale_price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type inventorySearchResponse struct {
	Status     string                  `json:"status"`
	Item       *inventoryItemResponse  `json:"item,omitempty"`
	Candidates []inventoryItemResponse `json:"candidates,omitempty"`
}

func toInventoryItemResponse(i database.InventoryItem) inventoryItemResponse {
	return inventoryItemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Sku:         textOrNil(i.Sku),
		Category:    textOrNil(i.Category),
		Description: textOrNil(i.Description),
		Quantity:    i.Quantity,
		CostPrice:   numericToString(i.CostPrice),
		SalePrice:   numericToString(i.SalePrice),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// --- Handlers ---

// List returns items, filtered by ?search= and ?category=.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	limit, offset := parsePagination(r)

	items, err := h.store.ListInventoryItems(r.Context(), database.ListInventoryItemsParams{
		UserID:   userID,
		Search:   optionalText(r.URL.Query().Get("search")),
		Category: optionalText(r.URL.Query().Get("category")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeInternalError(w, "list inventory", err)
		return
	}

	resp := make([]inventoryItemResponse, len(items))
	for i, it := range items {
		resp[i] = toInventoryItemResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search resolves free text such as "haier 1.5 ton inverter" to one item,
// a list of ambiguous candidates, or nothing.
func (h *InventoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	items, err := h.store.ListAllInventoryItems(r.Context(), userID)
	if err != nil {
		writeInternalError(w, "list inventory for search", err)
		return
	}

	byID := make(map[uuid.UUID]database.InventoryItem, len(items))
	candidates := make([]matcher.Item, len(items))
	for i, it := range items {
		byID[it.ID] = it
		candidates[i] = matcher.Item{
			ID:       it.ID,
			Name:     it.Name,
			Sku:      it.Sku.String,
			Category: it.Category.String,
		}
	}

	result := matcher.New(candidates).Match(q)
	resp := inventorySearchResponse{Status: result.Status.String()}
	switch result.Status {
	case matcher.Matched:
		item := toInventoryItemResponse(byID[result.Item.ID])
		resp.Item = &item
	case matcher.Ambiguous:
		resp.Candidates = make([]inventoryItemResponse, len(result.Candidates))
		for i, c := range result.Candidates {
			resp.Candidates[i] = toInventoryItemResponse(byID[c.ID])
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single item by ID.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, chi.URLParam(r, "id"), "item")
	if !ok {
		return
	}

	item, err := h.store.GetInventoryItem(r.Context(), database.GetInventoryItemParams{ID: itemID, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		writeInternalError(w, "get inventory item", err)
		return
	}

	writeJSON(w, http.StatusOK, toInventoryItemResponse(item))
}

// Create adds a stock item.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	var req inventoryItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.store.CreateInventoryItem(r.Context(), database.CreateInventoryItemParams{
		UserID:      userID,
		Name:        req.Name,
		Sku:         optionalText(req.Sku),
		Category:    optionalText(req.Category),
		Description: optionalText(req.Description),
		Quantity:    req.Quantity,
		CostPrice:   decimalToNumeric(parseMoney(req.CostPrice)),
		SalePrice:   decimalToNumeric(parseMoney(req.SalePrice)),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "sku already exists")
			return
		}
		writeInternalError(w, "create inventory item", err)
		return
	}

	h.notify.Changed(r.Context(), userID, "", nil)
	writeJSON(w, http.StatusCreated, toInventoryItemResponse(item))
}

// Update replaces an item's details.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, chi.URLParam(r, "id"), "item")
	if !ok {
		return
	}
	var req inventoryItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.store.UpdateInventoryItem(r.Context(), database.UpdateInventoryItemParams{
		ID:          itemID,
		UserID:      userID,
		Name:        req.Name,
		Sku:         optionalText(req.Sku),
		Category:    optionalText(req.Category),
		Description: optionalText(req.Description),
		Quantity:    req.Quantity,
		CostPrice:   decimalToNumeric(parseMoney(req.CostPrice)),
		SalePrice:   decimalToNumeric(parseMoney(req.SalePrice)),
	})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "sku already exists")
			return
		}
		writeInternalError(w, "update inventory item", err)
		return
	}

	h.notify.Changed(r.Context(), userID, "", nil)
	writeJSON(w, http.StatusOK, toInventoryItemResponse(item))
}

// Delete removes an item that no sale or purchase references.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, chi.URLParam(r, "id"), "item")
	if !ok {
		return
	}

	_, err := h.store.DeleteInventoryItem(r.Context(), database.DeleteInventoryItemParams{ID: itemID, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "inventory item is referenced by sales or purchases")
			return
		}
		writeInternalError(w, "delete inventory item", err)
		return
	}

	h.notify.Changed(r.Context(), userID, "", nil)
	w.WriteHeader(http.StatusNoContent)
}
