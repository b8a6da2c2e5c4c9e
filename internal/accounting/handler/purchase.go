package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/service"
	"github.com/zaryan/api/internal/ws"
)

// --- Interfaces ---

// PurchaseServicer records purchases. Satisfied by *service.PurchaseService.
type PurchaseServicer interface {
	CreatePurchase(ctx context.Context, req service.CreatePurchaseRequest) (*service.CreatePurchaseResult, error)
}

// PurchaseStore defines the read queries needed by purchase handlers.
type PurchaseStore interface {
	GetPurchase(ctx context.Context, arg database.GetPurchaseParams) (database.Purchase, error)
	ListPurchases(ctx context.Context, arg database.ListPurchasesParams) ([]database.ListPurchasesRow, error)
}

// --- PurchaseHandler ---

// PurchaseHandler handles stock purchase endpoints.
type PurchaseHandler struct {
	svc    PurchaseServicer
	store  PurchaseStore
	notify Notifier
	now    func() time.Time
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(svc PurchaseServicer, store PurchaseStore, notify Notifier) *PurchaseHandler {
	return &PurchaseHandler{svc: svc, store: store, notify: orNoop(notify), now: time.Now}
}

// RegisterRoutes registers purchase endpoints. Expected to be mounted at /purchases.
func (h *PurchaseHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// --- Request / Response types ---

type createPurchaseRequest struct {
	ItemID      string `json:"item_id" validate:"required,uuid"`
	Supplier    string `json:"supplier" validate:"required,max=200"`
	Quantity    int32  `json:"quantity" validate:"required,min=1"`
	UnitCost    string `json:"unit_cost" validate:"required,money_gt0"`
	PaymentMode string `json:"payment_mode" validate:"required,oneof=CASH BANK MOBILE"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes       string `json:"notes" validate:"omitempty,max=1000"`
}

type purchaseResponse struct {
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"item_id"`
	ItemName    string    `json:"item_name,omitempty"`
	Supplier    string    `json:"supplier"`
	Quantity    int32     `json:"quantity"`
	UnitCost    string    `json:"unit_cost"`
	TotalAmount string    `json:"total_amount"`
	PaymentMode string    `json:"payment_mode"`
	Date        string    `json:"date"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

type createPurchaseResponse struct {
	Purchase     purchaseResponse     `json:"purchase"`
	StockOnHand  int32                `json:"stock_on_hand"`
	DaybookEntry daybookEntryResponse `json:"daybook_entry"`
	LedgerEntry  *ledgerEntryResponse `json:"ledger_entry"`
}

func toPurchaseResponse(p database.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:          p.ID,
		ItemID:      p.ItemID,
		Supplier:    p.Supplier,
		Quantity:    p.Quantity,
		UnitCost:    numericToString(p.UnitCost),
		TotalAmount: numericToString(p.TotalAmount),
		PaymentMode: p.PaymentMode,
		Date:        dateString(p.Date),
		Notes:       textOrNil(p.Notes),
		CreatedAt:   p.CreatedAt,
	}
}

// --- Handlers ---

// Create records a purchase, restocks the item and books the expense.
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	var req createPurchaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.CreatePurchase(r.Context(), service.CreatePurchaseRequest{
		UserID:      userID,
		ItemID:      uuid.MustParse(req.ItemID),
		Supplier:    req.Supplier,
		Quantity:    req.Quantity,
		UnitCost:    parseMoney(req.UnitCost),
		PaymentMode: req.PaymentMode,
		Date:        entryDate(req.Date, h.now()),
		Notes:       req.Notes,
	})
	if err != nil {
		writeServiceError(w, "create purchase", err)
		return
	}

	resp := createPurchaseResponse{
		Purchase:     toPurchaseResponse(result.Purchase),
		StockOnHand:  result.Item.Quantity,
		DaybookEntry: toDaybookEntryResponse(result.DaybookEntry),
	}
	resp.Purchase.ItemName = result.Item.Name
	if result.LedgerEntry != nil {
		e := toLedgerEntryResponse(*result.LedgerEntry)
		resp.LedgerEntry = &e
	}

	h.notify.Changed(r.Context(), userID, ws.EventPurchaseCreated, resp.Purchase)
	writeJSON(w, http.StatusCreated, resp)
}

// List returns purchases filtered by ?item_id=, ?from= and ?to=.
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	params := database.ListPurchasesParams{UserID: userID}
	if s := r.URL.Query().Get("item_id"); s != "" {
		id, ok := parseIDParam(w, s, "item")
		if !ok {
			return
		}
		params.ItemID = pgtype.UUID{Bytes: id, Valid: true}
	}
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}
	params.StartDate, params.EndDate = from, to
	params.Limit, params.Offset = parsePagination(r)

	rows, err := h.store.ListPurchases(r.Context(), params)
	if err != nil {
		writeInternalError(w, "list purchases", err)
		return
	}

	resp := make([]purchaseResponse, len(rows))
	for i, row := range rows {
		resp[i] = toPurchaseResponse(row.Purchase)
		resp[i].ItemName = row.ItemName
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single purchase.
func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, chi.URLParam(r, "id"), "purchase")
	if !ok {
		return
	}

	p, err := h.store.GetPurchase(r.Context(), database.GetPurchaseParams{ID: id, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "purchase not found")
			return
		}
		writeInternalError(w, "get purchase", err)
		return
	}

	writeJSON(w, http.StatusOK, toPurchaseResponse(p))
}
