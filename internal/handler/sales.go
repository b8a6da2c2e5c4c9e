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
	"github.com/zaryan/api/internal/service"
	"github.com/zaryan/api/internal/ws"
)

// SaleServicer defines the service methods needed by sale handlers.
// Satisfied by *service.SaleService.
type SaleServicer interface {
	CreateSale(ctx context.Context, req service.CreateSaleRequest) (*service.CreateSaleResult, error)
	UpdateSale(ctx context.Context, req service.UpdateSaleRequest) (database.Sale, error)
	DeleteSale(ctx context.Context, userID, saleID uuid.UUID) (database.Sale, error)
}

// SaleStore defines the read queries needed by sale handlers.
type SaleStore interface {
	GetSale(ctx context.Context, arg database.GetSaleParams) (database.Sale, error)
	ListSales(ctx context.Context, arg database.ListSalesParams) ([]database.ListSalesRow, error)
	ListInstallmentsBySale(ctx context.Context, saleID uuid.UUID) ([]database.Installment, error)
}

// SaleHandler handles installment sale endpoints.
type SaleHandler struct {
	svc    SaleServicer
	store  SaleStore
	notify Notifier
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(svc SaleServicer, store SaleStore, notify Notifier) *SaleHandler {
	return &SaleHandler{svc: svc, store: store, notify: orNoop(notify)}
}

// RegisterRoutes registers sale endpoints. Expected to be mounted at /sales.
func (h *SaleHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.With(middleware.RequireRole(enum.UserRoleOwner)).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createSaleRequest struct {
	CustomerID    string `json:"customer_id" validate:"required,uuid"`
	ItemID        string `json:"item_id" validate:"required,uuid"`
	TotalAmount   string `json:"total_amount" validate:"required,money_gt0"`
	AdvanceAmount string `json:"advance_amount" validate:"omitempty,money"`
	PaymentMode   string `json:"payment_mode" validate:"required,oneof=CASH BANK MOBILE"`
	Duration      int    `json:"duration" validate:"required,min=1,max=120"`
}

type updateSaleRequest struct {
	CustomerID *string `json:"customer_id" validate:"omitempty,uuid"`
	ItemID     *string `json:"item_id" validate:"omitempty,uuid"`
}

type saleResponse struct {
	ID            uuid.UUID `json:"id"`
	Reference     string    `json:"reference"`
	CustomerID    uuid.UUID `json:"customer_id"`
	ItemID        uuid.UUID `json:"item_id"`
	TotalAmount   string    `json:"total_amount"`
	AdvanceAmount string    `json:"advance_amount"`
	PaymentMode   string    `json:"payment_mode"`
	Duration      int32     `json:"duration"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type saleSummaryResponse struct {
	saleResponse
	CustomerName     string `json:"customer_name"`
	ItemName         string `json:"item_name"`
	InstallmentCount int64  `json:"installment_count"`
	PaidCount        int64  `json:"paid_count"`
	Outstanding      string `json:"outstanding"`
}

type saleDetailResponse struct {
	saleResponse
	Installments []installmentResponse `json:"installments"`
}

type createSaleResponse struct {
	Sale         saleResponse          `json:"sale"`
	Installments []installmentResponse `json:"installments"`
	DaybookEntry daybookEntryResponse  `json:"daybook_entry"`
	AdvanceEntry *daybookEntryResponse `json:"advance_entry"`
	LedgerEntry  *ledgerEntryResponse  `json:"ledger_entry"`
}

type daybookEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Category    *string   `json:"category"`
	Status      string    `json:"status"`
	PaymentMode *string   `json:"payment_mode"`
	Date        string    `json:"date"`
}

type ledgerEntryResponse struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Amount          string    `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	PaymentMethod   string    `json:"payment_method"`
	Date            string    `json:"date"`
}

func toSaleResponse(s database.Sale) saleResponse {
	return saleResponse{
		ID:            s.ID,
		Reference:     s.Reference,
		CustomerID:    s.CustomerID,
		ItemID:        s.ItemID,
		TotalAmount:   numericToString(s.TotalAmount),
		AdvanceAmount: numericToString(s.AdvanceAmount),
		PaymentMode:   s.PaymentMode,
		Duration:      s.Duration,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toSaleSummaries(rows []database.ListSalesRow) []saleSummaryResponse {
	resp := make([]saleSummaryResponse, len(rows))
	for i, row := range rows {
		resp[i] = saleSummaryResponse{
			saleResponse:     toSaleResponse(row.Sale),
			CustomerName:     row.CustomerName,
			ItemName:         row.ItemName,
			InstallmentCount: row.InstallmentCount,
			PaidCount:        row.PaidCount,
			Outstanding:      numericToString(row.Outstanding),
		}
	}
	return resp
}

func toDaybookEntryResponse(e database.DaybookEntry) daybookEntryResponse {
	return daybookEntryResponse{
		ID:          e.ID,
		Type:        e.Type,
		Amount:      numericToString(e.Amount),
		Description: e.Description,
		Category:    textOrNil(e.Category),
		Status:      e.Status,
		PaymentMode: textOrNil(e.PaymentMode),
		Date:        dateString(e.Date),
	}
}

func toLedgerEntryResponse(e database.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:              e.ID,
		Type:            e.Type,
		Title:           e.Title,
		Amount:          numericToString(e.Amount),
		TransactionType: e.TransactionType,
		PaymentMethod:   e.PaymentMethod,
		Date:            dateString(e.Date),
	}
}

func toCreateSaleResponse(res *service.CreateSaleResult) createSaleResponse {
	resp := createSaleResponse{
		Sale:         toSaleResponse(res.Sale),
		Installments: toInstallmentResponses(res.Installments),
		DaybookEntry: toDaybookEntryResponse(res.DaybookEntry),
	}
	if res.AdvanceEntry != nil {
		e := toDaybookEntryResponse(*res.AdvanceEntry)
		resp.AdvanceEntry = &e
	}
	if res.LedgerEntry != nil {
		e := toLedgerEntryResponse(*res.LedgerEntry)
		resp.LedgerEntry = &e
	}
	return resp
}

// --- Handlers ---

// Create records an installment sale together with its schedule and journal rows.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	var req createSaleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.CreateSale(r.Context(), service.CreateSaleRequest{
		UserID:        userID,
		CustomerID:    uuid.MustParse(req.CustomerID),
		ItemID:        uuid.MustParse(req.ItemID),
		TotalAmount:   parseMoney(req.TotalAmount),
		AdvanceAmount: parseMoney(req.AdvanceAmount),
		PaymentMode:   req.PaymentMode,
		Duration:      req.Duration,
	})
	if err != nil {
		writeServiceError(w, "create sale", err)
		return
	}

	resp := toCreateSaleResponse(result)
	h.notify.Changed(r.Context(), userID, ws.EventSaleCreated, resp.Sale)
	writeJSON(w, http.StatusCreated, resp)
}

// List returns sales newest first, optionally filtered by ?customer_id=.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	var customerID pgtype.UUID
	if s := r.URL.Query().Get("customer_id"); s != "" {
		id, ok := parseIDParam(w, s, "customer")
		if !ok {
			return
		}
		customerID = pgtype.UUID{Bytes: id, Valid: true}
	}
	limit, offset := parsePagination(r)

	rows, err := h.store.ListSales(r.Context(), database.ListSalesParams{
		UserID:     userID,
		CustomerID: customerID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeInternalError(w, "list sales", err)
		return
	}

	writeJSON(w, http.StatusOK, toSaleSummaries(rows))
}

// Get returns a sale with its installment schedule.
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	saleID, ok := parseIDParam(w, chi.URLParam(r, "id"), "sale")
	if !ok {
		return
	}

	sale, err := h.store.GetSale(r.Context(), database.GetSaleParams{ID: saleID, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "sale not found")
			return
		}
		writeInternalError(w, "get sale", err)
		return
	}

	installments, err := h.store.ListInstallmentsBySale(r.Context(), sale.ID)
	if err != nil {
		writeInternalError(w, "list sale installments", err)
		return
	}

	writeJSON(w, http.StatusOK, saleDetailResponse{
		saleResponse: toSaleResponse(sale),
		Installments: toInstallmentResponses(installments),
	})
}

// Update moves a sale to another customer or item while nothing is paid yet.
func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	saleID, ok := parseIDParam(w, chi.URLParam(r, "id"), "sale")
	if !ok {
		return
	}
	var req updateSaleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	svcReq := service.UpdateSaleRequest{UserID: userID, SaleID: saleID}
	if req.CustomerID != nil {
		id := uuid.MustParse(*req.CustomerID)
		svcReq.CustomerID = &id
	}
	if req.ItemID != nil {
		id := uuid.MustParse(*req.ItemID)
		svcReq.ItemID = &id
	}

	sale, err := h.svc.UpdateSale(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, "update sale", err)
		return
	}

	resp := toSaleResponse(sale)
	h.notify.Changed(r.Context(), userID, ws.EventSaleUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a sale that has no paid installments.
func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	saleID, ok := parseIDParam(w, chi.URLParam(r, "id"), "sale")
	if !ok {
		return
	}

	sale, err := h.svc.DeleteSale(r.Context(), userID, saleID)
	if err != nil {
		writeServiceError(w, "delete sale", err)
		return
	}

	h.notify.Changed(r.Context(), userID, ws.EventSaleDeleted, map[string]string{
		"id":        sale.ID.String(),
		"reference": sale.Reference,
	})
	w.WriteHeader(http.StatusNoContent)
}
