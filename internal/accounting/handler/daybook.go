package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/enum"
	"github.com/zaryan/api/internal/service"
	"github.com/zaryan/api/internal/ws"
	"go.uber.org/zap"
)

// exportLimit caps the rows written to one spreadsheet.
const exportLimit = 10000

// --- Store interface ---

// DaybookStore defines the database methods needed by daybook handlers.
// Satisfied by *database.Queries.
type DaybookStore interface {
	service.JournalStore
	GetCustomer(ctx context.Context, arg database.GetCustomerParams) (database.Customer, error)
	GetInventoryItem(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error)
	GetDaybookEntry(ctx context.Context, arg database.GetDaybookEntryParams) (database.DaybookEntry, error)
	ListDaybookEntries(ctx context.Context, arg database.ListDaybookEntriesParams) ([]database.DaybookEntry, error)
	UpdateDaybookEntryMeta(ctx context.Context, arg database.UpdateDaybookEntryMetaParams) (database.DaybookEntry, error)
	DeleteDaybookEntry(ctx context.Context, arg database.DeleteDaybookEntryParams) error
}

// --- DaybookHandler ---

// DaybookHandler handles the income/expense journal.
type DaybookHandler struct {
	store  DaybookStore
	notify Notifier
	now    func() time.Time
}

// NewDaybookHandler creates a new DaybookHandler.
func NewDaybookHandler(store DaybookStore, notify Notifier) *DaybookHandler {
	return &DaybookHandler{store: store, notify: orNoop(notify), now: time.Now}
}

// RegisterRoutes registers daybook endpoints. Expected to be mounted at /daybook.
func (h *DaybookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/export", h.Export)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createDaybookRequest struct {
	Type        string `json:"type" validate:"required,oneof=income expense"`
	Amount      string `json:"amount" validate:"required,money_gt0"`
	Description string `json:"description" validate:"required,max=500"`
	Category    string `json:"category" validate:"omitempty,max=100"`
	Status      string `json:"status" validate:"omitempty,oneof=CLEARED PENDING VOID"`
	PaymentMode string `json:"payment_mode" validate:"omitempty,oneof=CASH BANK MOBILE"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	CustomerID  string `json:"customer_id" validate:"omitempty,uuid"`
	StockID     string `json:"stock_id" validate:"omitempty,uuid"`
}

type updateDaybookRequest struct {
	Description *string `json:"description" validate:"omitempty,min=1,max=500"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Status      *string `json:"status" validate:"omitempty,oneof=CLEARED PENDING VOID"`
}

type daybookEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Amount        string     `json:"amount"`
	Description   string     `json:"description"`
	Category      *string    `json:"category"`
	Status        string     `json:"status"`
	PaymentMode   *string    `json:"payment_mode"`
	Date          string     `json:"date"`
	CustomerID    *uuid.UUID `json:"customer_id"`
	SaleID        *uuid.UUID `json:"sale_id"`
	InstallmentID *uuid.UUID `json:"installment_id"`
	PurchaseID    *uuid.UUID `json:"purchase_id"`
	StockID       *uuid.UUID `json:"stock_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toDaybookEntryResponse(e database.DaybookEntry) daybookEntryResponse {
	return daybookEntryResponse{
		ID:            e.ID,
		Type:          e.Type,
		Amount:        numericToString(e.Amount),
		Description:   e.Description,
		Category:      textOrNil(e.Category),
		Status:        e.Status,
		PaymentMode:   textOrNil(e.PaymentMode),
		Date:          dateString(e.Date),
		CustomerID:    uuidOrNil(e.CustomerID),
		SaleID:        uuidOrNil(e.SaleID),
		InstallmentID: uuidOrNil(e.InstallmentID),
		PurchaseID:    uuidOrNil(e.PurchaseID),
		StockID:       uuidOrNil(e.StockID),
		CreatedAt:     e.CreatedAt,
	}
}

func toDaybookEntryResponses(entries []database.DaybookEntry) []daybookEntryResponse {
	resp := make([]daybookEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toDaybookEntryResponse(e)
	}
	return resp
}

// --- Handlers ---

// Create appends a manual daybook entry.
func (h *DaybookHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	var req createDaybookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := service.DaybookInput{
		UserID:      userID,
		Type:        req.Type,
		Amount:      parseMoney(req.Amount),
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		PaymentMode: req.PaymentMode,
		Date:        entryDate(req.Date, h.now()),
	}
	if req.CustomerID != "" {
		in.CustomerID = uuid.MustParse(req.CustomerID)
		if _, err := h.store.GetCustomer(r.Context(), database.GetCustomerParams{ID: in.CustomerID, UserID: userID}); err != nil {
			h.writeLinkError(w, "get linked customer", err, service.ErrCustomerNotFound)
			return
		}
	}
	if req.StockID != "" {
		in.StockID = uuid.MustParse(req.StockID)
		if _, err := h.store.GetInventoryItem(r.Context(), database.GetInventoryItemParams{ID: in.StockID, UserID: userID}); err != nil {
			h.writeLinkError(w, "get linked item", err, service.ErrItemNotFound)
			return
		}
	}

	entry, err := service.WriteDaybookEntry(r.Context(), h.store, in)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "linked customer or item does not exist")
			return
		}
		writeServiceError(w, "create daybook entry", err)
		return
	}

	resp := toDaybookEntryResponse(entry)
	h.notify.Changed(r.Context(), userID, ws.EventDaybookCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// writeLinkError answers a failed lookup of a customer or item the entry
// links to. Rows owned by another user read as missing.
func (h *DaybookHandler) writeLinkError(w http.ResponseWriter, op string, err, missing error) {
	if isNoRows(err) {
		writeError(w, http.StatusNotFound, missing.Error())
		return
	}
	writeInternalError(w, op, err)
}

// List returns daybook entries filtered by ?type=, ?category=, ?from= and ?to=.
func (h *DaybookHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	params, ok := daybookFilters(w, r, userID)
	if !ok {
		return
	}
	params.Limit, params.Offset = parsePagination(r)

	entries, err := h.store.ListDaybookEntries(r.Context(), params)
	if err != nil {
		writeInternalError(w, "list daybook entries", err)
		return
	}

	writeJSON(w, http.StatusOK, toDaybookEntryResponses(entries))
}

// Get returns a single daybook entry.
func (h *DaybookHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, chi.URLParam(r, "id"), "daybook entry")
	if !ok {
		return
	}

	entry, err := h.store.GetDaybookEntry(r.Context(), database.GetDaybookEntryParams{ID: id, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "daybook entry not found")
			return
		}
		writeInternalError(w, "get daybook entry", err)
		return
	}

	writeJSON(w, http.StatusOK, toDaybookEntryResponse(entry))
}

// Update changes the description, category or status of an entry. Amounts
// and links are fixed once written.
func (h *DaybookHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, chi.URLParam(r, "id"), "daybook entry")
	if !ok {
		return
	}
	var req updateDaybookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Description == nil && req.Category == nil && req.Status == nil {
		writeError(w, http.StatusBadRequest, service.ErrNothingToUpdate.Error())
		return
	}

	entry, err := h.store.UpdateDaybookEntryMeta(r.Context(), database.UpdateDaybookEntryMetaParams{
		ID:          id,
		UserID:      userID,
		Description: ptrToText(req.Description),
		Category:    ptrToText(req.Category),
		Status:      ptrToText(req.Status),
	})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "daybook entry not found")
			return
		}
		writeInternalError(w, "update daybook entry", err)
		return
	}

	h.notify.Changed(r.Context(), userID, "", nil)
	writeJSON(w, http.StatusOK, toDaybookEntryResponse(entry))
}

// Delete removes an entry unless it records an installment payment.
func (h *DaybookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, chi.URLParam(r, "id"), "daybook entry")
	if !ok {
		return
	}

	entry, err := h.store.GetDaybookEntry(r.Context(), database.GetDaybookEntryParams{ID: id, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "daybook entry not found")
			return
		}
		writeInternalError(w, "get daybook entry", err)
		return
	}
	if entry.InstallmentID.Valid {
		writeError(w, http.StatusBadRequest, "daybook entry is linked to an installment")
		return
	}

	if err := h.store.DeleteDaybookEntry(r.Context(), database.DeleteDaybookEntryParams{ID: id, UserID: userID}); err != nil {
		writeInternalError(w, "delete daybook entry", err)
		return
	}

	h.notify.Changed(r.Context(), userID, "", nil)
	w.WriteHeader(http.StatusNoContent)
}

// Export writes the filtered entries as an xlsx workbook.
func (h *DaybookHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	params, ok := daybookFilters(w, r, userID)
	if !ok {
		return
	}
	params.Limit = exportLimit

	entries, err := h.store.ListDaybookEntries(r.Context(), params)
	if err != nil {
		writeInternalError(w, "list daybook entries for export", err)
		return
	}

	f, err := buildDaybookWorkbook(entries)
	if err != nil {
		writeInternalError(w, "build daybook workbook", err)
		return
	}
	defer f.Close() //nolint:errcheck

	filename := fmt.Sprintf("daybook-%s.xlsx", h.now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(w); err != nil {
		zap.L().Error("write daybook workbook", zap.Error(err))
	}
}

const daybookSheet = "Daybook"

var daybookHeaders = []string{"Date", "Type", "Category", "Description", "Payment Mode", "Status", "Amount"}

// buildDaybookWorkbook lays out one row per entry followed by income and
// expense totals. VOID entries are listed but left out of the totals.
func buildDaybookWorkbook(entries []database.DaybookEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", daybookSheet); err != nil {
		return nil, err
	}

	for i, h := range daybookHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(daybookSheet, cell, h); err != nil {
			return nil, err
		}
	}

	income, expense := 0.0, 0.0
	for i, e := range entries {
		amount := numericToDecimal(e.Amount).InexactFloat64()
		row := []interface{}{
			dateString(e.Date),
			e.Type,
			e.Category.String,
			e.Description,
			e.PaymentMode.String,
			e.Status,
			amount,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(daybookSheet, cell, &row); err != nil {
			return nil, err
		}
		if e.Status == enum.DaybookStatusVoid {
			continue
		}
		if e.Type == enum.DaybookTypeIncome {
			income += amount
		} else {
			expense += amount
		}
	}

	totalsRow := len(entries) + 3
	totals := [][]interface{}{
		{"Total income", income},
		{"Total expense", expense},
		{"Net", income - expense},
	}
	for i, t := range totals {
		label, _ := excelize.CoordinatesToCellName(6, totalsRow+i)
		if err := f.SetSheetRow(daybookSheet, label, &t); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// daybookFilters builds the list/export filter from the query string.
func daybookFilters(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (database.ListDaybookEntriesParams, bool) {
	params := database.ListDaybookEntriesParams{UserID: userID}
	if t := r.URL.Query().Get("type"); t != "" {
		if t != enum.DaybookTypeIncome && t != enum.DaybookTypeExpense {
			writeError(w, http.StatusBadRequest, "type must be income or expense")
			return params, false
		}
		params.Type = pgtype.Text{String: t, Valid: true}
	}
	params.Category = queryText(r, "category")

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return params, false
	}
	params.StartDate, params.EndDate = from, to
	return params, true
}

func ptrToText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
