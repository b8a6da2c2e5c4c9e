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
	"github.com/zaryan/api/internal/service"
	"github.com/zaryan/api/internal/ws"
)

// LedgerStore defines the database methods needed by ledger handlers.
// Satisfied by *database.Queries.
type LedgerStore interface {
	service.JournalStore
	GetLedgerEntry(ctx context.Context, arg database.GetLedgerEntryParams) (database.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, arg database.ListLedgerEntriesParams) ([]database.LedgerEntry, error)
}

// LedgerHandler handles the append-only ledger of bank-mediated movements.
type LedgerHandler struct {
	store  LedgerStore
	notify Notifier
	now    func() time.Time
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(store LedgerStore, notify Notifier) *LedgerHandler {
	return &LedgerHandler{store: store, notify: orNoop(notify), now: time.Now}
}

// RegisterRoutes registers ledger endpoints. Expected to be mounted at /ledger.
func (h *LedgerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

type createLedgerRequest struct {
	Type            string `json:"type" validate:"omitempty,max=50"`
	Title           string `json:"title" validate:"required,max=200"`
	Amount          string `json:"amount" validate:"required,money_gt0"`
	TransactionType string `json:"transaction_type" validate:"required,oneof=CREDIT DEBIT"`
	PaymentMethod   string `json:"payment_method" validate:"required,oneof=CASH BANK MOBILE"`
	Date            string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type ledgerEntryResponse struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Amount          string    `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	PaymentMethod   string    `json:"payment_method"`
	Date            string    `json:"date"`
	CreatedAt       time.Time `json:"created_at"`
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
		CreatedAt:       e.CreatedAt,
	}
}

// Create appends a manual ledger entry.
func (h *LedgerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	var req createLedgerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := service.WriteLedgerEntry(r.Context(), h.store, service.LedgerInput{
		UserID:          userID,
		Type:            req.Type,
		Title:           req.Title,
		Amount:          parseMoney(req.Amount),
		TransactionType: req.TransactionType,
		PaymentMethod:   req.PaymentMethod,
		Date:            entryDate(req.Date, h.now()),
	})
	if err != nil {
		writeServiceError(w, "create ledger entry", err)
		return
	}

	resp := toLedgerEntryResponse(entry)
	h.notify.Changed(r.Context(), userID, ws.EventLedgerCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List returns ledger entries filtered by ?transaction_type=,
// ?payment_method=, ?from= and ?to=.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	params := database.ListLedgerEntriesParams{UserID: userID}
	if t := r.URL.Query().Get("transaction_type"); t != "" {
		if t != enum.TransactionTypeCredit && t != enum.TransactionTypeDebit {
			writeError(w, http.StatusBadRequest, "transaction_type must be CREDIT or DEBIT")
			return
		}
		params.TransactionType = pgtype.Text{String: t, Valid: true}
	}
	if m := r.URL.Query().Get("payment_method"); m != "" {
		if m != enum.PaymentModeCash && m != enum.PaymentModeBank && m != enum.PaymentModeMobile {
			writeError(w, http.StatusBadRequest, "payment_method must be CASH, BANK or MOBILE")
			return
		}
		params.PaymentMethod = pgtype.Text{String: m, Valid: true}
	}
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}
	params.StartDate, params.EndDate = from, to
	params.Limit, params.Offset = parsePagination(r)

	entries, err := h.store.ListLedgerEntries(r.Context(), params)
	if err != nil {
		writeInternalError(w, "list ledger entries", err)
		return
	}

	resp := make([]ledgerEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toLedgerEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single ledger entry.
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, chi.URLParam(r, "id"), "ledger entry")
	if !ok {
		return
	}

	entry, err := h.store.GetLedgerEntry(r.Context(), database.GetLedgerEntryParams{ID: id, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "ledger entry not found")
			return
		}
		writeInternalError(w, "get ledger entry", err)
		return
	}

	writeJSON(w, http.StatusOK, toLedgerEntryResponse(entry))
}
