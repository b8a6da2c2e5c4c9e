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

// InstallmentServicer defines the service methods needed by installment handlers.
// Satisfied by *service.InstallmentService.
type InstallmentServicer interface {
	Pay(ctx context.Context, req service.PayInstallmentRequest) (*service.PayInstallmentResult, error)
	Update(ctx context.Context, req service.UpdateInstallmentRequest) (database.Installment, error)
	Delete(ctx context.Context, userID, installmentID uuid.UUID) error
}

// InstallmentStore defines the read queries needed by installment handlers.
type InstallmentStore interface {
	GetInstallment(ctx context.Context, arg database.GetInstallmentParams) (database.InstallmentWithSale, error)
	ListInstallments(ctx context.Context, arg database.ListInstallmentsParams) ([]database.InstallmentWithSale, error)
	ListDueInstallments(ctx context.Context, arg database.ListDueInstallmentsParams) ([]database.InstallmentWithSale, error)
}

// InstallmentHandler handles installment endpoints.
type InstallmentHandler struct {
	svc    InstallmentServicer
	store  InstallmentStore
	notify Notifier
	now    func() time.Time
}

// NewInstallmentHandler creates a new InstallmentHandler.
func NewInstallmentHandler(svc InstallmentServicer, store InstallmentStore, notify Notifier) *InstallmentHandler {
	return &InstallmentHandler{svc: svc, store: store, notify: orNoop(notify), now: time.Now}
}

// RegisterRoutes registers installment endpoints. Expected to be mounted at /installments.
func (h *InstallmentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/due", h.Due)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Pay)
	r.Put("/{id}", h.Update)
	r.With(middleware.RequireRole(enum.UserRoleOwner)).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type payInstallmentRequest struct {
	PaymentMode string `json:"payment_mode" validate:"required,oneof=CASH BANK MOBILE"`
}

type updateInstallmentRequest struct {
	Amount  *string `json:"amount" validate:"omitempty,money_gt0"`
	DueDate *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type installmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	SaleID      uuid.UUID  `json:"sale_id"`
	Amount      string     `json:"amount"`
	DueDate     string     `json:"due_date"`
	Status      string     `json:"status"`
	PaymentMode *string    `json:"payment_mode"`
	PaidAt      *time.Time `json:"paid_at"`
	PaidBy      *uuid.UUID `json:"paid_by"`
}

type installmentWithSaleResponse struct {
	installmentResponse
	SaleReference string    `json:"sale_reference"`
	CustomerID    uuid.UUID `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	Overdue       bool      `json:"overdue"`
}

type payInstallmentResponse struct {
	Installment   installmentResponse   `json:"installment"`
	SaleID        uuid.UUID             `json:"sale_id"`
	SaleReference string                `json:"sale_reference"`
	DaybookEntry  *daybookEntryResponse `json:"daybook_entry"`
	LedgerEntry   *ledgerEntryResponse  `json:"ledger_entry"`
}

func toInstallmentResponse(i database.Installment) installmentResponse {
	return installmentResponse{
		ID:          i.ID,
		SaleID:      i.SaleID,
		Amount:      numericToString(i.Amount),
		DueDate:     dateString(i.DueDate),
		Status:      i.Status,
		PaymentMode: textOrNil(i.PaymentMode),
		PaidAt:      timeOrNil(i.PaidAt),
		PaidBy:      uuidOrNil(i.PaidBy),
	}
}

func toInstallmentResponses(list []database.Installment) []installmentResponse {
	resp := make([]installmentResponse, len(list))
	for i, inst := range list {
		resp[i] = toInstallmentResponse(inst)
	}
	return resp
}

func (h *InstallmentHandler) toWithSaleResponses(list []database.InstallmentWithSale) []installmentWithSaleResponse {
	today := h.now().Format(dateLayout)
	resp := make([]installmentWithSaleResponse, len(list))
	for i, inst := range list {
		overdue := inst.Status == enum.InstallmentStatusPending &&
			inst.DueDate.Valid && dateString(inst.DueDate) < today
		resp[i] = installmentWithSaleResponse{
			installmentResponse: toInstallmentResponse(inst.Installment),
			SaleReference:       inst.SaleReference,
			CustomerID:          inst.CustomerID,
			CustomerName:        inst.CustomerName,
			Overdue:             overdue,
		}
	}
	return resp
}

// --- Handlers ---

// List returns installments, filtered by ?status= and ?sale_id=.
func (h *InstallmentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	params := database.ListInstallmentsParams{UserID: userID}
	if s := r.URL.Query().Get("status"); s != "" {
		if s != enum.InstallmentStatusPending && s != enum.InstallmentStatusPaid {
			writeError(w, http.StatusBadRequest, "status must be PENDING or PAID")
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("sale_id"); s != "" {
		id, ok := parseIDParam(w, s, "sale")
		if !ok {
			return
		}
		params.SaleID = pgtype.UUID{Bytes: id, Valid: true}
	}
	params.Limit, params.Offset = parsePagination(r)

	list, err := h.store.ListInstallments(r.Context(), params)
	if err != nil {
		writeInternalError(w, "list installments", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toWithSaleResponses(list))
}

// Due returns pending installments due today or earlier.
func (h *InstallmentHandler) Due(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	list, err := h.store.ListDueInstallments(r.Context(), database.ListDueInstallmentsParams{
		UserID: userID,
		AsOf:   asOfToday(h.now()),
	})
	if err != nil {
		writeInternalError(w, "list due installments", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toWithSaleResponses(list))
}

// Get returns a single installment with its sale reference.
func (h *InstallmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, chi.URLParam(r, "id"), "installment")
	if !ok {
		return
	}

	inst, err := h.store.GetInstallment(r.Context(), database.GetInstallmentParams{ID: id, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			writeError(w, http.StatusNotFound, "installment not found")
			return
		}
		writeInternalError(w, "get installment", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toWithSaleResponses([]database.InstallmentWithSale{inst})[0])
}

// Pay marks a pending installment as paid.
func (h *InstallmentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, chi.URLParam(r, "id"), "installment")
	if !ok {
		return
	}
	var req payInstallmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.Pay(r.Context(), service.PayInstallmentRequest{
		UserID:        userID,
		InstallmentID: id,
		PaymentMode:   req.PaymentMode,
	})
	if err != nil {
		writeServiceError(w, "pay installment", err)
		return
	}

	resp := payInstallmentResponse{
		Installment:   toInstallmentResponse(result.Installment),
		SaleID:        result.SaleID,
		SaleReference: result.SaleReference,
	}
	if result.DaybookEntry != nil {
		e := toDaybookEntryResponse(*result.DaybookEntry)
		resp.DaybookEntry = &e
	}
	if result.LedgerEntry != nil {
		e := toLedgerEntryResponse(*result.LedgerEntry)
		resp.LedgerEntry = &e
	}

	h.notify.Changed(r.Context(), userID, ws.EventInstallmentPaid, resp.Installment)
	writeJSON(w, http.StatusOK, resp)
}

// Update edits the amount and/or due date of a pending installment.
func (h *InstallmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, chi.URLParam(r, "id"), "installment")
	if !ok {
		return
	}
	var req updateInstallmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	svcReq := service.UpdateInstallmentRequest{UserID: userID, InstallmentID: id}
	if req.Amount != nil {
		amount := parseMoney(*req.Amount)
		svcReq.Amount = &amount
	}
	if req.DueDate != nil {
		due, err := time.Parse(dateLayout, *req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid due_date")
			return
		}
		svcReq.DueDate = &due
	}

	updated, err := h.svc.Update(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, "update installment", err)
		return
	}

	h.notify.Changed(r.Context(), userID, "", nil)
	writeJSON(w, http.StatusOK, toInstallmentResponse(updated))
}

// Delete removes a pending installment.
func (h *InstallmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, chi.URLParam(r, "id"), "installment")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, "delete installment", err)
		return
	}

	h.notify.Changed(r.Context(), userID, "", nil)
	w.WriteHeader(http.StatusNoContent)
}

// asOfToday is the calendar date of now, independent of its location.
func asOfToday(now time.Time) pgtype.Date {
	y, m, d := now.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}
