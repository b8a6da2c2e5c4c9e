package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/zaryan/api/internal/cache"
	"github.com/zaryan/api/internal/database"
	"go.uber.org/zap"
)

const (
	dashboardTTL    = 30 * time.Second
	recentEntryRows = 5
)

// --- Interfaces ---

// DashboardStore defines the aggregate queries behind the dashboard.
// Satisfied by *database.Queries.
type DashboardStore interface {
	SumDaybookByType(ctx context.Context, arg database.SumDaybookByTypeParams) (database.SumDaybookByTypeRow, error)
	GetInstallmentsSummary(ctx context.Context, arg database.GetInstallmentsSummaryParams) (database.GetInstallmentsSummaryRow, error)
	CountCustomers(ctx context.Context, userID uuid.UUID) (int64, error)
	GetInventoryValue(ctx context.Context, userID uuid.UUID) (pgtype.Numeric, error)
	GetLedgerBalances(ctx context.Context, userID uuid.UUID) ([]database.GetLedgerBalancesRow, error)
	ListRecentDaybookEntries(ctx context.Context, arg database.ListRecentDaybookEntriesParams) ([]database.DaybookEntry, error)
}

// DashboardCache holds computed dashboards. Satisfied by *cache.Cache.
type DashboardCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// --- DashboardHandler ---

// DashboardHandler serves the per-user summary.
type DashboardHandler struct {
	store DashboardStore
	cache DashboardCache
	now   func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler. c may be nil.
func NewDashboardHandler(store DashboardStore, c DashboardCache) *DashboardHandler {
	return &DashboardHandler{store: store, cache: c, now: time.Now}
}

// RegisterRoutes registers dashboard endpoints. Expected to be mounted at /dashboard.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.GetDashboard)
}

// --- Response types ---

type dashboardResponse struct {
	Period        string                  `json:"period"`
	Month         monthSummaryResponse    `json:"month"`
	Installments  installmentSummary      `json:"installments"`
	CustomerCount int64                   `json:"customer_count"`
	StockValue    string                  `json:"stock_value"`
	Balances      []ledgerBalanceResponse `json:"ledger_balances"`
	RecentEntries []daybookEntryResponse  `json:"recent_entries"`
	GeneratedAt   time.Time               `json:"generated_at"`
}

type monthSummaryResponse struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

type installmentSummary struct {
	PendingCount  int64  `json:"pending_count"`
	PendingAmount string `json:"pending_amount"`
	OverdueCount  int64  `json:"overdue_count"`
	DueTodayCount int64  `json:"due_today_count"`
}

type ledgerBalanceResponse struct {
	PaymentMethod string `json:"payment_method"`
	Balance       string `json:"balance"`
}

// --- Handler ---

// GetDashboard returns the summary, from cache when a fresh copy exists.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	key := cache.DashboardKey(userID)

	if h.cache != nil {
		var cached dashboardResponse
		hit, err := h.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			zap.L().Warn("read dashboard cache", zap.Error(err))
		}
		if hit {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	resp, err := h.build(ctx, userID)
	if err != nil {
		writeInternalError(w, "build dashboard", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(ctx, key, resp, dashboardTTL); err != nil {
			zap.L().Warn("write dashboard cache", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DashboardHandler) build(ctx context.Context, userID uuid.UUID) (dashboardResponse, error) {
	now := h.now()
	y, m, d := now.Date()
	today := pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
	monthStart := pgtype.Date{Time: time.Date(y, m, 1, 0, 0, 0, 0, time.UTC), Valid: true}

	sums, err := h.store.SumDaybookByType(ctx, database.SumDaybookByTypeParams{
		UserID:    userID,
		StartDate: monthStart,
		EndDate:   today,
	})
	if err != nil {
		return dashboardResponse{}, err
	}

	inst, err := h.store.GetInstallmentsSummary(ctx, database.GetInstallmentsSummaryParams{
		UserID: userID,
		Today:  today,
	})
	if err != nil {
		return dashboardResponse{}, err
	}

	customers, err := h.store.CountCustomers(ctx, userID)
	if err != nil {
		return dashboardResponse{}, err
	}

	stock, err := h.store.GetInventoryValue(ctx, userID)
	if err != nil {
		return dashboardResponse{}, err
	}

	balances, err := h.store.GetLedgerBalances(ctx, userID)
	if err != nil {
		return dashboardResponse{}, err
	}

	recent, err := h.store.ListRecentDaybookEntries(ctx, database.ListRecentDaybookEntriesParams{
		UserID: userID,
		Limit:  recentEntryRows,
	})
	if err != nil {
		return dashboardResponse{}, err
	}

	income := numericToDecimal(sums.Income)
	expense := numericToDecimal(sums.Expense)

	resp := dashboardResponse{
		Period: now.Format("2006-01"),
		Month: monthSummaryResponse{
			Income:  income.StringFixed(2),
			Expense: expense.StringFixed(2),
			Net:     income.Sub(expense).StringFixed(2),
		},
		Installments: installmentSummary{
			PendingCount:  inst.PendingCount,
			PendingAmount: numericToString(inst.PendingAmount),
			OverdueCount:  inst.OverdueCount,
			DueTodayCount: inst.DueTodayCount,
		},
		CustomerCount: customers,
		StockValue:    numericToString(stock),
		Balances:      make([]ledgerBalanceResponse, len(balances)),
		RecentEntries: toDaybookEntryResponses(recent),
		GeneratedAt:   now.UTC(),
	}
	for i, b := range balances {
		resp.Balances[i] = ledgerBalanceResponse{
			PaymentMethod: b.PaymentMethod,
			Balance:       numericToString(b.Balance),
		}
	}
	return resp, nil
}
