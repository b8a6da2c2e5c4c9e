package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	accthandler "github.com/zaryan/api/internal/accounting/handler"
	"github.com/zaryan/api/internal/cache"
	"github.com/zaryan/api/internal/config"
	"github.com/zaryan/api/internal/database"
	"github.com/zaryan/api/internal/handler"
	"github.com/zaryan/api/internal/logger"
	mw "github.com/zaryan/api/internal/middleware"
	"github.com/zaryan/api/internal/notify"
	"github.com/zaryan/api/internal/service"
	"github.com/zaryan/api/internal/ws"
	"go.uber.org/zap"
)

// New creates a Chi router with all application routes wired up.
// Everything except /health, /auth/login, /auth/refresh and /ws requires a
// bearer token. c may be a disabled cache.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, c *cache.Cache) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(zap.L()))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	notifier := notify.New(hub, c)

	saleService := service.NewSaleService(pool, func(db database.DBTX) service.SaleStore {
		return database.New(db)
	})
	installmentService := service.NewInstallmentService(pool, func(db database.DBTX) service.InstallmentStore {
		return database.New(db)
	})
	purchaseService := service.NewPurchaseService(pool, func(db database.DBTX) service.PurchaseStore {
		return database.New(db)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Get("/auth/me", authHandler.Me)

		customerHandler := handler.NewCustomerHandler(queries, notifier)
		r.Route("/customers", customerHandler.RegisterRoutes)

		inventoryHandler := handler.NewInventoryHandler(queries, notifier)
		r.Route("/inventory", inventoryHandler.RegisterRoutes)

		saleHandler := handler.NewSaleHandler(saleService, queries, notifier)
		r.Route("/sales", saleHandler.RegisterRoutes)

		installmentHandler := handler.NewInstallmentHandler(installmentService, queries, notifier)
		r.Route("/installments", installmentHandler.RegisterRoutes)

		// Bookkeeping
		daybookHandler := accthandler.NewDaybookHandler(queries, notifier)
		r.Route("/daybook", daybookHandler.RegisterRoutes)

		ledgerHandler := accthandler.NewLedgerHandler(queries, notifier)
		r.Route("/ledger", ledgerHandler.RegisterRoutes)

		purchaseHandler := accthandler.NewPurchaseHandler(purchaseService, queries, notifier)
		r.Route("/purchases", purchaseHandler.RegisterRoutes)

		dashboardHandler := accthandler.NewDashboardHandler(queries, c)
		r.Route("/dashboard", dashboardHandler.RegisterRoutes)
	})

	zap.L().Info("router initialized")
	return r
}
