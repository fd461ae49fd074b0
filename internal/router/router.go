package router

import (
	"net/http"

	"gm-economy-api/internal/handler"
	"gm-economy-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	WalletHandler   *handler.WalletHandler
	PurchaseHandler *handler.PurchaseHandler
	ShopHandler     *handler.ShopHandler
	AuthHandler     *handler.AuthHandler
	AdminHandler    *handler.AdminHandler
	AuthMiddleware  func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Host-Key", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/token", cfg.AuthHandler.GenerateToken)
					r.Post("/revoke", cfg.AuthHandler.RevokeToken)
				})
			}

			if cfg.WalletHandler != nil {
				r.Route("/wallets", func(r chi.Router) {
					r.Get("/{player_id}", cfg.WalletHandler.View)
					r.Post("/", cfg.WalletHandler.Create)
					r.Post("/reset", cfg.WalletHandler.Reset)
					r.Delete("/", cfg.WalletHandler.Delete)
				})
			}

			if cfg.PurchaseHandler != nil {
				r.Post("/purchases", cfg.PurchaseHandler.Purchase)
			}

			if cfg.ShopHandler != nil {
				r.Route("/shops/{catalog_id}", func(r chi.Router) {
					r.Put("/items/{item_id}", cfg.ShopHandler.UpsertItem)
					r.Delete("/items/{item_id}", cfg.ShopHandler.RemoveItem)
					r.Post("/config", cfg.ShopHandler.Configure)
					r.Post("/sync", cfg.ShopHandler.Sync)
				})
			}

			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Post("/sync", cfg.AdminHandler.ForceSync)
				})
			}
		})
	})

	return r
}
