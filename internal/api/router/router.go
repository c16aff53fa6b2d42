package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/healthfirst/connect/internal/assistant"
	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/internal/catalog"
	httpmiddleware "github.com/healthfirst/connect/internal/http/middleware"
	"github.com/healthfirst/connect/internal/payments"
	"github.com/healthfirst/connect/internal/receipt"
	"github.com/healthfirst/connect/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	CatalogHandler     *catalog.Handler
	BookingHandler     *booking.Handler
	PaymentsHandler    *payments.Handler
	ReceiptHandler     *receipt.Handler
	AssistantHandler   *assistant.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	Auth httpmiddleware.AuthConfig
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, and the read-only catalog. The
	// catalog backs the landing page, which renders before sign-in.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.CatalogHandler != nil {
			public.Route("/catalog", func(r chi.Router) {
				r.Get("/services", cfg.CatalogHandler.ListServices)
				r.Get("/doctors", cfg.CatalogHandler.ListDoctors)
				r.Get("/slots", cfg.CatalogHandler.ListSlots)
			})
		}
	})

	// Everything else requires a signed-in patient.
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.UserAuth(cfg.Auth, cfg.Logger))

		if cfg.BookingHandler != nil {
			cfg.BookingHandler.Routes(private)
		}
		if cfg.PaymentsHandler != nil {
			private.Post("/payments/checkout", cfg.PaymentsHandler.Checkout)
		}
		if cfg.ReceiptHandler != nil {
			private.Get("/receipts/{transactionID}", cfg.ReceiptHandler.Get)
		}
		if cfg.AssistantHandler != nil {
			private.Post("/chat", cfg.AssistantHandler.Chat)
			private.Post("/suggestions", cfg.AssistantHandler.Suggest)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
