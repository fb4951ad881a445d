package api

import (
	"net/http"

	"payouts/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies holds the services behind the API
type Dependencies struct {
	Payouts            service.PayoutService
	CommissionSettings service.CommissionSettingService
	AllowedOrigins     []string
}

// NewRouter builds the HTTP router with all routes and middleware
func NewRouter(deps Dependencies) http.Handler {
	h := &handlers{
		payouts:  deps.Payouts,
		settings: deps.CommissionSettings,
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSONSuccess(w, "ok", nil)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", h.listPayouts)
			r.Post("/process", h.processMonth)
			r.Post("/bulk-confirm", h.bulkConfirm)
			r.Post("/{id}/confirm", h.confirmPayout)
			r.Post("/{id}/fail", h.failPayout)
			r.Delete("/{id}", h.deletePayout)
		})
		r.Get("/payout-runs/latest", h.latestRun)

		r.Route("/commission-settings", func(r chi.Router) {
			r.Get("/", h.listCommissionSettings)
			r.Post("/", h.createCommissionSetting)
			r.Put("/{id}", h.updateCommissionSetting)
			r.Delete("/{id}", h.deleteCommissionSetting)
		})
	})

	r.Route("/api/authors/{id}", func(r chi.Router) {
		r.Get("/payouts", h.authorPayouts)
		r.Get("/carry-over", h.authorCarryOver)
	})

	return r
}
