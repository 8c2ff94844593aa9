package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syedosmanali/bizpulse-erp/internal/billing"
	"github.com/syedosmanali/bizpulse-erp/internal/credit"
	"github.com/syedosmanali/bizpulse-erp/internal/observability"
	"github.com/syedosmanali/bizpulse-erp/internal/stock"
	"github.com/syedosmanali/bizpulse-erp/internal/tenant"
	"github.com/syedosmanali/bizpulse-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Pool           *pgxpool.Pool
	TenantResolver tenant.Resolver
	BillingHandler *billing.Handler
	StockHandler   *stock.Handler
	CreditHandler  *credit.Handler
	JobsHandler    *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with BizPulse defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(tenant.Middleware(params.TenantResolver, params.Logger))
		params.BillingHandler.MountRoutes(r)
		if params.StockHandler != nil {
			params.StockHandler.MountRoutes(r)
		}
		if params.CreditHandler != nil {
			params.CreditHandler.MountRoutes(r)
		}
	})

	return r
}
