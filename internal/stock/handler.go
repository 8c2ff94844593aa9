package stock

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/syedosmanali/bizpulse-erp/internal/platform/httpx"
	"github.com/syedosmanali/bizpulse-erp/internal/tenant"
)

// Handler exposes read endpoints for product stock.
type Handler struct {
	logger    *slog.Logger
	repo      *Repository
	snapshots *SnapshotCache
	threshold int64
}

// NewHandler constructs a Handler. threshold is the default low-stock floor.
func NewHandler(logger *slog.Logger, repo *Repository, snapshots *SnapshotCache, threshold int64) *Handler {
	return &Handler{logger: logger, repo: repo, snapshots: snapshots, threshold: threshold}
}

// MountRoutes registers stock routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/stock/low", h.lowStock)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenant.Resolve(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	product, err := h.repo.GetProduct(r.Context(), tenantID, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenant.Resolve(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	threshold := h.threshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		if parsed, perr := strconv.ParseInt(v, 10, 64); perr == nil && parsed >= 0 {
			threshold = parsed
		}
	}
	products, err := h.snapshots.LowStock(r.Context(), tenantID, threshold)
	if err != nil {
		h.logger.Error("low stock snapshot", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}
