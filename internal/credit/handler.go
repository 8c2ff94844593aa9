package credit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/syedosmanali/bizpulse-erp/internal/platform/httpx"
	"github.com/syedosmanali/bizpulse-erp/internal/tenant"
)

// Handler exposes read endpoints for customer credit.
type Handler struct {
	repo *Repository
}

// NewHandler constructs a Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// MountRoutes registers credit routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customers/{customerID}/credit", h.getCredit)
	r.Get("/customers/{customerID}/credit/transactions", h.listTransactions)
}

type creditSummary struct {
	Customer     Customer      `json:"customer"`
	Transactions []Transaction `json:"transactions"`
}

func (h *Handler) getCredit(w http.ResponseWriter, r *http.Request) {
	tenantID, customerID, ok := h.params(w, r)
	if !ok {
		return
	}
	customer, err := h.repo.GetCustomer(r.Context(), tenantID, customerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	txs, err := h.repo.ListTransactions(r.Context(), tenantID, customerID, 20)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, creditSummary{Customer: customer, Transactions: txs})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	tenantID, customerID, ok := h.params(w, r)
	if !ok {
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, perr := strconv.Atoi(v); perr == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	txs, err := h.repo.ListTransactions(r.Context(), tenantID, customerID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txs)
}

func (h *Handler) params(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	tenantID, err := tenant.Resolve(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return 0, 0, false
	}
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil || customerID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer id")
		return 0, 0, false
	}
	return tenantID, customerID, true
}
