package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/syedosmanali/bizpulse-erp/internal/observability"
	"github.com/syedosmanali/bizpulse-erp/internal/payment"
	"github.com/syedosmanali/bizpulse-erp/internal/platform/httpx"
	"github.com/syedosmanali/bizpulse-erp/internal/shared"
	"github.com/syedosmanali/bizpulse-erp/internal/tenant"
)

// Handler wires the JSON endpoints for the bill lifecycle.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	metrics  *observability.Metrics
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		metrics:  metrics,
	}
}

// MountRoutes registers billing routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/bills", func(r chi.Router) {
		r.Post("/", h.createBill)
		r.Get("/", h.listBills)
		r.Get("/{billID}", h.getBill)
		r.Put("/{billID}", h.updateBill)
		r.Delete("/{billID}", h.deleteBill)
		r.Post("/{billID}/payments", h.recordPayment)
		r.Post("/{billID}/finalize", h.finalizeBill)
		r.Post("/{billID}/clear-cheque", h.clearCheque)
	})
}

func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenant.Resolve(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req BillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	bill, err := h.service.Create(r.Context(), tenantID, req)
	if err != nil {
		h.metrics.ObserveBill("create", "error")
		h.logError(r, "create bill", err)
		httpx.RespondError(w, err)
		return
	}
	h.metrics.ObserveBill("create", "ok")
	httpx.JSON(w, http.StatusCreated, bill)
}

func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenant.Resolve(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ListBillsRequest
	if v := r.URL.Query().Get("status"); v != "" {
		st := BillStatus(v)
		req.Status = &st
	}
	if v := r.URL.Query().Get("payment_status"); v != "" {
		req.PaymentStatus = &v
	}
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	req.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	bills, err := h.service.List(r.Context(), tenantID, req)
	if err != nil {
		h.logError(r, "list bills", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bills)
}

func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	tenantID, billID, ok := h.billParams(w, r)
	if !ok {
		return
	}
	bill, err := h.service.Get(r.Context(), tenantID, billID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logError(r, "get bill", err)
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) updateBill(w http.ResponseWriter, r *http.Request) {
	tenantID, billID, ok := h.billParams(w, r)
	if !ok {
		return
	}
	var req BillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	bill, err := h.service.Update(r.Context(), tenantID, billID, req)
	if err != nil {
		h.metrics.ObserveBill("update", "error")
		h.logError(r, "update bill", err)
		httpx.RespondError(w, err)
		return
	}
	h.metrics.ObserveBill("update", "ok")
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) deleteBill(w http.ResponseWriter, r *http.Request) {
	tenantID, billID, ok := h.billParams(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), tenantID, billID); err != nil {
		h.metrics.ObserveBill("delete", "error")
		h.logError(r, "delete bill", err)
		httpx.RespondError(w, err)
		return
	}
	h.metrics.ObserveBill("delete", "ok")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	tenantID, billID, ok := h.billParams(w, r)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	bill, err := h.service.RecordPayment(r.Context(), tenantID, billID, req.Amount, payment.Method(req.Method))
	if err != nil {
		h.logError(r, "record payment", err)
		httpx.RespondError(w, err)
		return
	}
	h.metrics.ObservePayment(req.Method)
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) finalizeBill(w http.ResponseWriter, r *http.Request) {
	tenantID, billID, ok := h.billParams(w, r)
	if !ok {
		return
	}
	bill, err := h.service.Finalize(r.Context(), tenantID, billID)
	if err != nil {
		h.logError(r, "finalize bill", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) clearCheque(w http.ResponseWriter, r *http.Request) {
	tenantID, billID, ok := h.billParams(w, r)
	if !ok {
		return
	}
	bill, err := h.service.ClearCheque(r.Context(), tenantID, billID)
	if err != nil {
		h.logError(r, "clear cheque", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) billParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	tenantID, err := tenant.Resolve(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return 0, 0, false
	}
	billID, err := strconv.ParseInt(chi.URLParam(r, "billID"), 10, 64)
	if err != nil || billID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid bill id")
		return 0, 0, false
	}
	return tenantID, billID, true
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrTenantMismatch),
		errors.Is(err, shared.ErrInsufficientStock),
		errors.Is(err, shared.ErrConflict):
		h.logger.Debug(msg, slog.String("path", r.URL.Path), slog.Any("error", err))
	default:
		h.logger.Error(msg, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}
