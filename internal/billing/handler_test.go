package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/syedosmanali/bizpulse-erp/internal/observability"
	"github.com/syedosmanali/bizpulse-erp/internal/tenant"
)

type staticResolver struct {
	keys map[string]int64
}

func (r staticResolver) TenantByAPIKey(ctx context.Context, apiKey string) (int64, error) {
	id, ok := r.keys[apiKey]
	if !ok {
		return 0, tenant.ErrUnknownAPIKey
	}
	return id, nil
}

func newTestServer(t *testing.T, repo *memRepo) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	handler := NewHandler(logger, newTestService(repo, newMemIdempotency()), observability.NewMetrics())

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(tenant.Middleware(staticResolver{keys: map[string]int64{"key-a": tenantA, "key-b": 99}}, logger))
		handler.MountRoutes(r)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, apiKey string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCreateBillEndpoint(t *testing.T) {
	repo := newMemRepo()
	seedCatalog(repo)
	srv := newTestServer(t, repo)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bills", "key-a", BillRequest{
		Items:         []BillItemRequest{{ProductID: 1, Quantity: 2, UnitPrice: 100, TaxRate: 10}},
		PaymentMethod: "cash",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var bill Bill
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bill))
	require.Equal(t, "BILL-000001", bill.Number)
	require.InDelta(t, 220, bill.TotalAmount, 0.001)
}

func TestCreateBillRequiresAPIKey(t *testing.T) {
	repo := newMemRepo()
	seedCatalog(repo)
	srv := newTestServer(t, repo)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bills", "", BillRequest{
		Items:         []BillItemRequest{{ProductID: 1, Quantity: 1, UnitPrice: 10}},
		PaymentMethod: "cash",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateBillValidation(t *testing.T) {
	repo := newMemRepo()
	seedCatalog(repo)
	srv := newTestServer(t, repo)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bills", "key-a", BillRequest{
		PaymentMethod: "cash",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetBillHiddenAcrossTenants(t *testing.T) {
	repo := newMemRepo()
	seedCatalog(repo)
	srv := newTestServer(t, repo)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bills", "key-a", BillRequest{
		Items:         []BillItemRequest{{ProductID: 1, Quantity: 1, UnitPrice: 10}},
		PaymentMethod: "cash",
	})
	var bill Bill
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bill))
	resp.Body.Close()

	url := fmt.Sprintf("%s/api/v1/bills/%d", srv.URL, bill.ID)

	resp = doJSON(t, http.MethodGet, url, "key-a", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, url, "key-b", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordPaymentEndpoint(t *testing.T) {
	repo := newMemRepo()
	seedCatalog(repo)
	srv := newTestServer(t, repo)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bills", "key-a", BillRequest{
		Items:         []BillItemRequest{{ProductID: 1, Quantity: 1, UnitPrice: 200}},
		PaymentMethod: "cash",
	})
	var bill Bill
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bill))
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/bills/%d/payments", srv.URL, bill.ID), "key-a",
		RecordPaymentRequest{Amount: 80, Method: "upi"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bill))
	require.EqualValues(t, "partial", bill.PaymentStatus)

	// Overpayment surfaces as a 400.
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/bills/%d/payments", srv.URL, bill.ID), "key-a",
		RecordPaymentRequest{Amount: 500, Method: "upi"})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteBillEndpoint(t *testing.T) {
	repo := newMemRepo()
	seedCatalog(repo)
	srv := newTestServer(t, repo)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bills", "key-a", BillRequest{
		Items:         []BillItemRequest{{ProductID: 1, Quantity: 1, UnitPrice: 10}},
		PaymentMethod: "cash",
	})
	var bill Bill
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bill))
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/bills/%d", srv.URL, bill.ID), "key-a", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, repo.state.bills)
}
