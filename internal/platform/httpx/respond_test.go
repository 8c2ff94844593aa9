package httpx

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

func TestProblemCarriesTypeURI(t *testing.T) {
	rec := httptest.NewRecorder()
	Problem(rec, 400, "Validation Failed", "quantity must be positive")

	var pd ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pd))
	require.Equal(t, "https://bizpulse.dev/problems/validation-failed", pd.Type)
	require.Equal(t, 400, pd.Status)
	require.Equal(t, "quantity must be positive", pd.Detail)
}

func TestRespondErrorMapsWrappedKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("billing: bill %w", shared.ErrNotFound), 404},
		{fmt.Errorf("%w: discount exceeds bill value", shared.ErrValidation), 400},
		{shared.ErrInsufficientStock, 400},
		{shared.ErrTenantMismatch, 403},
		{shared.ErrIdempotencyConflict, 409},
		{fmt.Errorf("boom"), 500},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code, "error %v", tc.err)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Amount float64 `json:"amount"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount": 5, "bogus": true}`))
	require.Error(t, DecodeJSON(req, &target))

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"amount": 5}`))
	require.NoError(t, DecodeJSON(req, &target))
	require.InDelta(t, 5, target.Amount, 0.001)
}
