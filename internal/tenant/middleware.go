package tenant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syedosmanali/bizpulse-erp/internal/platform/httpx"
)

// Resolver looks up a tenant by its API key.
type Resolver interface {
	TenantByAPIKey(ctx context.Context, apiKey string) (int64, error)
}

// Repository resolves tenants from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrUnknownAPIKey indicates no tenant matches the presented key.
var ErrUnknownAPIKey = errors.New("tenant: unknown api key")

// TenantByAPIKey returns the tenant id owning the key.
func (r *Repository) TenantByAPIKey(ctx context.Context, apiKey string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM tenants WHERE api_key = $1`, apiKey).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUnknownAPIKey
		}
		return 0, err
	}
	return id, nil
}

// Middleware installs the caller's tenant into the request context.
// Requests without an identifiable tenant are rejected before reaching
// any handler.
func Middleware(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing api key")
				return
			}
			id, err := resolver.TenantByAPIKey(r.Context(), apiKey)
			if err != nil {
				if errors.Is(err, ErrUnknownAPIKey) {
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "unknown api key")
					return
				}
				logger.Error("resolve tenant", slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), id)))
		})
	}
}
