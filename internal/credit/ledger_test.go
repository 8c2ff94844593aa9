package credit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

type memoryCredit struct {
	customers map[int64]Customer
	txs       []Transaction
}

func newMemoryCredit() *memoryCredit {
	return &memoryCredit{customers: make(map[int64]Customer)}
}

func (m *memoryCredit) addCustomer(c Customer) {
	m.customers[c.ID] = c
}

func (m *memoryCredit) GetCustomerForUpdate(ctx context.Context, customerID int64) (Customer, error) {
	c, ok := m.customers[customerID]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	return c, nil
}

func (m *memoryCredit) InsertTransaction(ctx context.Context, t Transaction) error {
	m.txs = append(m.txs, t)
	return nil
}

func (m *memoryCredit) AdjustCustomerBalance(ctx context.Context, tenantID, customerID int64, balanceDelta, purchasesDelta float64) (float64, error) {
	c := m.customers[customerID]
	c.CurrentBalance += balanceDelta
	c.TotalPurchases += purchasesDelta
	m.customers[customerID] = c
	return c.CurrentBalance, nil
}

func (m *memoryCredit) BillNet(ctx context.Context, billID, customerID int64) (float64, error) {
	var net float64
	for _, t := range m.txs {
		if t.BillID == billID && t.CustomerID == customerID {
			net += t.Amount
		}
	}
	return net, nil
}

func (m *memoryCredit) ledgerSum(customerID int64) float64 {
	var sum float64
	for _, t := range m.txs {
		if t.CustomerID == customerID {
			sum += t.Amount
		}
	}
	return sum
}

func TestChargeAndSettle(t *testing.T) {
	repo := newMemoryCredit()
	repo.addCustomer(Customer{ID: 1, TenantID: 10})
	ledger := NewLedger()
	ctx := context.Background()

	require.NoError(t, ledger.Charge(ctx, repo, 10, 1, 100, 500))
	require.InDelta(t, 500, repo.customers[1].CurrentBalance, 0.001)
	require.InDelta(t, 500, repo.customers[1].TotalPurchases, 0.001)

	require.NoError(t, ledger.Settle(ctx, repo, 10, 1, 100, 200, 500))
	require.InDelta(t, 300, repo.customers[1].CurrentBalance, 0.001)
	// Settlement does not change total purchases.
	require.InDelta(t, 500, repo.customers[1].TotalPurchases, 0.001)

	// Balance always equals the signed sum of the ledger.
	require.InDelta(t, repo.customers[1].CurrentBalance, repo.ledgerSum(1), 0.001)
}

func TestSettleExceedingBillBalance(t *testing.T) {
	repo := newMemoryCredit()
	repo.addCustomer(Customer{ID: 1, TenantID: 10})
	ledger := NewLedger()
	ctx := context.Background()

	require.NoError(t, ledger.Charge(ctx, repo, 10, 1, 100, 500))
	err := ledger.Settle(ctx, repo, 10, 1, 100, 600, 500)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestChargeEnforcesCreditLimit(t *testing.T) {
	repo := newMemoryCredit()
	repo.addCustomer(Customer{ID: 1, TenantID: 10, CreditLimit: 400, CurrentBalance: 300})
	ledger := NewLedger()

	err := ledger.Charge(context.Background(), repo, 10, 1, 100, 200)
	require.ErrorIs(t, err, shared.ErrValidation)

	// A zero limit means unlimited credit.
	repo.addCustomer(Customer{ID: 2, TenantID: 10})
	require.NoError(t, ledger.Charge(context.Background(), repo, 10, 2, 101, 100000))
}

func TestAdjustBooksSignedDelta(t *testing.T) {
	repo := newMemoryCredit()
	repo.addCustomer(Customer{ID: 1, TenantID: 10})
	ledger := NewLedger()
	ctx := context.Background()

	require.NoError(t, ledger.Charge(ctx, repo, 10, 1, 100, 500))
	require.NoError(t, ledger.Adjust(ctx, repo, 10, 1, 100, -150))
	require.InDelta(t, 350, repo.customers[1].CurrentBalance, 0.001)

	require.NoError(t, ledger.Adjust(ctx, repo, 10, 1, 100, 50))
	require.InDelta(t, 400, repo.customers[1].CurrentBalance, 0.001)
	require.InDelta(t, repo.customers[1].CurrentBalance, repo.ledgerSum(1), 0.001)

	// A zero delta is a no-op, not a ledger entry.
	entries := len(repo.txs)
	require.NoError(t, ledger.Adjust(ctx, repo, 10, 1, 100, 0))
	require.Len(t, repo.txs, entries)
}

func TestReverseNetsBillToZero(t *testing.T) {
	repo := newMemoryCredit()
	repo.addCustomer(Customer{ID: 1, TenantID: 10})
	ledger := NewLedger()
	ctx := context.Background()

	require.NoError(t, ledger.Charge(ctx, repo, 10, 1, 100, 500))
	require.NoError(t, ledger.Settle(ctx, repo, 10, 1, 100, 200, 500))
	require.NoError(t, ledger.Reverse(ctx, repo, 10, 1, 100))

	net, err := repo.BillNet(ctx, 100, 1)
	require.NoError(t, err)
	require.InDelta(t, 0, net, 0.001)
	require.InDelta(t, 0, repo.customers[1].CurrentBalance, 0.001)
	require.InDelta(t, repo.customers[1].CurrentBalance, repo.ledgerSum(1), 0.001)
}

func TestTenantIsolation(t *testing.T) {
	repo := newMemoryCredit()
	repo.addCustomer(Customer{ID: 1, TenantID: 10})
	ledger := NewLedger()

	err := ledger.Charge(context.Background(), repo, 99, 1, 100, 500)
	require.ErrorIs(t, err, shared.ErrTenantMismatch)
	require.Empty(t, repo.txs)
}

func TestUnknownCustomer(t *testing.T) {
	repo := newMemoryCredit()
	ledger := NewLedger()

	err := ledger.Charge(context.Background(), repo, 10, 42, 100, 500)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
