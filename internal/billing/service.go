package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/syedosmanali/bizpulse-erp/internal/credit"
	"github.com/syedosmanali/bizpulse-erp/internal/payment"
	"github.com/syedosmanali/bizpulse-erp/internal/shared"
	"github.com/syedosmanali/bizpulse-erp/internal/stock"
	"github.com/syedosmanali/bizpulse-erp/internal/tenant"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards create retries.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service orchestrates the bill lifecycle: it validates requests,
// computes totals, and composes the stock ledger, credit ledger and
// payment tracker inside one transaction per operation. Any failure
// before commit rolls back every effect.
type Service struct {
	log         *slog.Logger
	repo        RepositoryPort
	stock       *stock.Ledger
	credit      *credit.Ledger
	tracker     *payment.Tracker
	idempotency IdempotencyPort
	audit       AuditPort
}

// NewService builds the invoice service.
func NewService(logger *slog.Logger, repo RepositoryPort, stockLedger *stock.Ledger, creditLedger *credit.Ledger, tracker *payment.Tracker, idem IdempotencyPort, audit AuditPort) *Service {
	return &Service{
		log:         logger,
		repo:        repo,
		stock:       stockLedger,
		credit:      creditLedger,
		tracker:     tracker,
		idempotency: idem,
		audit:       audit,
	}
}

func (s *Service) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return slog.Default()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// requireTenant rejects calls that arrive without a resolved tenant, so
// no operation ever runs against tenant id zero.
func requireTenant(tenantID int64) error {
	if tenantID == 0 {
		return fmt.Errorf("%w: tenant required", shared.ErrTenantMismatch)
	}
	return nil
}

type billTotals struct {
	subtotal float64
	tax      float64
	total    float64
	items    []BillItem
}

func (s *Service) computeTotals(req BillRequest) (billTotals, error) {
	if len(req.Items) == 0 {
		return billTotals{}, fmt.Errorf("%w: bill requires at least one item", shared.ErrValidation)
	}
	var t billTotals
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return billTotals{}, fmt.Errorf("%w: item quantity must be positive", shared.ErrValidation)
		}
		if it.UnitPrice < 0 {
			return billTotals{}, fmt.Errorf("%w: item unit price must not be negative", shared.ErrValidation)
		}
		if it.TaxRate < 0 || it.TaxRate > 100 {
			return billTotals{}, fmt.Errorf("%w: item tax rate out of range", shared.ErrValidation)
		}
		lineTotal := float64(it.Quantity) * it.UnitPrice
		t.subtotal += lineTotal
		t.tax += lineTotal * it.TaxRate / 100
		t.items = append(t.items, BillItem{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: round2(lineTotal),
			TaxRate:    it.TaxRate,
		})
	}
	if req.DiscountAmount < 0 {
		return billTotals{}, fmt.Errorf("%w: discount must not be negative", shared.ErrValidation)
	}
	t.subtotal = round2(t.subtotal)
	t.tax = round2(t.tax)
	if req.DiscountAmount > t.subtotal+t.tax {
		return billTotals{}, fmt.Errorf("%w: discount exceeds bill value", shared.ErrValidation)
	}
	t.total = round2(t.subtotal + t.tax - req.DiscountAmount)
	return t, nil
}

func (s *Service) resolveMethod(req BillRequest) (payment.Method, bool, error) {
	method := payment.Method(req.PaymentMethod)
	if !method.Valid() {
		return "", false, fmt.Errorf("%w: unknown payment method %q", shared.ErrValidation, req.PaymentMethod)
	}
	isCredit := method == payment.MethodCredit
	if isCredit && req.CustomerID == nil {
		return "", false, fmt.Errorf("%w: credit bills require a customer", shared.ErrValidation)
	}
	return method, isCredit, nil
}

// Create validates the request, computes totals, reserves stock per line
// item, records the initial payment state, books credit when the bill is
// credit-bearing and persists the bill — all in one transaction. A
// caller-supplied idempotency key guards retries: a rolled back create
// releases the key, a committed one keeps it so the retry conflicts.
func (s *Service) Create(ctx context.Context, tenantID int64, req BillRequest) (*Bill, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	method, isCredit, err := s.resolveMethod(req)
	if err != nil {
		return nil, err
	}
	totals, err := s.computeTotals(req)
	if err != nil {
		return nil, err
	}
	if req.InitialPaidAmount > 0 {
		if err := s.tracker.Validate(req.InitialPaidAmount, 0, totals.total); err != nil {
			return nil, err
		}
	}

	idemKey := ""
	if req.IdempotencyKey != "" && s.idempotency != nil {
		idemKey = fmt.Sprintf("billing:create:%d:%s", tenantID, req.IdempotencyKey)
		if err := s.idempotency.CheckAndInsert(ctx, idemKey, "billing"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, fmt.Errorf("%w: %w", shared.ErrConflict, err)
			}
			return nil, err
		}
	}

	var created Bill
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextBillNumber(ctx, tenantID)
		if err != nil {
			return err
		}
		for _, it := range totals.items {
			if err := s.stock.Reserve(ctx, tx.Stock(), tenantID, stock.ReserveInput{ProductID: it.ProductID, Quantity: it.Quantity}); err != nil {
				return err
			}
		}
		b := Bill{
			TenantID:       tenantID,
			Number:         number,
			CustomerID:     req.CustomerID,
			Subtotal:       totals.subtotal,
			TaxAmount:      totals.tax,
			DiscountAmount: round2(req.DiscountAmount),
			TotalAmount:    totals.total,
			PaymentMethod:  method,
			IsCredit:       isCredit,
			PaymentStatus:  payment.StatusUnpaid,
			Status:         BillStatusDraft,
		}
		if isCredit {
			b.CreditBalance = totals.total
		}
		id, err := tx.InsertBill(ctx, b)
		if err != nil {
			return err
		}
		b.ID = id
		if err := tx.InsertBillItems(ctx, id, totals.items); err != nil {
			return err
		}
		dirty := false
		if req.InitialPaidAmount > 0 {
			res, err := s.tracker.Record(ctx, tx.Payments(), payment.RecordInput{
				BillID:      id,
				Amount:      req.InitialPaidAmount,
				Method:      method,
				TotalAmount: totals.total,
				PaidAmount:  0,
			})
			if err != nil {
				return err
			}
			b.PaymentStatus = res.Status
			b.ChequeDeposited = res.ChequeDeposited
			if isCredit {
				b.CreditPaidAmount = round2(res.Paid)
				b.CreditBalance = round2(totals.total - res.Paid)
			}
			dirty = true
		}
		if isCredit && b.CreditBalance > 0 {
			if err := s.credit.Charge(ctx, tx.Credit(), tenantID, *req.CustomerID, id, b.CreditBalance); err != nil {
				return err
			}
		}
		if dirty {
			if err := tx.UpdateBill(ctx, b); err != nil {
				return err
			}
		}
		for i := range totals.items {
			totals.items[i].BillID = id
		}
		b.Items = totals.items
		created = b
		return nil
	})
	if err != nil {
		if idemKey != "" {
			_ = s.idempotency.Delete(ctx, idemKey)
		}
		return nil, err
	}
	s.recordAudit(ctx, tenantID, "billing:create", created.ID, map[string]any{
		"bill_number": created.Number,
		"total":       created.TotalAmount,
		"is_credit":   created.IsCredit,
	})
	return &created, nil
}

// Update replaces the line items and totals of a draft bill: old stock
// is released, new stock reserved, and the credit ledger adjusted by the
// outstanding delta, all inside one transaction. Finalized bills reject
// edits; they only accept payments and credit settlements.
func (s *Service) Update(ctx context.Context, tenantID, billID int64, req BillRequest) (*Bill, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	method, newIsCredit, err := s.resolveMethod(req)
	if err != nil {
		return nil, err
	}
	totals, err := s.computeTotals(req)
	if err != nil {
		return nil, err
	}

	var updated Bill
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := s.lockBill(ctx, tx, tenantID, billID)
		if err != nil {
			return err
		}
		if b.Status != BillStatusDraft {
			return ErrNotEditable
		}
		oldItems, err := tx.GetBillItems(ctx, billID)
		if err != nil {
			return err
		}
		for _, it := range oldItems {
			if err := s.stock.Release(ctx, tx.Stock(), tenantID, stock.ReleaseInput{ProductID: it.ProductID, Quantity: it.Quantity}); err != nil {
				return err
			}
		}
		for _, it := range totals.items {
			if err := s.stock.Reserve(ctx, tx.Stock(), tenantID, stock.ReserveInput{ProductID: it.ProductID, Quantity: it.Quantity}); err != nil {
				return err
			}
		}
		paid, err := tx.Payments().SumPayments(ctx, billID)
		if err != nil {
			return err
		}
		if err := s.checkPaidFits(paid, totals.total); err != nil {
			return err
		}

		oldOutstanding := 0.0
		if b.IsCredit {
			oldOutstanding = b.CreditBalance
		}
		newOutstanding := 0.0
		if newIsCredit {
			newOutstanding = round2(totals.total - paid)
		}
		sameCustomer := b.CustomerID != nil && req.CustomerID != nil && *b.CustomerID == *req.CustomerID
		switch {
		case b.IsCredit && newIsCredit && sameCustomer:
			if err := s.credit.Adjust(ctx, tx.Credit(), tenantID, *b.CustomerID, billID, round2(newOutstanding-oldOutstanding)); err != nil {
				return err
			}
		case b.IsCredit:
			if err := s.credit.Reverse(ctx, tx.Credit(), tenantID, *b.CustomerID, billID); err != nil {
				return err
			}
			if newIsCredit && newOutstanding > 0 {
				if err := s.credit.Charge(ctx, tx.Credit(), tenantID, *req.CustomerID, billID, newOutstanding); err != nil {
					return err
				}
			}
		case newIsCredit:
			if newOutstanding > 0 {
				if err := s.credit.Charge(ctx, tx.Credit(), tenantID, *req.CustomerID, billID, newOutstanding); err != nil {
					return err
				}
			}
		}

		if err := tx.DeleteBillItems(ctx, billID); err != nil {
			return err
		}
		if err := tx.InsertBillItems(ctx, billID, totals.items); err != nil {
			return err
		}

		b.CustomerID = req.CustomerID
		b.Subtotal = totals.subtotal
		b.TaxAmount = totals.tax
		b.DiscountAmount = round2(req.DiscountAmount)
		b.TotalAmount = totals.total
		b.PaymentMethod = method
		b.IsCredit = newIsCredit
		b.PaymentStatus = s.tracker.StatusFor(paid, totals.total)
		if newIsCredit {
			b.CreditPaidAmount = round2(paid)
			b.CreditBalance = newOutstanding
		} else {
			b.CreditPaidAmount = 0
			b.CreditBalance = 0
		}
		if err := tx.UpdateBill(ctx, b); err != nil {
			return err
		}
		for i := range totals.items {
			totals.items[i].BillID = billID
		}
		b.Items = totals.items
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, "billing:update", updated.ID, map[string]any{
		"bill_number": updated.Number,
		"total":       updated.TotalAmount,
	})
	return &updated, nil
}

// Delete reverses a bill: stock returns to its pre-creation level for
// every line item and the credit ledger is netted to zero, then the bill,
// its items and payments are removed. Fully paid bills are treated as
// non-revertible.
func (s *Service) Delete(ctx context.Context, tenantID, billID int64) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	var number string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := s.lockBill(ctx, tx, tenantID, billID)
		if err != nil {
			return err
		}
		if b.PaymentStatus == payment.StatusPaid {
			return fmt.Errorf("%w: paid bills cannot be deleted", shared.ErrValidation)
		}
		items, err := tx.GetBillItems(ctx, billID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := s.stock.Release(ctx, tx.Stock(), tenantID, stock.ReleaseInput{ProductID: it.ProductID, Quantity: it.Quantity}); err != nil {
				return err
			}
		}
		if b.IsCredit && b.CustomerID != nil {
			if err := s.credit.Reverse(ctx, tx.Credit(), tenantID, *b.CustomerID, billID); err != nil {
				return err
			}
		}
		number = b.Number
		return tx.DeleteBill(ctx, billID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "billing:delete", billID, map[string]any{"bill_number": number})
	return nil
}

// RecordPayment applies a payment event to a bill and recomputes its
// status. Credit bills additionally settle the customer's outstanding
// balance through the credit ledger.
func (s *Service) RecordPayment(ctx context.Context, tenantID, billID int64, amount float64, method payment.Method) (*Bill, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var out Bill
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := s.lockBill(ctx, tx, tenantID, billID)
		if err != nil {
			return err
		}
		paid, err := tx.Payments().SumPayments(ctx, billID)
		if err != nil {
			return err
		}
		res, err := s.tracker.Record(ctx, tx.Payments(), payment.RecordInput{
			BillID:      billID,
			Amount:      amount,
			Method:      method,
			TotalAmount: b.TotalAmount,
			PaidAmount:  paid,
		})
		if err != nil {
			return err
		}
		if b.IsCredit && b.CustomerID != nil {
			if err := s.credit.Settle(ctx, tx.Credit(), tenantID, *b.CustomerID, billID, amount, b.CreditBalance); err != nil {
				return err
			}
			b.CreditPaidAmount = round2(b.CreditPaidAmount + amount)
			b.CreditBalance = round2(b.TotalAmount - b.CreditPaidAmount)
		}
		b.PaymentStatus = res.Status
		if res.ChequeDeposited {
			b.ChequeDeposited = true
		}
		if err := tx.UpdateBill(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, "billing:payment", out.ID, map[string]any{
		"amount": amount,
		"method": string(method),
		"status": string(out.PaymentStatus),
	})
	return &out, nil
}

// ClearCheque is the external event hook that marks a deposited cheque
// as cleared, letting reporting count the bill's payments as revenue.
func (s *Service) ClearCheque(ctx context.Context, tenantID, billID int64) (*Bill, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var out Bill
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := s.lockBill(ctx, tx, tenantID, billID)
		if err != nil {
			return err
		}
		if !b.ChequeDeposited {
			return fmt.Errorf("%w: bill has no deposited cheque", shared.ErrValidation)
		}
		b.ChequeDeposited = false
		if err := tx.UpdateBill(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, "billing:cheque_clear", out.ID, nil)
	return &out, nil
}

// Finalize moves a draft bill out of its editable state.
func (s *Service) Finalize(ctx context.Context, tenantID, billID int64) (*Bill, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var out Bill
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := s.lockBill(ctx, tx, tenantID, billID)
		if err != nil {
			return err
		}
		if b.Status == BillStatusFinal {
			return fmt.Errorf("%w: bill already finalized", shared.ErrValidation)
		}
		b.Status = BillStatusFinal
		if err := tx.UpdateBill(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, "billing:finalize", out.ID, nil)
	return &out, nil
}

// Get loads a bill with its items.
func (s *Service) Get(ctx context.Context, tenantID, billID int64) (*Bill, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	return s.repo.GetBill(ctx, tenantID, billID)
}

// List returns bills for the tenant.
func (s *Service) List(ctx context.Context, tenantID int64, req ListBillsRequest) ([]Bill, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListBills(ctx, tenantID, req)
}

func (s *Service) lockBill(ctx context.Context, tx TxRepository, tenantID, billID int64) (Bill, error) {
	b, err := tx.GetBillForUpdate(ctx, billID)
	if err != nil {
		return Bill{}, err
	}
	if err := tenant.Authorize(tenantID, b.TenantID); err != nil {
		return Bill{}, err
	}
	return b, nil
}

func (s *Service) checkPaidFits(paid, total float64) error {
	if paid > total+payEpsilon {
		return fmt.Errorf("%w: recorded payments %.2f exceed new total %.2f", shared.ErrValidation, paid, total)
	}
	return nil
}

// recordAudit never fails the business operation, but a broken audit
// trail must not stay invisible either.
func (s *Service) recordAudit(ctx context.Context, tenantID int64, action string, billID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID,
		Action:   action,
		Entity:   "bill",
		EntityID: fmt.Sprintf("%d", billID),
		Meta:     meta,
	})
	if err != nil {
		s.logger().Warn("audit record failed",
			slog.String("action", action),
			slog.Int64("bill_id", billID),
			slog.Any("error", err))
	}
}

const payEpsilon = payment.DefaultEpsilon
