package payment

import "time"

// Status enumerates the derived payment state of a bill. The persisted
// enum is read directly by external reporting collaborators and must not
// grow values.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

// Method enumerates supported payment methods.
type Method string

const (
	MethodCash   Method = "cash"
	MethodCard   Method = "card"
	MethodUPI    Method = "upi"
	MethodCheque Method = "cheque"
	MethodCredit Method = "credit"
)

// Valid reports whether the method is one of the supported values.
func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodUPI, MethodCheque, MethodCredit:
		return true
	}
	return false
}

// Payment is one recorded payment event against a bill. A bill may
// accumulate several partial payments over time.
type Payment struct {
	ID          int64     `json:"id"`
	BillID      int64     `json:"bill_id"`
	Reference   string    `json:"reference"`
	Method      Method    `json:"method"`
	Amount      float64   `json:"amount"`
	ProcessedAt time.Time `json:"processed_at"`
}

// RecordInput describes a payment to apply against a bill.
type RecordInput struct {
	BillID      int64
	Amount      float64
	Method      Method
	TotalAmount float64
	PaidAmount  float64
}

// Result carries the recomputed payment state after a successful record.
type Result struct {
	Paid            float64
	Status          Status
	ChequeDeposited bool
}
