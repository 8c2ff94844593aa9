package billing

// BillRequest is the external create/update payload for a bill.
type BillRequest struct {
	CustomerID        *int64            `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	Items             []BillItemRequest `json:"items" validate:"required,min=1,dive"`
	DiscountAmount    float64           `json:"discount_amount" validate:"gte=0"`
	PaymentMethod     string            `json:"payment_method" validate:"required,oneof=cash card upi cheque credit"`
	InitialPaidAmount float64           `json:"initial_paid_amount" validate:"gte=0"`
	IdempotencyKey    string            `json:"idempotency_key,omitempty" validate:"omitempty,max=64"`
}

// BillItemRequest is one requested sale line.
type BillItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	TaxRate   float64 `json:"tax_rate" validate:"gte=0,lte=100"`
}

// RecordPaymentRequest is the external payload for recording a payment.
type RecordPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required,oneof=cash card upi cheque credit"`
}

// ListBillsRequest filters bill listings.
type ListBillsRequest struct {
	Status        *BillStatus `json:"status,omitempty"`
	PaymentStatus *string     `json:"payment_status,omitempty"`
	Limit         int         `json:"limit" validate:"gte=0,lte=500"`
	Offset        int         `json:"offset" validate:"gte=0"`
}
