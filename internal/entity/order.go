package domain

import (
	"errors"
	"time"
)

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCOD    PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentCOD
}

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPaid          PaymentStatus = "paid"
	PaymentFailed        PaymentStatus = "failed"
	PaymentNotApplicable PaymentStatus = "not_applicable"
)

type OrderStatus string

const (
	StatusPaymentPending OrderStatus = "payment_pending"
	StatusProcessing     OrderStatus = "processing"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
	StatusPaymentFailed  OrderStatus = "payment_failed"
	StatusPaymentIssue   OrderStatus = "payment_issue"
)

var orderStatuses = map[OrderStatus]struct{}{
	StatusPaymentPending: {},
	StatusProcessing:     {},
	StatusShipped:        {},
	StatusDelivered:      {},
	StatusCompleted:      {},
	StatusCancelled:      {},
	StatusPaymentFailed:  {},
	StatusPaymentIssue:   {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatuses[s]
	return ok
}

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidMethod = errors.New("invalid payment method")
	ErrInvalidTotal  = errors.New("total does not match items plus shipping")
)

// DraftItem is a single line of an order draft. Price is the effective
// (discounted) unit price in whole rupees, captured at submission time.
type DraftItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// OrderDraft is the payload submitted to the commerce backend. It is
// ephemeral: built per checkout submission and never stored.
type OrderDraft struct {
	Items           []DraftItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	ShippingCharge  int64           `json:"shippingCharge"`
	Total           int64           `json:"total"`
}

// Subtotal is the item sum without the shipping charge.
func (d OrderDraft) Subtotal() int64 {
	var sum int64
	for _, it := range d.Items {
		sum += it.Price * int64(it.Quantity)
	}
	return sum
}

// Validate enforces the draft invariants. The backend re-validates; this
// exists so a malformed draft never leaves the process.
func (d OrderDraft) Validate() error {
	if len(d.Items) == 0 {
		return ErrEmptyCart
	}
	if !d.PaymentMethod.Valid() {
		return ErrInvalidMethod
	}
	if err := d.ShippingAddress.Validate(); err != nil {
		return err
	}
	if d.Total != d.Subtotal()+d.ShippingCharge {
		return ErrInvalidTotal
	}
	return nil
}

// ProductSnapshot is the denormalized product view embedded in an order
// line as reported by the backend.
type ProductSnapshot struct {
	ID    string        `json:"_id"`
	Name  LocalizedName `json:"name"`
	Image string        `json:"image"`
}

type OrderItem struct {
	Product  ProductSnapshot `json:"productId"`
	Quantity int             `json:"quantity"`
	Price    int64           `json:"price"`
}

// Order is the server-owned projection. The storefront never derives
// authoritative state from it; it only reflects what the backend reports.
type Order struct {
	ID              string          `json:"_id"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentGateway  string          `json:"paymentGateway,omitempty"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	Status          OrderStatus     `json:"status"`
	ShippingCharge  int64           `json:"shippingCharge"`
	Total           int64           `json:"total"`
}
