package usecase

import (
	"context"

	domain "github.com/agrikart/storefront/internal/entity"
)

// PaymentProbe is one poll result from the status-by-mtid endpoint.
type PaymentProbe struct {
	OrderID       string               `json:"orderId"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	Status        domain.OrderStatus   `json:"status"`
}

// CommerceGateway is the remote commerce backend. auth is the caller's
// bearer token, forwarded unchanged.
type CommerceGateway interface {
	InitiatePayment(ctx context.Context, auth string, draft domain.OrderDraft) (redirectURL string, err error)
	CreateOrder(ctx context.Context, auth string, draft domain.OrderDraft) (*domain.Order, error)
	StatusByMtid(ctx context.Context, auth, mtid string) (*PaymentProbe, error)
	OrderByID(ctx context.Context, auth, orderID string) (*domain.Order, error)
	MyOrders(ctx context.Context, auth string) ([]domain.Order, error)
	AllOrders(ctx context.Context, auth string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, auth, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

// CartStore holds the per-user cart. Clear must be idempotent.
type CartStore interface {
	Items(ctx context.Context, userID string) ([]domain.CartItem, error)
	Replace(ctx context.Context, userID string, items []domain.CartItem) error
	Clear(ctx context.Context, userID string) error
}

// StatusCache keeps the last status the storefront saw for an order.
type StatusCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}
