package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	domain "github.com/agrikart/storefront/internal/entity"
	"github.com/google/uuid"
)

type SubmitInput struct {
	UserID  string
	Auth    string
	Address domain.ShippingAddress
	Method  domain.PaymentMethod
}

type SubmitResult struct {
	// RedirectURL is set for online payments: the caller must perform a
	// full navigation to it, handing control to the external gateway.
	RedirectURL string
	// OrderID and Location are set for COD orders.
	OrderID  string
	Location string
}

// Checkout submits order drafts to the commerce backend and branches on
// payment method. Exactly one order-creating call goes out per accepted
// submission; concurrent submissions by the same user are rejected.
type Checkout struct {
	gw       CommerceGateway
	carts    CartStore
	shipping ShippingPolicy
	log      *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewCheckout(gw CommerceGateway, carts CartStore, shipping ShippingPolicy, log *slog.Logger) *Checkout {
	return &Checkout{
		gw:       gw,
		carts:    carts,
		shipping: shipping,
		log:      log,
		inFlight: map[string]struct{}{},
	}
}

func (c *Checkout) begin(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[userID]; busy {
		return false
	}
	c.inFlight[userID] = struct{}{}
	return true
}

func (c *Checkout) end(userID string) {
	c.mu.Lock()
	delete(c.inFlight, userID)
	c.mu.Unlock()
}

func (c *Checkout) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	if !c.begin(in.UserID) {
		return SubmitResult{}, ErrSubmissionInFlight
	}
	defer c.end(in.UserID)

	items, err := c.carts.Items(ctx, in.UserID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("load cart: %w", err)
	}

	draft, err := BuildDraft(items, in.Address, in.Method, c.shipping)
	if err != nil {
		return SubmitResult{}, err
	}

	subID := uuid.NewString()
	l := c.log.With("submission_id", subID, "user_id", in.UserID, "method", draft.PaymentMethod, "total", draft.Total)

	if draft.PaymentMethod == domain.PaymentOnline {
		return c.initiateOnline(ctx, l, in.Auth, draft)
	}
	return c.createCOD(ctx, l, in, draft)
}

func (c *Checkout) initiateOnline(ctx context.Context, l *slog.Logger, auth string, draft domain.OrderDraft) (SubmitResult, error) {
	redirect, err := c.gw.InitiatePayment(ctx, auth, draft)
	if err != nil {
		l.Error("payment initiation failed", "error", err)
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrPaymentInitiation, err)
	}
	if redirect == "" {
		l.Error("payment initiation returned no redirect url")
		return SubmitResult{}, fmt.Errorf("%w: backend returned no redirect url", ErrPaymentInitiation)
	}
	// Cart stays intact: no order exists until the gateway confirms.
	l.Info("payment initiated, redirecting to gateway")
	return SubmitResult{RedirectURL: redirect}, nil
}

func (c *Checkout) createCOD(ctx context.Context, l *slog.Logger, in SubmitInput, draft domain.OrderDraft) (SubmitResult, error) {
	// Forced server-side too; forcing here keeps a tampered client value
	// from ever leaving the process.
	draft.PaymentMethod = domain.PaymentCOD

	order, err := c.gw.CreateOrder(ctx, in.Auth, draft)
	if err != nil {
		l.Error("cod order creation failed", "error", err)
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrOrderCreation, err)
	}
	if order == nil || order.ID == "" {
		l.Error("cod order creation returned no order id")
		return SubmitResult{}, fmt.Errorf("%w: backend returned no order id", ErrOrderCreation)
	}

	if err := c.carts.Clear(ctx, in.UserID); err != nil {
		// The order exists; a stale cart is recoverable, failing the
		// submission is not.
		l.Warn("cart clear after cod order failed", "order_id", order.ID, "error", err)
	}

	l.Info("cod order created", "order_id", order.ID)
	return SubmitResult{
		OrderID:  order.ID,
		Location: "/order-success/" + order.ID,
	}, nil
}
