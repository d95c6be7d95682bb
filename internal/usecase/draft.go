package usecase

import domain "github.com/agrikart/storefront/internal/entity"

// BuildDraft assembles an order draft from the current cart, a shipping
// address and the chosen payment method. Pure computation: no side
// effects, and a validation failure means no network call is made.
func BuildDraft(items []domain.CartItem, addr domain.ShippingAddress, method domain.PaymentMethod, shipping ShippingPolicy) (domain.OrderDraft, error) {
	if len(items) == 0 {
		return domain.OrderDraft{}, domain.ErrEmptyCart
	}
	if !method.Valid() {
		return domain.OrderDraft{}, domain.ErrInvalidMethod
	}
	if err := addr.Validate(); err != nil {
		return domain.OrderDraft{}, err
	}

	lines := make([]domain.DraftItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, domain.DraftItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.DiscountedPrice,
		})
	}

	charge := shipping.ChargeFor(method)
	draft := domain.OrderDraft{
		Items:           lines,
		ShippingAddress: addr,
		PaymentMethod:   method,
		ShippingCharge:  charge,
		Total:           domain.CartSubtotal(items) + charge,
	}
	return draft, nil
}
