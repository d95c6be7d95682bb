package domain

// LocalizedName carries the bilingual display name used by the storefront.
type LocalizedName struct {
	En string `json:"en"`
	Mr string `json:"mr"`
}

// CartItem lives in the per-user cart. DiscountedPrice is the unit price
// the customer actually pays.
type CartItem struct {
	ProductID       string        `json:"productId"`
	Name            LocalizedName `json:"name"`
	Price           int64         `json:"price"`
	DiscountedPrice int64         `json:"discountedPrice"`
	Image           string        `json:"image"`
	Quantity        int           `json:"quantity"`
}

// CartSubtotal sums discounted unit prices across the cart.
func CartSubtotal(items []CartItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.DiscountedPrice * int64(it.Quantity)
	}
	return sum
}
