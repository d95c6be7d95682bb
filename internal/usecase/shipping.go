package usecase

import domain "github.com/agrikart/storefront/internal/entity"

// DefaultCODCharge is the flat COD surcharge in rupees.
const DefaultCODCharge int64 = 50

// ShippingPolicy decides the shipping charge from the payment method:
// online payment ships free, cash on delivery pays a flat surcharge.
type ShippingPolicy struct {
	CODCharge int64
}

func NewShippingPolicy(codCharge int64) ShippingPolicy {
	if codCharge <= 0 {
		codCharge = DefaultCODCharge
	}
	return ShippingPolicy{CODCharge: codCharge}
}

func (p ShippingPolicy) ChargeFor(method domain.PaymentMethod) int64 {
	if method == domain.PaymentCOD {
		return p.CODCharge
	}
	return 0
}
