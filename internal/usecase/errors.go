package usecase

import "errors"

var (
	// ErrSubmissionInFlight rejects a second checkout submission while the
	// first has not settled. The guard is per user and in-process; the
	// backend has no idempotency-key mechanism to lean on.
	ErrSubmissionInFlight = errors.New("a checkout submission is already in flight")

	// ErrPaymentInitiation covers an initiation call that failed, or
	// succeeded without a redirect URL. No order was created.
	ErrPaymentInitiation = errors.New("payment initiation failed")

	// ErrOrderCreation covers a COD creation response without an order id.
	// The cart is preserved so the customer can retry.
	ErrOrderCreation = errors.New("order creation failed")

	// ErrMissingMtid means the payment-gateway return URL carried no
	// correlation token. Fatal; no polling is attempted.
	ErrMissingMtid = errors.New("missing merchant transaction id")

	// ErrNotFound is returned by the gateway for 404 responses. During
	// polling it is fatal (the transaction is unknown to the backend).
	ErrNotFound = errors.New("not found")

	// ErrPaymentFailed is the backend explicitly reporting a failed
	// payment. Fatal; the cart is not cleared.
	ErrPaymentFailed = errors.New("payment failed")
)
