package checkout

import "errors"

// The finalization failure taxonomy. The endpoint collapses several of
// these into one generic client message; they stay distinct here so
// server-side logs can name the exact cause.
var (
	ErrPaymentNotFound     = errors.New("payment authorization not found")
	ErrPaymentMismatch     = errors.New("payment authorization belongs to a different buyer")
	ErrPaymentNotCompleted = errors.New("payment authorization not completed")
	ErrAmountMismatch      = errors.New("charged amount does not match declared cart totals")
	ErrMalformedCart       = errors.New("authorization metadata lists a product more than once")
	ErrInventoryConflict   = errors.New("product no longer available for sale")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
)
