package checkout

import (
	"context"
	"errors"
	"fmt"

	"checkout-svc/gateway"
)

// PaymentIntentVerifier checks that an externally reported payment is
// genuine, belongs to the calling buyer, and has actually settled. Pure
// read against the gateway, no side effects.
type PaymentIntentVerifier struct {
	gw gateway.PaymentGateway
}

func NewPaymentIntentVerifier(gw gateway.PaymentGateway) *PaymentIntentVerifier {
	return &PaymentIntentVerifier{gw: gw}
}

func (v *PaymentIntentVerifier) Verify(ctx context.Context, ref string, buyerID int) (*gateway.PaymentAuthorization, error) {
	auth, err := v.gw.RetrievePayment(ctx, ref)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if auth.Metadata.UserID != buyerID {
		return nil, ErrPaymentMismatch
	}

	if auth.Status != gateway.StatusSucceeded {
		return nil, fmt.Errorf("%w: status %q", ErrPaymentNotCompleted, auth.Status)
	}

	declared := cartTotal(auth.Metadata.Items) + auth.Metadata.Shipping + auth.Metadata.Tax
	if auth.Amount != declared {
		return nil, fmt.Errorf("%w: charged %d, declared %d", ErrAmountMismatch, auth.Amount, declared)
	}

	// One line item per product; a duplicate would allocate the same
	// product twice and can only come from malformed gateway data.
	seen := make(map[string]bool, len(auth.Metadata.Items))
	for _, item := range auth.Metadata.Items {
		if seen[item.ProductID] {
			return nil, fmt.Errorf("%w: product %s", ErrMalformedCart, item.ProductID)
		}
		seen[item.ProductID] = true
	}

	return auth, nil
}
