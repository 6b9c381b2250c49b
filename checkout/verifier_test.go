package checkout

import (
	"context"
	"errors"
	"testing"

	"checkout-svc/gateway"
)

type fakeGateway struct {
	auth *gateway.PaymentAuthorization
	err  error
}

func (f *fakeGateway) RetrievePayment(ctx context.Context, ref string) (*gateway.PaymentAuthorization, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.auth, nil
}

func validAuth() *gateway.PaymentAuthorization {
	return &gateway.PaymentAuthorization{
		ID:     "pi_123",
		Status: gateway.StatusSucceeded,
		Amount: 32000,
		Metadata: gateway.Metadata{
			UserID: 7,
			Items: []gateway.LineItem{
				{ProductID: "p1", UnitPrice: 10000, Quantity: 1},
				{ProductID: "p2", UnitPrice: 20000, Quantity: 1},
			},
			Shipping: 500,
			Tax:      1500,
		},
	}
}

func TestVerify_Success(t *testing.T) {
	v := NewPaymentIntentVerifier(&fakeGateway{auth: validAuth()})

	auth, err := v.Verify(context.Background(), "pi_123", 7)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if auth.ID != "pi_123" {
		t.Errorf("Expected authorization pi_123, got %s", auth.ID)
	}
}

func TestVerify_NotFound(t *testing.T) {
	v := NewPaymentIntentVerifier(&fakeGateway{err: gateway.ErrNotFound})

	_, err := v.Verify(context.Background(), "pi_missing", 7)
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("Expected ErrPaymentNotFound, got %v", err)
	}
}

func TestVerify_WrongBuyer(t *testing.T) {
	v := NewPaymentIntentVerifier(&fakeGateway{auth: validAuth()})

	_, err := v.Verify(context.Background(), "pi_123", 99)
	if !errors.Is(err, ErrPaymentMismatch) {
		t.Errorf("Expected ErrPaymentMismatch, got %v", err)
	}
}

func TestVerify_NotCompleted(t *testing.T) {
	for _, status := range []string{gateway.StatusPending, gateway.StatusFailed, "processing", "requires_action"} {
		auth := validAuth()
		auth.Status = status
		v := NewPaymentIntentVerifier(&fakeGateway{auth: auth})

		_, err := v.Verify(context.Background(), "pi_123", 7)
		if !errors.Is(err, ErrPaymentNotCompleted) {
			t.Errorf("Status %q: expected ErrPaymentNotCompleted, got %v", status, err)
		}
	}
}

func TestVerify_AmountMismatch(t *testing.T) {
	auth := validAuth()
	auth.Amount = 31000
	v := NewPaymentIntentVerifier(&fakeGateway{auth: auth})

	_, err := v.Verify(context.Background(), "pi_123", 7)
	if !errors.Is(err, ErrAmountMismatch) {
		t.Errorf("Expected ErrAmountMismatch, got %v", err)
	}
}

func TestVerify_DuplicateProduct(t *testing.T) {
	auth := validAuth()
	auth.Metadata.Items = []gateway.LineItem{
		{ProductID: "p1", UnitPrice: 10000, Quantity: 1},
		{ProductID: "p1", UnitPrice: 10000, Quantity: 1},
	}
	auth.Amount = 22000
	v := NewPaymentIntentVerifier(&fakeGateway{auth: auth})

	_, err := v.Verify(context.Background(), "pi_123", 7)
	if !errors.Is(err, ErrMalformedCart) {
		t.Errorf("Expected ErrMalformedCart, got %v", err)
	}
}

func TestVerify_GatewayDown(t *testing.T) {
	v := NewPaymentIntentVerifier(&fakeGateway{err: gateway.ErrUnavailable})

	_, err := v.Verify(context.Background(), "pi_123", 7)
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Errorf("Expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestVerify_EmptyCart(t *testing.T) {
	auth := validAuth()
	auth.Metadata.Items = nil
	auth.Amount = 2000 // shipping + tax only

	v := NewPaymentIntentVerifier(&fakeGateway{auth: auth})
	if _, err := v.Verify(context.Background(), "pi_123", 7); err != nil {
		t.Errorf("Expected zero-item payment to verify, got %v", err)
	}
}
