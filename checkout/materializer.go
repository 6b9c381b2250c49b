package checkout

import (
	"context"
	"fmt"
	"sort"

	"checkout-svc/gateway"
	"checkout-svc/models"

	"go.uber.org/zap"
)

// UnitOfWork is the slice of a database transaction the materializer
// needs. The datastore layer owns begin/commit/rollback; the materializer
// owns only the write sequence, so it stays unit-testable against a fake.
type UnitOfWork interface {
	InsertAddress(ctx context.Context, addr models.Address) (int, error)
	InsertOrder(ctx context.Context, order models.Order) (int, error)
	MarkOrderPaid(ctx context.Context, orderID int) error
	InsertPayment(ctx context.Context, payment models.Payment) (int, error)
	// MarkProductSold flips the product to sold only while it is still
	// available and reports whether the update took effect.
	MarkProductSold(ctx context.Context, productID string) (bool, error)
	UpdateUserContact(ctx context.Context, userID int, firstName, lastName, email, phone string) error
}

// MaterializeInput carries everything the write sequence needs: the
// verified authorization, the live inventory snapshot, the cost
// allocation, and the caller-supplied address and contact fields.
type MaterializeInput struct {
	BuyerID         int
	Auth            *gateway.PaymentAuthorization
	Snapshot        map[string]models.Product
	Allocations     []Allocation
	ShippingAddress models.AddressRequest
	BillingAddress  *models.AddressRequest
	Contact         models.ContactInfoRequest
}

// OrderMaterializer turns a verified payment into durable order state:
// one address, then per seller one order + payment per item, each item's
// product conditionally flipped to sold. Runs entirely inside the
// transaction represented by the UnitOfWork.
type OrderMaterializer struct {
	logger *zap.Logger
}

func NewOrderMaterializer(logger *zap.Logger) *OrderMaterializer {
	return &OrderMaterializer{logger: logger}
}

func (m *OrderMaterializer) Materialize(ctx context.Context, uow UnitOfWork, in MaterializeInput) ([]models.OrderSummary, error) {
	addressID, err := uow.InsertAddress(ctx, models.Address{
		UserID:     in.BuyerID,
		Street:     in.ShippingAddress.Street,
		City:       in.ShippingAddress.City,
		State:      in.ShippingAddress.State,
		PostalCode: in.ShippingAddress.PostalCode,
		Country:    in.ShippingAddress.Country,
		Type:       models.AddressTypeShipping,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shipping address: %w", err)
	}

	if in.BillingAddress != nil {
		if _, err := uow.InsertAddress(ctx, models.Address{
			UserID:     in.BuyerID,
			Street:     in.BillingAddress.Street,
			City:       in.BillingAddress.City,
			State:      in.BillingAddress.State,
			PostalCode: in.BillingAddress.PostalCode,
			Country:    in.BillingAddress.Country,
			Type:       models.AddressTypeBilling,
		}); err != nil {
			return nil, fmt.Errorf("failed to create billing address: %w", err)
		}
	}

	summaries := make([]models.OrderSummary, 0, len(in.Allocations))
	for _, group := range m.groupBySeller(in) {
		for _, alloc := range group.allocations {
			product := in.Snapshot[alloc.ProductID]

			orderID, err := uow.InsertOrder(ctx, models.Order{
				BuyerID:   in.BuyerID,
				SellerID:  product.SellerID,
				ProductID: alloc.ProductID,
				AddressID: addressID,
				Amount:    alloc.Amount,
				Status:    models.OrderStatusPending,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create order for product %s: %w", alloc.ProductID, err)
			}
			if err := uow.MarkOrderPaid(ctx, orderID); err != nil {
				return nil, fmt.Errorf("failed to mark order %d paid: %w", orderID, err)
			}

			if _, err := uow.InsertPayment(ctx, models.Payment{
				OrderID:    orderID,
				GatewayRef: in.Auth.ID,
				ProductID:  alloc.ProductID,
				Amount:     alloc.Amount,
				Status:     models.PaymentStatusSucceeded,
			}); err != nil {
				return nil, fmt.Errorf("failed to create payment for order %d: %w", orderID, err)
			}

			sold, err := uow.MarkProductSold(ctx, alloc.ProductID)
			if err != nil {
				return nil, fmt.Errorf("failed to mark product %s sold: %w", alloc.ProductID, err)
			}
			if !sold {
				return nil, fmt.Errorf("%w: product %s", ErrInventoryConflict, alloc.ProductID)
			}

			summaries = append(summaries, models.OrderSummary{
				ID:        orderID,
				SellerID:  product.SellerID,
				ProductID: alloc.ProductID,
				Amount:    alloc.Amount,
			})
		}
	}

	if err := uow.UpdateUserContact(ctx, in.BuyerID,
		in.Contact.FirstName, in.Contact.LastName, in.Contact.Email, in.Contact.Phone); err != nil {
		return nil, fmt.Errorf("failed to update buyer contact info: %w", err)
	}

	return summaries, nil
}

type sellerGroup struct {
	sellerID    int
	allocations []Allocation
}

// groupBySeller buckets allocations by the seller recorded in the live
// snapshot, never by anything client-supplied. Allocations whose product
// is missing from the snapshot are dropped: the product drifted away
// between authorization and finalization.
func (m *OrderMaterializer) groupBySeller(in MaterializeInput) []sellerGroup {
	bySeller := make(map[int]*sellerGroup)
	for _, alloc := range in.Allocations {
		product, ok := in.Snapshot[alloc.ProductID]
		if !ok {
			m.logger.Warn("Dropping drifted product from finalization",
				zap.String("product_id", alloc.ProductID),
				zap.String("payment_ref", in.Auth.ID),
			)
			continue
		}
		group, ok := bySeller[product.SellerID]
		if !ok {
			group = &sellerGroup{sellerID: product.SellerID}
			bySeller[product.SellerID] = group
		}
		group.allocations = append(group.allocations, alloc)
	}

	groups := make([]sellerGroup, 0, len(bySeller))
	for _, group := range bySeller {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].sellerID < groups[j].sellerID })
	return groups
}
