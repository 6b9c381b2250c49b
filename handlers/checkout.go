package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"checkout-svc/cache"
	"checkout-svc/checkout"
	"checkout-svc/database"
	"checkout-svc/gateway"
	"checkout-svc/kafka"
	"checkout-svc/middleware"
	"checkout-svc/models"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	orderEventsTopic  = "order_events"
	finalizedCacheTTL = 24 * time.Hour
)

/// FinalizedCache is the replay fast path: references finalized earlier
// can be answered without another gateway call or transaction. Backed by
// redis in production, faked in tests.
type FinalizedCache interface {
	GetFinalized(ctx context.Context, paymentRef string) (cache.FinalizedEntry, bool)
	SetFinalized(ctx context.Context, paymentRef string, entry cache.FinalizedEntry, ttl time.Duration) error
}

/// CheckoutHandler owns the finalization endpoint: it sequences verify →
// snapshot → allocate → materialize and translates outcomes into the
// response contract. No business logic lives here.
type CheckoutHandler struct {
	db           *sql.DB
	verifier     *checkout.PaymentIntentVerifier
	inventory    *checkout.InventorySnapshotReader
	materializer *checkout.OrderMaterializer
	producer     sarama.SyncProducer
	cache        FinalizedCache
	logger       *zap.Logger
}

func NewCheckoutHandler(
	db *sql.DB,
	gw gateway.PaymentGateway,
	producer sarama.SyncProducer,
	finalizedCache FinalizedCache,
	logger *zap.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		db:           db,
		verifier:     checkout.NewPaymentIntentVerifier(gw),
		inventory:    checkout.NewInventorySnapshotReader(db),
		materializer: checkout.NewOrderMaterializer(logger),
		producer:     producer,
		cache:        finalizedCache,
		logger:       logger,
	}
}

func (h *CheckoutHandler) FinalizeCheckout(c *gin.Context) {
	ctx, span := otel.Tracer("checkout-service").Start(c.Request.Context(), "FinalizeCheckout")
	defer span.End()

	// All request fields are checked before any I/O happens.
	var req models.FinalizeCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := h.resolveUser(ctx, c)
	if !ok {
		return
	}

	span.SetAttributes(
		attribute.Int("user.id", user.ID),
		attribute.String("payment.ref", req.PaymentReference),
	)
	traceID := middleware.GetTraceID(ctx)

	// Fast path for replays: a reference we already finalized is answered
	// from cache without touching the gateway or the database. Only for
	// the original buyer; anyone else falls through to the ownership check.
	if h.cache != nil {
		if entry, hit := h.cache.GetFinalized(ctx, req.PaymentReference); hit && entry.BuyerID == user.ID {
			middleware.RecordCheckoutFinalized("already_finalized")
			c.JSON(http.StatusOK, models.FinalizeCheckoutResponse{Success: true, Orders: entry.Orders})
			return
		}
	}

	auth, err := h.verifier.Verify(ctx, req.PaymentReference, user.ID)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, checkout.ErrPaymentNotFound),
			errors.Is(err, checkout.ErrPaymentMismatch),
			errors.Is(err, checkout.ErrAmountMismatch),
			errors.Is(err, checkout.ErrMalformedCart):
			// Deliberately one generic message for all of these, so a
			// caller cannot probe which check failed.
			h.logger.Warn("Rejected payment intent",
				zap.String("trace_id", traceID),
				zap.String("payment_ref", req.PaymentReference),
				zap.Int("user_id", user.ID),
				zap.Error(err),
			)
			middleware.RecordCheckoutFinalized("rejected")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment intent"})
		case errors.Is(err, checkout.ErrPaymentNotCompleted):
			middleware.RecordCheckoutFinalized("rejected")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Payment not completed"})
		default:
			h.logger.Error("Payment verification failed",
				zap.String("trace_id", traceID),
				zap.String("payment_ref", req.PaymentReference),
				zap.Error(err),
			)
			middleware.RecordCheckoutFinalized("error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	productIDs := make([]string, len(auth.Metadata.Items))
	for i, item := range auth.Metadata.Items {
		productIDs[i] = item.ProductID
	}
	snapshot, err := h.inventory.Load(ctx, productIDs)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to load inventory snapshot",
			zap.String("trace_id", traceID),
			zap.Error(err),
		)
		middleware.RecordCheckoutFinalized("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	allocations := checkout.Allocate(auth.Metadata.Items, checkout.SharedCosts{
		Shipping: auth.Metadata.Shipping,
		Tax:      auth.Metadata.Tax,
	})

	input := checkout.MaterializeInput{
		BuyerID:         user.ID,
		Auth:            auth,
		Snapshot:        snapshot,
		Allocations:     allocations,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Contact:         req.ContactInfo,
	}

	var summaries []models.OrderSummary
	err = database.RunInTransaction(ctx, h.db, func(uow *database.UnitOfWork) error {
		var txErr error
		summaries, txErr = h.materializer.Materialize(ctx, uow, input)
		return txErr
	})
	if err != nil {
		span.RecordError(err)
		if database.IsUniqueViolation(err) {
			// The reference was finalized by an earlier call or a
			// concurrent replay; report the surviving orders as success.
			h.finalizeReplayed(ctx, c, req.PaymentReference, traceID)
			return
		}
		if errors.Is(err, checkout.ErrInventoryConflict) {
			h.logger.Error("Inventory conflict during finalization",
				zap.String("trace_id", traceID),
				zap.String("payment_ref", req.PaymentReference),
				zap.Error(err),
			)
			middleware.RecordCheckoutFinalized("conflict")
		} else {
			h.logger.Error("Failed to materialize orders",
				zap.String("trace_id", traceID),
				zap.String("payment_ref", req.PaymentReference),
				zap.Error(err),
			)
			middleware.RecordCheckoutFinalized("error")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.afterCommit(ctx, req.PaymentReference, user.ID, summaries)

	span.SetAttributes(attribute.Int("orders.created", len(summaries)))
	h.logger.Info("Checkout finalized",
		zap.String("trace_id", traceID),
		zap.String("payment_ref", req.PaymentReference),
		zap.Int("user_id", user.ID),
		zap.Int("orders", len(summaries)),
	)
	middleware.RecordCheckoutFinalized("success")
	c.JSON(http.StatusOK, models.FinalizeCheckoutResponse{Success: true, Orders: summaries})
}

// resolveUser maps the identity provider's subject (set by the auth
// middleware) to the internal user row.
func (h *CheckoutHandler) resolveUser(ctx context.Context, c *gin.Context) (models.User, bool) {
	externalID := c.GetString(middleware.ExternalUserIDKey)
	if externalID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return models.User{}, false
	}

	var user models.User
	err := h.db.QueryRowContext(ctx,
		"SELECT id, external_id, first_name, last_name, email, phone FROM users WHERE external_id = $1",
		externalID,
	).Scan(&user.ID, &user.ExternalID, &user.FirstName, &user.LastName, &user.Email, &user.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return models.User{}, false
		}
		h.logger.Error("Failed to resolve user",
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return models.User{}, false
	}
	return user, true
}

// finalizeReplayed serves the idempotency path: the payment reference
// already has orders, so read them back and report success.
func (h *CheckoutHandler) finalizeReplayed(ctx context.Context, c *gin.Context, paymentRef, traceID string) {
	orders, err := h.loadFinalizedOrders(ctx, paymentRef)
	if err != nil {
		h.logger.Error("Failed to load already-finalized orders",
			zap.String("trace_id", traceID),
			zap.String("payment_ref", paymentRef),
			zap.Error(err),
		)
		middleware.RecordCheckoutFinalized("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.logger.Info("Payment reference already finalized",
		zap.String("trace_id", traceID),
		zap.String("payment_ref", paymentRef),
		zap.Int("orders", len(orders)),
	)
	middleware.RecordCheckoutFinalized("already_finalized")
	c.JSON(http.StatusOK, models.FinalizeCheckoutResponse{Success: true, Orders: orders})
}

func (h *CheckoutHandler) loadFinalizedOrders(ctx context.Context, paymentRef string) ([]models.OrderSummary, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT o.id, o.seller_id, o.product_id, o.amount FROM orders o JOIN payments p ON p.order_id = o.id WHERE p.gateway_ref = $1 ORDER BY o.id",
		paymentRef,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]models.OrderSummary, 0)
	for rows.Next() {
		var o models.OrderSummary
		if err := rows.Scan(&o.ID, &o.SellerID, &o.ProductID, &o.Amount); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// afterCommit runs the non-transactional side effects of a successful
// finalization: lifecycle events and the replay cache. Failures here are
// logged, never surfaced; the orders are already durable.
func (h *CheckoutHandler) afterCommit(ctx context.Context, paymentRef string, buyerID int, summaries []models.OrderSummary) {
	if h.producer != nil {
		for _, s := range summaries {
			event := models.OrderEvent{
				OrderID:    s.ID,
				BuyerID:    buyerID,
				SellerID:   s.SellerID,
				ProductID:  s.ProductID,
				Amount:     s.Amount,
				Status:     models.OrderStatusPaid,
				PaymentRef: paymentRef,
				EventType:  "order_finalized",
			}
			if err := kafka.PublishOrderEvent(ctx, h.producer, orderEventsTopic, event, h.logger); err != nil {
				h.logger.Error("Failed to publish order_finalized event",
					zap.Int("order_id", s.ID),
					zap.Error(err),
				)
			}
		}
	}

	if h.cache != nil {
		entry := cache.FinalizedEntry{BuyerID: buyerID, Orders: summaries}
		if err := h.cache.SetFinalized(ctx, paymentRef, entry, finalizedCacheTTL); err != nil {
			h.logger.Error("Failed to cache finalized payment",
				zap.String("payment_ref", paymentRef),
				zap.Error(err),
			)
		}
	}
}
