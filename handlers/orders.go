package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"checkout-svc/middleware"
	"checkout-svc/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type OrderHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderHandler(db *sql.DB, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{db: db, logger: logger}
}

// GetOrder reads back one of the caller's own orders. The buyer predicate
// keeps one buyer from reading another's order; a foreign order id reads
// as not found.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx, span := otel.Tracer("checkout-service").Start(c.Request.Context(), "GetOrder")
	defer span.End()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	externalID := c.GetString(middleware.ExternalUserIDKey)
	if externalID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	var buyerID int
	err = h.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE external_id = $1",
		externalID,
	).Scan(&buyerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to resolve user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	span.SetAttributes(attribute.Int("order.id", orderID))

	var order models.Order
	err = h.db.QueryRowContext(ctx,
		"SELECT id, buyer_id, seller_id, product_id, address_id, amount, status, created_at FROM orders WHERE id = $1 AND buyer_id = $2",
		orderID, buyerID,
	).Scan(&order.ID, &order.BuyerID, &order.SellerID, &order.ProductID, &order.AddressID, &order.Amount, &order.Status, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to get order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, order)
}
