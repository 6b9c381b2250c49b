package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"checkout-svc/models"

	"github.com/lib/pq"
)

// UnitOfWork exposes the finalization writes over one open transaction.
// It implements checkout.UnitOfWork; callers get one from RunInTransaction
// and must not hold it past the callback.
type UnitOfWork struct {
	tx *sql.Tx
}

// RunInTransaction owns the transaction lifecycle: it begins, hands a
// UnitOfWork to fn, and commits only if fn returns nil. Any error rolls
// the whole transaction back, so no partial finalization ever persists.
func RunInTransaction(ctx context.Context, db *sql.DB, fn func(uow *UnitOfWork) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&UnitOfWork{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (u *UnitOfWork) InsertAddress(ctx context.Context, addr models.Address) (int, error) {
	var id int
	err := u.tx.QueryRowContext(ctx,
		"INSERT INTO addresses (user_id, street, city, state, postal_code, country, address_type) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id",
		addr.UserID, addr.Street, addr.City, addr.State, addr.PostalCode, addr.Country, addr.Type,
	).Scan(&id)
	return id, err
}

func (u *UnitOfWork) InsertOrder(ctx context.Context, order models.Order) (int, error) {
	var id int
	err := u.tx.QueryRowContext(ctx,
		"INSERT INTO orders (buyer_id, seller_id, product_id, address_id, amount, status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		order.BuyerID, order.SellerID, order.ProductID, order.AddressID, order.Amount, order.Status,
	).Scan(&id)
	return id, err
}

func (u *UnitOfWork) MarkOrderPaid(ctx context.Context, orderID int) error {
	_, err := u.tx.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2",
		models.OrderStatusPaid, orderID,
	)
	return err
}

func (u *UnitOfWork) InsertPayment(ctx context.Context, payment models.Payment) (int, error) {
	var id int
	err := u.tx.QueryRowContext(ctx,
		"INSERT INTO payments (order_id, gateway_ref, product_id, amount, status) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		payment.OrderID, payment.GatewayRef, payment.ProductID, payment.Amount, payment.Status,
	).Scan(&id)
	return id, err
}

// MarkProductSold is the conditional update that serializes concurrent
// finalizations: the WHERE clause only matches while the product is still
// available, so the losing transaction sees zero rows and aborts.
func (u *UnitOfWork) MarkProductSold(ctx context.Context, productID string) (bool, error) {
	result, err := u.tx.ExecContext(ctx,
		"UPDATE products SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		models.ProductStatusSold, productID, models.ProductStatusAvailable,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (u *UnitOfWork) UpdateUserContact(ctx context.Context, userID int, firstName, lastName, email, phone string) error {
	_, err := u.tx.ExecContext(ctx,
		"UPDATE users SET first_name = $1, last_name = $2, email = $3, phone = $4 WHERE id = $5",
		firstName, lastName, email, phone, userID,
	)
	return err
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// hit, which on the payments table means this gateway reference was
// already finalized.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
