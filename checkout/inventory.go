package checkout

import (
	"context"
	"database/sql"
	"fmt"

	"checkout-svc/models"

	"github.com/lib/pq"
)

// InventorySnapshotReader loads the live state of the products a payment
// references, in one batched read. Products that no longer exist are
// simply absent from the result; the caller decides what that means.
type InventorySnapshotReader struct {
	db *sql.DB
}

func NewInventorySnapshotReader(db *sql.DB) *InventorySnapshotReader {
	return &InventorySnapshotReader{db: db}
}

func (r *InventorySnapshotReader) Load(ctx context.Context, productIDs []string) (map[string]models.Product, error) {
	snapshot := make(map[string]models.Product, len(productIDs))
	if len(productIDs) == 0 {
		return snapshot, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, seller_id, price, status FROM products WHERE id = ANY($1)",
		pq.Array(productIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load product snapshot: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Price, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		snapshot[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product snapshot: %w", err)
	}

	return snapshot, nil
}
