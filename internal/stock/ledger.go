package stock

import (
	"context"
	"errors"
	"fmt"

	"dollmart/internal/models"

	"github.com/uptrace/bun"
)

// ErrOutOfStock is returned whenever a requested quantity exceeds a
// product's available stock.
var ErrOutOfStock = errors.New("not enough stock available")

// ReserveCheck reports whether qty can be satisfied by the product's
// current stock. Pure predicate, no side effects.
func ReserveCheck(p *models.Product, qty int) bool {
	return qty <= p.Stock
}

// Ledger performs the authoritative stock decrement. It runs against
// whatever bun.IDB it is given, so the order commit can point it at its own
// transaction.
type Ledger struct {
	Bun bun.IDB
}

// Debit decrements a product's stock by qty as a single conditional update.
// The WHERE stock >= qty guard makes the decrement atomic: if a concurrent
// commit got there first, zero rows are affected and the caller's
// transaction fails with ErrOutOfStock instead of driving stock negative.
func (l *Ledger) Debit(ctx context.Context, productID int64, qty int) error {
	res, err := l.Bun.NewUpdate().
		Model((*models.Product)(nil)).
		Set("stock = stock - ?", qty).
		Where("product_id = ?", productID).
		Where("stock >= ?", qty).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("stock debit for product %d failed: %w", productID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("stock debit for product %d failed: %w", productID, err)
	}
	if affected == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrOutOfStock)
	}
	return nil
}
