package db

import (
	"context"

	"dollmart/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun bun.IDB
}

// GetItem fetches the cart row for a (user, product) pair, if any.
func (d *DB) GetItem(ctx context.Context, userID, productID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := d.Bun.NewSelect().
		Model(&item).
		Where("user_id = ?", userID).
		Where("product_id = ?", productID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemByID fetches a cart row by id, scoped to its owner.
func (d *DB) GetItemByID(ctx context.Context, userID, cartID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := d.Bun.NewSelect().
		Model(&item).
		Relation("Product").
		Where("cart_item.cart_id = ?", cartID).
		Where("cart_item.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns the user's cart rows with products and categories,
// ordered by insertion (cart_id).
func (d *DB) ListItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := d.Bun.NewSelect().
		Model(&items).
		Relation("Product").
		Relation("Product.Category").
		Where("cart_item.user_id = ?", userID).
		Order("cart_item.cart_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) Insert(ctx context.Context, item *models.CartItem) error {
	_, err := d.Bun.NewInsert().Model(item).Exec(ctx)
	return err
}

func (d *DB) UpdateQuantity(ctx context.Context, cartID int64, quantity int) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.CartItem)(nil)).
		Set("quantity = ?", quantity).
		Where("cart_id = ?", cartID).
		Exec(ctx)
	return err
}

func (d *DB) Delete(ctx context.Context, cartID int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.CartItem)(nil)).
		Where("cart_id = ?", cartID).
		Exec(ctx)
	return err
}

// Clear removes every cart row for the user. Deleting an already empty cart
// is not an error.
func (d *DB) Clear(ctx context.Context, userID int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.CartItem)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}
