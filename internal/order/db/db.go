package db

import (
	"context"

	"dollmart/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun bun.IDB
}

// ---------------- WRITES (order commit) ----------------

// InsertOrder inserts a new order row; the generated order_id is written
// back into the model.
func (d *DB) InsertOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	return err
}

func (d *DB) InsertOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&items).Exec(ctx)
	return err
}

// ---------------- QUERIES ----------------

// OrdersForUser fetches a user's orders, newest first, optionally filtered
// by order status.
func (d *DB) OrdersForUser(ctx context.Context, userID int64, status string) ([]models.Order, error) {
	var orders []models.Order
	q := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("order_date DESC")
	if status != "" {
		q = q.Where("order_status = ?", status)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrderForUser fetches one order scoped to its owner.
func (d *DB) GetOrderForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_id = ?", orderID).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderItemsDetailed returns an order's lines joined with product names.
func (d *DB) OrderItemsDetailed(ctx context.Context, orderID int64) ([]models.OrderItemDetail, error) {
	var items []models.OrderItemDetail
	err := d.Bun.NewSelect().
		ColumnExpr("p.name AS name").
		ColumnExpr("oi.quantity AS quantity").
		ColumnExpr("oi.price AS price").
		ColumnExpr("oi.price * oi.quantity AS item_total").
		TableExpr("order_items AS oi").
		Join("JOIN products AS p ON p.product_id = oi.product_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.order_item_id ASC").
		Scan(ctx, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AllOrders is the manager view: every order joined with the buyer's email,
// newest first.
func (d *DB) AllOrders(ctx context.Context) ([]models.OrderWithUser, error) {
	var orders []models.OrderWithUser
	err := d.Bun.NewSelect().
		ColumnExpr("o.order_id, o.order_date, o.total_amount").
		ColumnExpr("o.payment_status, o.payment_method, o.order_status").
		ColumnExpr("u.user_id, u.email").
		TableExpr("orders AS o").
		Join("JOIN users AS u ON u.user_id = o.user_id").
		Order("o.order_date DESC").
		Scan(ctx, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}
