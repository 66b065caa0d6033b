package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	OrderStatusPending = "pending"
	OrderStatusDone    = "done"

	PaymentStatusPending = "pending"
	PaymentStatusDone    = "done"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID       int64     `bun:"order_id,pk,autoincrement" json:"order_id"`
	UserID        int64     `bun:"user_id,notnull" json:"user_id"`
	OrderDate     time.Time `bun:"order_date,notnull" json:"order_date"`
	TotalAmount   float64   `bun:"total_amount,notnull" json:"total_amount"`
	PaymentStatus string    `bun:"payment_status,notnull,default:'pending'" json:"payment_status"`
	PaymentMethod string    `bun:"payment_method" json:"payment_method"`
	OrderStatus   string    `bun:"order_status,notnull,default:'pending'" json:"order_status"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	OrderItemID int64 `bun:"order_item_id,pk,autoincrement" json:"order_item_id"`
	OrderID     int64 `bun:"order_id,notnull" json:"order_id"`
	ProductID   int64 `bun:"product_id,notnull" json:"product_id"`
	Quantity    int   `bun:"quantity,notnull" json:"quantity"`
	// Price is the unit price at time of purchase. Later catalog price
	// changes never alter it.
	Price float64 `bun:"price,notnull" json:"price"`
}

// OrderItemDetail is one order line joined with the product name.
type OrderItemDetail struct {
	ProductName string  `bun:"name" json:"product_name"`
	Quantity    int     `bun:"quantity" json:"quantity"`
	Price       float64 `bun:"price" json:"price"`
	ItemTotal   float64 `bun:"item_total" json:"item_total"`
}

type OrderDetails struct {
	Order *Order            `json:"order"`
	Items []OrderItemDetail `json:"items"`
}

// OrderWithUser is the manager-facing row for the all-orders listing.
type OrderWithUser struct {
	OrderID       int64     `bun:"order_id" json:"order_id"`
	OrderDate     time.Time `bun:"order_date" json:"order_date"`
	TotalAmount   float64   `bun:"total_amount" json:"total_amount"`
	PaymentStatus string    `bun:"payment_status" json:"payment_status"`
	PaymentMethod string    `bun:"payment_method" json:"payment_method"`
	OrderStatus   string    `bun:"order_status" json:"order_status"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	UserEmail     string    `bun:"email" json:"user_email"`
}

type PlaceOrderRequest struct {
	CouponCode    string `json:"coupon_code,omitempty"`
	PaymentMethod string `json:"payment_method"`
}

type PlaceOrderResponse struct {
	OrderID       int64   `json:"order_id"`
	TotalAmount   float64 `json:"total_amount"`
	Discount      float64 `json:"discount"`
	PaymentMethod string  `json:"payment_method"`
	// IssuedCoupon carries a loyalty coupon earned by this order, if any.
	IssuedCoupon *Coupon `json:"issued_coupon,omitempty"`
}
