package models

import "github.com/uptrace/bun"

type CartItem struct {
	bun.BaseModel `bun:"table:cart"`

	CartID    int64 `bun:"cart_id,pk,autoincrement" json:"cart_id"`
	UserID    int64 `bun:"user_id,notnull" json:"user_id"`
	ProductID int64 `bun:"product_id,notnull" json:"product_id"`
	Quantity  int   `bun:"quantity,notnull,default:1" json:"quantity"`

	Product *Product `bun:"rel:belongs-to,join:product_id=product_id" json:"product,omitempty"`
}

// CartLine is one priced (product, quantity) pair derived from the cart,
// with the unit price already resolved for the owning user's type.
type CartLine struct {
	CartID      int64   `bun:"cart_id" json:"cart_id"`
	ProductID   int64   `bun:"product_id" json:"product_id"`
	ProductName string  `bun:"name" json:"product_name"`
	Description string  `bun:"description" json:"description"`
	Category    string  `bun:"category" json:"category"`
	UnitPrice   float64 `bun:"unit_price" json:"unit_price"`
	Quantity    int     `bun:"quantity" json:"quantity"`
	LineTotal   float64 `bun:"line_total" json:"line_total"`
}

type CartView struct {
	Items []CartLine `json:"items"`
	Total float64    `json:"total"`
}

type AddToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
