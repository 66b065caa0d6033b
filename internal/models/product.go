package models

import "github.com/uptrace/bun"

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	CategoryID int64  `bun:"category_id,pk,autoincrement" json:"category_id"`
	Name       string `bun:"name,unique,notnull" json:"name"`
}

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ProductID      int64   `bun:"product_id,pk,autoincrement" json:"product_id"`
	Name           string  `bun:"name,notnull" json:"name"`
	Description    string  `bun:"description" json:"description"`
	CategoryID     int64   `bun:"category_id,notnull" json:"category_id"`
	RetailPrice    float64 `bun:"retail_price,notnull" json:"retail_price"`
	WholesalePrice float64 `bun:"wholesale_price,notnull" json:"wholesale_price"`
	Stock          int     `bun:"stock,notnull,default:0" json:"stock"`

	Category *Category `bun:"rel:belongs-to,join:category_id=category_id" json:"category,omitempty"`
}

// PriceFor resolves the unit price charged to a user of the given type.
// Bulk buyers pay wholesale, everyone else retail.
func (p *Product) PriceFor(userType string) float64 {
	if userType == UserTypeBulk {
		return p.WholesalePrice
	}
	return p.RetailPrice
}

type ProductInput struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	RetailPrice    float64 `json:"retail_price"`
	WholesalePrice float64 `json:"wholesale_price"`
	Stock          int     `json:"stock"`
}

type ProductUpdate struct {
	RetailPrice    *float64 `json:"retail_price,omitempty"`
	WholesalePrice *float64 `json:"wholesale_price,omitempty"`
	Stock          *int     `json:"stock,omitempty"`
}
