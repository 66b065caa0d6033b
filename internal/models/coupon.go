package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Coupon struct {
	bun.BaseModel `bun:"table:coupons"`

	CouponID           int64     `bun:"coupon_id,pk,autoincrement" json:"coupon_id"`
	Code               string    `bun:"code,unique,notnull" json:"code"`
	DiscountPercentage int       `bun:"discount_percentage,notnull" json:"discount_percentage"`
	ValidUntil         time.Time `bun:"valid_until,notnull" json:"valid_until"`
	IsUsed             bool      `bun:"is_used,notnull,default:false" json:"is_used"`
	UserID             int64     `bun:"user_id,notnull" json:"user_id"`
}

// Expired reports whether the coupon's validity window has passed at the
// given instant. Validity is date-granular: a coupon is usable through the
// whole of its valid_until day.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ValidUntil.Before(now.Truncate(24 * time.Hour))
}
