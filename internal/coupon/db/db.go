package db

import (
	"context"
	"time"

	"dollmart/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun bun.IDB
}

// ListForUser returns every coupon the user owns, newest validity first
// (the order the storefront has always displayed them in).
func (d *DB) ListForUser(ctx context.Context, userID int64) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := d.Bun.NewSelect().
		Model(&coupons).
		Where("user_id = ?", userID).
		Order("valid_until DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

// ListAvailable returns the user's unused, unexpired coupons. Validity is
// date-granular: a coupon expiring today is still usable.
func (d *DB) ListAvailable(ctx context.Context, userID int64, now time.Time) ([]models.Coupon, error) {
	today := now.Truncate(24 * time.Hour)

	var coupons []models.Coupon
	err := d.Bun.NewSelect().
		Model(&coupons).
		Where("user_id = ?", userID).
		Where("is_used = ?", false).
		Where("valid_until >= ?", today).
		Order("valid_until DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

func (d *DB) GetByID(ctx context.Context, couponID int64) (*models.Coupon, error) {
	var coupon models.Coupon
	err := d.Bun.NewSelect().
		Model(&coupon).
		Where("coupon_id = ?", couponID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (d *DB) Insert(ctx context.Context, coupon *models.Coupon) error {
	_, err := d.Bun.NewInsert().Model(coupon).Exec(ctx)
	return err
}

// MarkUsed flips a coupon to used, guarded so it can happen at most once.
// Returns the number of rows affected: zero means the coupon was already
// redeemed by a concurrent commit.
func (d *DB) MarkUsed(ctx context.Context, couponID int64) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Coupon)(nil)).
		Set("is_used = ?", true).
		Where("coupon_id = ?", couponID).
		Where("is_used = ?", false).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---------------- LOYALTY QUERIES ----------------

// CountCompletedOrders counts the user's orders with order_status done.
func (d *DB) CountCompletedOrders(ctx context.Context, userID int64) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("user_id = ?", userID).
		Where("order_status = ?", models.OrderStatusDone).
		Count(ctx)
}

func (d *DB) GetCouponCounter(ctx context.Context, userID int64) (int, error) {
	var counter int
	err := d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Column("coupon_counter").
		Where("user_id = ?", userID).
		Scan(ctx, &counter)
	return counter, err
}

func (d *DB) ResetCouponCounter(ctx context.Context, userID int64) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("coupon_counter = 0").
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

func (d *DB) IncrementCouponCounter(ctx context.Context, userID int64) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("coupon_counter = coupon_counter + 1").
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}
