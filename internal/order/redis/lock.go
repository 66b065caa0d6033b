package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis serializes checkout commits that touch the same product or coupon.
// Locks are owned by a checkout id and TTL'd so an abandoned session can
// never wedge a product.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getLockDuration returns the checkout lock TTL from the environment or the
// default value.
func (r *Redis) getLockDuration() time.Duration {
	defaultDuration := 2 * time.Minute

	lockTTLStr := os.Getenv("CHECKOUT_LOCK_TTL_SECONDS")
	if lockTTLStr == "" {
		return defaultDuration
	}

	lockTTLSec, err := strconv.Atoi(lockTTLStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid CHECKOUT_LOCK_TTL_SECONDS value '" + lockTTLStr + "', using default 2 minutes")
		return defaultDuration
	}

	return time.Duration(lockTTLSec) * time.Second
}

func productKey(productID int64) string {
	return fmt.Sprintf("product_lock:%d", productID)
}

func couponKey(code string) string {
	return "coupon_lock:" + code
}

func (r *Redis) lock(ctx context.Context, key, owner string) (bool, error) {
	return r.Client.SetNX(ctx, key, owner, r.getLockDuration()).Result()
}

// unlock releases a key only when the owner token matches, so one checkout
// cannot drop another's lock.
func (r *Redis) unlock(ctx context.Context, key, owner string) error {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == owner {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// LockProducts locks every product id for the given checkout. On any
// conflict the locks already taken are rolled back.
func (r *Redis) LockProducts(ctx context.Context, productIDs []int64, checkoutID string) (bool, error) {
	locked := []int64{}
	for _, id := range productIDs {
		ok, err := r.lock(ctx, productKey(id), checkoutID)
		if err != nil || !ok {
			for _, l := range locked {
				_ = r.unlock(ctx, productKey(l), checkoutID)
			}
			return false, err
		}
		locked = append(locked, id)
	}
	return true, nil
}

func (r *Redis) UnlockProducts(ctx context.Context, productIDs []int64, checkoutID string) error {
	var firstErr error
	for _, id := range productIDs {
		if err := r.unlock(ctx, productKey(id), checkoutID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Redis) LockCoupon(ctx context.Context, code, checkoutID string) (bool, error) {
	return r.lock(ctx, couponKey(code), checkoutID)
}

func (r *Redis) UnlockCoupon(ctx context.Context, code, checkoutID string) error {
	return r.unlock(ctx, couponKey(code), checkoutID)
}
