package redis_test

import (
	"context"
	"testing"

	orderredis "dollmart/internal/order/redis"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRedisIntegration exercises the checkout locks against a real Redis
// container.
func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})
	lock := orderredis.NewRedis(client)

	productIDs := []int64{1, 2, 3}
	checkoutID := "checkout-a"

	locked, err := lock.LockProducts(ctx, productIDs, checkoutID)
	require.NoError(t, err)
	assert.True(t, locked, "Expected products to be lockable")

	// A competing checkout must not get the same products
	locked, err = lock.LockProducts(ctx, productIDs, "checkout-b")
	require.NoError(t, err)
	assert.False(t, locked, "Expected products to be already locked")

	// An overlapping set conflicts too, and must roll back its own locks
	locked, err = lock.LockProducts(ctx, []int64{3, 4}, "checkout-b")
	require.NoError(t, err)
	assert.False(t, locked)

	locked, err = lock.LockProducts(ctx, []int64{4}, "checkout-b")
	require.NoError(t, err)
	assert.True(t, locked, "product 4 must be free after the rolled-back attempt")

	err = lock.UnlockProducts(ctx, productIDs, checkoutID)
	require.NoError(t, err)

	locked, err = lock.LockProducts(ctx, productIDs, "checkout-b")
	require.NoError(t, err)
	assert.True(t, locked, "Expected products to be lockable after unlock")

	// Coupon locks are owner-checked the same way
	locked, err = lock.LockCoupon(ctx, "AB12CD34", checkoutID)
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = lock.LockCoupon(ctx, "AB12CD34", "checkout-b")
	require.NoError(t, err)
	assert.False(t, locked)

	// Unlock by a non-owner is a no-op
	require.NoError(t, lock.UnlockCoupon(ctx, "AB12CD34", "checkout-b"))
	locked, err = lock.LockCoupon(ctx, "AB12CD34", "checkout-b")
	require.NoError(t, err)
	assert.False(t, locked, "non-owner unlock must not release the lock")

	require.NoError(t, lock.UnlockCoupon(ctx, "AB12CD34", checkoutID))
	locked, err = lock.LockCoupon(ctx, "AB12CD34", "checkout-b")
	require.NoError(t, err)
	assert.True(t, locked)
}
