package order_test

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"
	"time"

	"dollmart/internal/cart"
	cartdb "dollmart/internal/cart/db"
	"dollmart/internal/catalog"
	catalogdb "dollmart/internal/catalog/db"
	"dollmart/internal/config"
	"dollmart/internal/coupon"
	coupondb "dollmart/internal/coupon/db"
	"dollmart/internal/logger"
	"dollmart/internal/models"
	"dollmart/internal/order"
	orderdb "dollmart/internal/order/db"
	"dollmart/internal/stock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Mock implementations for testing

type MockRedisLock struct {
	locked          map[string]string
	lockingSucceeds bool
	shouldFailOn    string
	errorMsg        string
}

func NewMockRedisLock() *MockRedisLock {
	return &MockRedisLock{
		locked:          make(map[string]string),
		lockingSucceeds: true,
	}
}

func (m *MockRedisLock) LockProducts(ctx context.Context, productIDs []int64, checkoutID string) (bool, error) {
	if m.shouldFailOn == "LockProducts" {
		return false, errors.New(m.errorMsg)
	}
	if !m.lockingSucceeds {
		return false, nil
	}
	for _, id := range productIDs {
		m.locked[lockKey(id)] = checkoutID
	}
	return true, nil
}

func (m *MockRedisLock) UnlockProducts(ctx context.Context, productIDs []int64, checkoutID string) error {
	for _, id := range productIDs {
		if m.locked[lockKey(id)] == checkoutID {
			delete(m.locked, lockKey(id))
		}
	}
	return nil
}

func (m *MockRedisLock) LockCoupon(ctx context.Context, code, checkoutID string) (bool, error) {
	if !m.lockingSucceeds {
		return false, nil
	}
	m.locked["coupon:"+code] = checkoutID
	return true, nil
}

func (m *MockRedisLock) UnlockCoupon(ctx context.Context, code, checkoutID string) error {
	if m.locked["coupon:"+code] == checkoutID {
		delete(m.locked, "coupon:"+code)
	}
	return nil
}

func lockKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

func topics() config.TopicConfig {
	return config.TopicConfig{
		OrderPlaced:  "dollmart.order.placed",
		CouponIssued: "dollmart.coupon.issued",
	}
}

type MockKafkaProducer struct {
	messages map[string][]string
}

func NewMockKafkaProducer() *MockKafkaProducer {
	return &MockKafkaProducer{messages: make(map[string][]string)}
}

func (m *MockKafkaProducer) Publish(topic string, key string, value []byte) error {
	m.messages[topic] = append(m.messages[topic], string(value))
	return nil
}

type fixture struct {
	bun     *bun.DB
	svc     *order.OrderService
	carts   *cart.CartService
	coupons *coupon.CouponService
	redis   *MockRedisLock
	kafka   *MockKafkaProducer
	user    *models.User
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, m := range []interface{}{
		(*models.User)(nil),
		(*models.Category)(nil),
		(*models.Product)(nil),
		(*models.CartItem)(nil),
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.Coupon)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, m))
	}

	user := &models.User{
		FirstName:        "Asha",
		Email:            "asha@example.com",
		Password:         "x",
		UserType:         models.UserTypeIndividual,
		RegistrationDate: time.Now(),
	}
	_, err = bunDB.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	category := &models.Category{Name: "groceries"}
	_, err = bunDB.NewInsert().Model(category).Exec(ctx)
	require.NoError(t, err)

	product := &models.Product{
		Name:           "Basmati Rice 5kg",
		Description:    "Long grain rice",
		CategoryID:     category.CategoryID,
		RetailPrice:    10.0,
		WholesalePrice: 8.0,
		Stock:          5,
	}
	_, err = bunDB.NewInsert().Model(product).Exec(ctx)
	require.NoError(t, err)

	catalogService := catalog.NewCatalogService(&catalogdb.DB{Bun: bunDB})
	cartService := cart.NewCartService(&cartdb.DB{Bun: bunDB}, catalogService)
	couponService := coupon.NewCouponService(&coupondb.DB{Bun: bunDB})
	redisMock := NewMockRedisLock()
	kafkaMock := NewMockKafkaProducer()

	svc := order.NewOrderService(
		bunDB,
		&orderdb.DB{Bun: bunDB},
		cartService,
		couponService,
		redisMock,
		kafkaMock,
		topics(),
		logger.NewLogger(),
	)

	return &fixture{
		bun:     bunDB,
		svc:     svc,
		carts:   cartService,
		coupons: couponService,
		redis:   redisMock,
		kafka:   kafkaMock,
		user:    user,
	}
}

func (f *fixture) productStock(t *testing.T, productID int64) int {
	t.Helper()
	p := new(models.Product)
	err := f.bun.NewSelect().Model(p).Where("product_id = ?", productID).Scan(context.Background())
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) cartCount(t *testing.T) int {
	t.Helper()
	n, err := f.bun.NewSelect().Model((*models.CartItem)(nil)).
		Where("user_id = ?", f.user.UserID).Count(context.Background())
	require.NoError(t, err)
	return n
}

func (f *fixture) orderCount(t *testing.T) int {
	t.Helper()
	n, err := f.bun.NewSelect().Model((*models.Order)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestPlaceOrderHappyPath(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.carts.Add(ctx, f.user, 1, 2))

	resp, err := f.svc.PlaceOrder(ctx, f.user, "", "UPI")
	require.NoError(t, err)

	assert.InDelta(t, 20.0, resp.TotalAmount, 0.001)
	assert.Equal(t, "UPI", resp.PaymentMethod)
	assert.Nil(t, resp.IssuedCoupon, "first order does not reach the loyalty threshold")

	assert.Equal(t, 3, f.productStock(t, 1), "stock debited by purchased quantity")
	assert.Equal(t, 0, f.cartCount(t), "cart cleared on commit")

	details, err := f.svc.OrderDetails(ctx, f.user, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDone, details.Order.OrderStatus)
	assert.Equal(t, models.PaymentStatusDone, details.Order.PaymentStatus)
	require.Len(t, details.Items, 1)
	assert.InDelta(t, 10.0, details.Items[0].Price, 0.001, "unit price snapshot")

	assert.Len(t, f.kafka.messages["dollmart.order.placed"], 1)
}

func TestPlaceOrderWithCoupon(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	c := &models.Coupon{
		Code:               "SAVETEN1",
		DiscountPercentage: 10,
		ValidUntil:         time.Now().AddDate(0, 0, 10),
		UserID:             f.user.UserID,
	}
	_, err := f.bun.NewInsert().Model(c).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, f.carts.Add(ctx, f.user, 1, 2))

	resp, err := f.svc.PlaceOrder(ctx, f.user, "saveten1", "Credit Card")
	require.NoError(t, err)

	assert.InDelta(t, 18.0, resp.TotalAmount, 0.001)
	assert.InDelta(t, 2.0, resp.Discount, 0.001)

	stored := new(models.Coupon)
	err = f.bun.NewSelect().Model(stored).Where("coupon_id = ?", c.CouponID).Scan(ctx)
	require.NoError(t, err)
	assert.True(t, stored.IsUsed, "coupon consumed by the commit")

	// A second redemption attempt must fail
	require.NoError(t, f.carts.Add(ctx, f.user, 1, 1))
	_, err = f.svc.PlaceOrder(ctx, f.user, "SAVETEN1", "UPI")
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
}

func TestCommitRollsBackOnUnderstock(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	// Cart row added while stock was still there; shelf then drained by a
	// competing purchase.
	require.NoError(t, f.carts.Add(ctx, f.user, 1, 4))
	_, err := f.bun.NewUpdate().Model((*models.Product)(nil)).
		Set("stock = ?", 1).Where("product_id = ?", 1).Exec(ctx)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, f.user, "", "UPI")
	assert.ErrorIs(t, err, stock.ErrOutOfStock)

	assert.Equal(t, 0, f.orderCount(t), "no order row survives the rollback")
	assert.Equal(t, 1, f.productStock(t, 1), "stock untouched")
	assert.Equal(t, 1, f.cartCount(t), "cart preserved for the user to fix")
}

func TestCommitExactBoundaryThenConflict(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	// First purchase takes the shelf to exactly zero.
	require.NoError(t, f.carts.Add(ctx, f.user, 1, 5))
	_, err := f.svc.PlaceOrder(ctx, f.user, "", "UPI")
	require.NoError(t, err)
	assert.Equal(t, 0, f.productStock(t, 1))

	// A stale cart row for the same product can no longer be committed.
	stale := &models.CartItem{UserID: f.user.UserID, ProductID: 1, Quantity: 1}
	_, err = f.bun.NewInsert().Model(stale).Exec(ctx)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, f.user, "", "UPI")
	assert.ErrorIs(t, err, stock.ErrOutOfStock)
	assert.Equal(t, 1, f.orderCount(t))
}

func TestLoyaltyIssuanceAfterThreshold(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.carts.Add(ctx, f.user, 1, 1))
	first, err := f.svc.PlaceOrder(ctx, f.user, "", "UPI")
	require.NoError(t, err)
	assert.Nil(t, first.IssuedCoupon)

	require.NoError(t, f.carts.Add(ctx, f.user, 1, 1))
	second, err := f.svc.PlaceOrder(ctx, f.user, "", "UPI")
	require.NoError(t, err)
	require.NotNil(t, second.IssuedCoupon, "every second completed order earns a coupon")

	issued := second.IssuedCoupon
	assert.Equal(t, 9, issued.DiscountPercentage, "5 percent base plus 2 per completed order")
	assert.Len(t, issued.Code, 8)
	assert.False(t, issued.IsUsed)
	wantExpiry := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 30)
	assert.WithinDuration(t, wantExpiry, issued.ValidUntil, 24*time.Hour)

	user := new(models.User)
	err = f.bun.NewSelect().Model(user).Where("user_id = ?", f.user.UserID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, user.CouponCounter, "counter reset after issuance")

	assert.Len(t, f.kafka.messages["dollmart.coupon.issued"], 1)
}

func TestCheckoutStateMachine(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, err := f.svc.BeginCheckout(ctx, f.user)
	assert.ErrorIs(t, err, order.ErrEmptyCart)

	require.NoError(t, f.carts.Add(ctx, f.user, 1, 2))
	co, err := f.svc.BeginCheckout(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, order.StatePriced, co.State)
	assert.InDelta(t, 20.0, co.Subtotal, 0.001)

	// Bad coupon leaves the checkout priced and retryable
	err = f.svc.ApplyCoupon(ctx, co, "NOPE0000")
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	assert.Equal(t, order.StatePriced, co.State)

	err = f.svc.SelectPayment(co, "Cash On Delivery")
	assert.ErrorIs(t, err, order.ErrInvalidPaymentMethod)

	require.NoError(t, f.svc.SelectPayment(co, "Net Banking"))
	assert.Equal(t, order.StatePaymentSelected, co.State)

	_, err = f.svc.Commit(ctx, co)
	require.NoError(t, err)
	assert.Equal(t, order.StateCommitted, co.State)

	// A committed checkout cannot be committed twice
	_, err = f.svc.Commit(ctx, co)
	assert.Error(t, err)
	assert.Equal(t, 1, f.orderCount(t))
}

func TestCommitFailsWhenProductsLocked(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.carts.Add(ctx, f.user, 1, 1))
	f.redis.lockingSucceeds = false

	_, err := f.svc.PlaceOrder(ctx, f.user, "", "UPI")
	assert.Error(t, err)
	assert.Equal(t, 0, f.orderCount(t))
	assert.Equal(t, 5, f.productStock(t, 1))
}

func TestMyOrdersNewestFirstAndOwnerScoped(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.carts.Add(ctx, f.user, 1, 1))
	first, err := f.svc.PlaceOrder(ctx, f.user, "", "UPI")
	require.NoError(t, err)

	orders, err := f.svc.OrdersForUser(ctx, f.user, "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, first.OrderID, orders[0].OrderID)

	stranger := &models.User{UserID: 999, UserType: models.UserTypeIndividual}
	_, err = f.svc.OrderDetails(ctx, stranger, first.OrderID)
	assert.ErrorIs(t, err, order.ErrNotFound)

	all, err := f.svc.AllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, f.user.Email, all[0].UserEmail)
}
