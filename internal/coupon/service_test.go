package coupon_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"dollmart/internal/coupon"
	"dollmart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations for testing

type MockCouponDB struct {
	coupons      map[int64]*models.Coupon
	counters     map[int64]int
	completed    map[int64]int
	nextID       int64
	shouldFailOn string
	errorMsg     string
}

func NewMockCouponDB() *MockCouponDB {
	return &MockCouponDB{
		coupons:   make(map[int64]*models.Coupon),
		counters:  make(map[int64]int),
		completed: make(map[int64]int),
		nextID:    1,
	}
}

func (m *MockCouponDB) ListForUser(ctx context.Context, userID int64) ([]models.Coupon, error) {
	if m.shouldFailOn == "ListForUser" {
		return nil, errors.New(m.errorMsg)
	}
	var out []models.Coupon
	for _, c := range m.coupons {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *MockCouponDB) ListAvailable(ctx context.Context, userID int64, now time.Time) ([]models.Coupon, error) {
	if m.shouldFailOn == "ListAvailable" {
		return nil, errors.New(m.errorMsg)
	}
	var out []models.Coupon
	for _, c := range m.coupons {
		if c.UserID == userID && !c.IsUsed && !c.ValidUntil.Before(now.Truncate(24*time.Hour)) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *MockCouponDB) GetByID(ctx context.Context, couponID int64) (*models.Coupon, error) {
	c, ok := m.coupons[couponID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *c
	return &out, nil
}

func (m *MockCouponDB) Insert(ctx context.Context, c *models.Coupon) error {
	if m.shouldFailOn == "Insert" {
		return errors.New(m.errorMsg)
	}
	c.CouponID = m.nextID
	m.nextID++
	stored := *c
	m.coupons[c.CouponID] = &stored
	return nil
}

func (m *MockCouponDB) MarkUsed(ctx context.Context, couponID int64) (int64, error) {
	if m.shouldFailOn == "MarkUsed" {
		return 0, errors.New(m.errorMsg)
	}
	c, ok := m.coupons[couponID]
	if !ok || c.IsUsed {
		return 0, nil
	}
	c.IsUsed = true
	return 1, nil
}

func (m *MockCouponDB) CountCompletedOrders(ctx context.Context, userID int64) (int, error) {
	if m.shouldFailOn == "CountCompletedOrders" {
		return 0, errors.New(m.errorMsg)
	}
	return m.completed[userID], nil
}

func (m *MockCouponDB) GetCouponCounter(ctx context.Context, userID int64) (int, error) {
	return m.counters[userID], nil
}

func (m *MockCouponDB) ResetCouponCounter(ctx context.Context, userID int64) error {
	m.counters[userID] = 0
	return nil
}

func (m *MockCouponDB) IncrementCouponCounter(ctx context.Context, userID int64) error {
	m.counters[userID]++
	return nil
}

func (m *MockCouponDB) addCoupon(c models.Coupon) *models.Coupon {
	c.CouponID = m.nextID
	m.nextID++
	m.coupons[c.CouponID] = &c
	return m.coupons[c.CouponID]
}

func TestRedeemIsCaseInsensitive(t *testing.T) {
	db := NewMockCouponDB()
	db.addCoupon(models.Coupon{
		Code:               "AB12CD34",
		DiscountPercentage: 10,
		ValidUntil:         time.Now().AddDate(0, 0, 10),
		UserID:             1,
	})
	svc := coupon.NewCouponService(db)

	redemption, err := svc.Redeem(context.Background(), 1, "  ab12cd34 ", 20.0)
	require.NoError(t, err)
	assert.Equal(t, "AB12CD34", redemption.Coupon.Code)
	assert.InDelta(t, 2.0, redemption.Discount, 0.001)
	assert.InDelta(t, 18.0, redemption.DiscountedTotal, 0.001)
}

func TestRedeemRejectsUnknownAndUsedCodes(t *testing.T) {
	db := NewMockCouponDB()
	db.addCoupon(models.Coupon{
		Code:               "USED1234",
		DiscountPercentage: 10,
		ValidUntil:         time.Now().AddDate(0, 0, 10),
		IsUsed:             true,
		UserID:             1,
	})
	db.addCoupon(models.Coupon{
		Code:               "EXPIRED1",
		DiscountPercentage: 10,
		ValidUntil:         time.Now().AddDate(0, 0, -1),
		UserID:             1,
	})
	svc := coupon.NewCouponService(db)

	for _, code := range []string{"NOPE0000", "USED1234", "EXPIRED1", ""} {
		_, err := svc.Redeem(context.Background(), 1, code, 50.0)
		assert.ErrorIs(t, err, coupon.ErrInvalidCoupon, "code %q", code)
	}
}

func TestRedeemIgnoresOtherUsersCoupons(t *testing.T) {
	db := NewMockCouponDB()
	db.addCoupon(models.Coupon{
		Code:               "THEIRS99",
		DiscountPercentage: 15,
		ValidUntil:         time.Now().AddDate(0, 0, 10),
		UserID:             2,
	})
	svc := coupon.NewCouponService(db)

	_, err := svc.Redeem(context.Background(), 1, "THEIRS99", 50.0)
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
}

func TestMaybeIssueIncrementsCounterBelowThreshold(t *testing.T) {
	db := NewMockCouponDB()
	svc := coupon.NewCouponService(db)

	issued, err := svc.MaybeIssue(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, issued)
	assert.Equal(t, 1, db.counters[1])
	assert.Empty(t, db.coupons)
}

func TestMaybeIssueAtThreshold(t *testing.T) {
	db := NewMockCouponDB()
	db.counters[1] = 1
	db.completed[1] = 2
	svc := coupon.NewCouponService(db)

	issued, err := svc.MaybeIssue(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, issued)

	assert.Equal(t, 9, issued.DiscountPercentage, "5 percent base plus 2 per completed order")
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), issued.Code)
	assert.False(t, issued.IsUsed)
	assert.Equal(t, int64(1), issued.UserID)
	assert.Equal(t, 0, db.counters[1], "counter resets after issuance")

	wantExpiry := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 30)
	assert.WithinDuration(t, wantExpiry, issued.ValidUntil, 24*time.Hour)
}

func TestDiscountSchedule(t *testing.T) {
	cases := []struct {
		completed int
		wantPct   int
	}{
		{0, 5},
		{2, 9},
		{4, 13},
		{5, 15},
		{10, 15},
	}

	for _, tc := range cases {
		db := NewMockCouponDB()
		db.counters[1] = 1
		db.completed[1] = tc.completed
		svc := coupon.NewCouponService(db)

		issued, err := svc.MaybeIssue(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, issued)
		assert.Equal(t, tc.wantPct, issued.DiscountPercentage, "completed=%d", tc.completed)
	}
}

func TestMarkUsedOnlyOnce(t *testing.T) {
	db := NewMockCouponDB()
	c := db.addCoupon(models.Coupon{
		Code:               "ONCE0000",
		DiscountPercentage: 10,
		ValidUntil:         time.Now().AddDate(0, 0, 10),
		UserID:             1,
	})
	svc := coupon.NewCouponService(db)

	require.NoError(t, svc.MarkUsed(context.Background(), c.CouponID))
	err := svc.MarkUsed(context.Background(), c.CouponID)
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
}

func TestGetForUserScopesToOwner(t *testing.T) {
	db := NewMockCouponDB()
	c := db.addCoupon(models.Coupon{
		Code:               "MINE0000",
		DiscountPercentage: 10,
		ValidUntil:         time.Now().AddDate(0, 0, 10),
		UserID:             1,
	})
	svc := coupon.NewCouponService(db)

	got, err := svc.GetForUser(context.Background(), 1, c.CouponID)
	require.NoError(t, err)
	assert.Equal(t, c.Code, got.Code)

	_, err = svc.GetForUser(context.Background(), 2, c.CouponID)
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)

	_, err = svc.GetForUser(context.Background(), 1, 999)
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
}
