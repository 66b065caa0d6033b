package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dollmart/internal/models"
	"dollmart/internal/utils"
)

// ErrInvalidCoupon is returned when a code does not match any of the user's
// available coupons, or when a coupon is redeemed twice.
var ErrInvalidCoupon = errors.New("invalid coupon code")

const (
	// IssueThreshold is how many completed orders earn one coupon.
	IssueThreshold = 2
	// CodeLength is the number of characters in a generated coupon code.
	CodeLength = 8
	// ValidityDays is how long an issued coupon stays redeemable.
	ValidityDays = 30

	baseDiscountPct = 5
	maxDiscountPct  = 15
)

type DBLayer interface {
	ListForUser(ctx context.Context, userID int64) ([]models.Coupon, error)
	ListAvailable(ctx context.Context, userID int64, now time.Time) ([]models.Coupon, error)
	GetByID(ctx context.Context, couponID int64) (*models.Coupon, error)
	Insert(ctx context.Context, coupon *models.Coupon) error
	MarkUsed(ctx context.Context, couponID int64) (int64, error)
	CountCompletedOrders(ctx context.Context, userID int64) (int, error)
	GetCouponCounter(ctx context.Context, userID int64) (int, error)
	ResetCouponCounter(ctx context.Context, userID int64) error
	IncrementCouponCounter(ctx context.Context, userID int64) error
}

type CouponService struct {
	DB DBLayer
}

func NewCouponService(db DBLayer) *CouponService {
	return &CouponService{DB: db}
}

// Redemption is the outcome of applying a coupon to an order total.
type Redemption struct {
	Coupon          *models.Coupon `json:"coupon"`
	Discount        float64        `json:"discount"`
	DiscountedTotal float64        `json:"discounted_total"`
}

func (s *CouponService) ListForUser(ctx context.Context, userID int64) ([]models.Coupon, error) {
	coupons, err := s.DB.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

func (s *CouponService) ListAvailable(ctx context.Context, userID int64) ([]models.Coupon, error) {
	coupons, err := s.DB.ListAvailable(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list available coupons: %w", err)
	}
	return coupons, nil
}

// GetForUser loads one coupon, scoped to its owner.
func (s *CouponService) GetForUser(ctx context.Context, userID, couponID int64) (*models.Coupon, error) {
	coupon, err := s.DB.GetByID(ctx, couponID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("coupon %d: %w", couponID, ErrInvalidCoupon)
		}
		return nil, fmt.Errorf("failed to load coupon %d: %w", couponID, err)
	}
	if coupon.UserID != userID {
		return nil, fmt.Errorf("coupon %d: %w", couponID, ErrInvalidCoupon)
	}
	return coupon, nil
}

// Redeem matches a code against the user's available coupons and computes
// the discount. Codes compare case-insensitively (input is uppercased).
// The coupon is NOT marked used here; that happens inside the order commit
// transaction, so an abandoned checkout costs the user nothing.
func (s *CouponService) Redeem(ctx context.Context, userID int64, code string, total float64) (*Redemption, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	available, err := s.ListAvailable(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range available {
		if available[i].Code == code {
			coupon := available[i]
			discount := total * float64(coupon.DiscountPercentage) / 100
			return &Redemption{
				Coupon:          &coupon,
				Discount:        discount,
				DiscountedTotal: total - discount,
			}, nil
		}
	}
	return nil, fmt.Errorf("code %s: %w", code, ErrInvalidCoupon)
}

// MaybeIssue runs the loyalty policy after a completed order, against
// whatever DB layer the service was built over (the order commit points it
// at its own transaction). Every IssueThreshold-th qualifying order earns a
// coupon; the discount grows with the user's completed-order count and caps
// at maxDiscountPct. Returns nil when no coupon was due.
func (s *CouponService) MaybeIssue(ctx context.Context, userID int64) (*models.Coupon, error) {
	completed, err := s.DB.CountCompletedOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed orders: %w", err)
	}
	counter, err := s.DB.GetCouponCounter(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read coupon counter: %w", err)
	}

	if counter+1 < IssueThreshold {
		if err := s.DB.IncrementCouponCounter(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to increment coupon counter: %w", err)
		}
		return nil, nil
	}

	pct := baseDiscountPct + completed*2
	if pct > maxDiscountPct {
		pct = maxDiscountPct
	}

	coupon := &models.Coupon{
		Code:               utils.RandomCode(CodeLength),
		DiscountPercentage: pct,
		ValidUntil:         time.Now().Truncate(24 * time.Hour).AddDate(0, 0, ValidityDays),
		IsUsed:             false,
		UserID:             userID,
	}
	if err := s.DB.Insert(ctx, coupon); err != nil {
		return nil, fmt.Errorf("failed to insert coupon: %w", err)
	}
	if err := s.DB.ResetCouponCounter(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to reset coupon counter: %w", err)
	}
	return coupon, nil
}

// MarkUsed redeems a coupon for good. The underlying update is guarded on
// is_used, so a coupon racing two commits is only consumed by one of them.
func (s *CouponService) MarkUsed(ctx context.Context, couponID int64) error {
	affected, err := s.DB.MarkUsed(ctx, couponID)
	if err != nil {
		return fmt.Errorf("failed to mark coupon %d used: %w", couponID, err)
	}
	if affected == 0 {
		return fmt.Errorf("coupon %d already redeemed: %w", couponID, ErrInvalidCoupon)
	}
	return nil
}
