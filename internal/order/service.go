package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	cartdb "dollmart/internal/cart/db"
	"dollmart/internal/config"
	"dollmart/internal/coupon"
	coupondb "dollmart/internal/coupon/db"
	"dollmart/internal/logger"
	"dollmart/internal/models"
	orderdb "dollmart/internal/order/db"
	"dollmart/internal/stock"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrEmptyCart is returned when a checkout begins on a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidPaymentMethod rejects unrecognized payment methods instead
	// of silently falling back to a default.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrNotFound is returned when an order does not exist or is not owned
	// by the requesting user.
	ErrNotFound = errors.New("order not found")
)

// Checkout states. A checkout is an in-memory value; nothing is persisted
// until Commit succeeds, so an abandoned checkout leaves no trace.
const (
	StatePriced          = "priced"
	StateDiscounted      = "discounted"
	StatePaymentSelected = "payment_selected"
	StateCommitted       = "committed"
)

// PaymentMethods are the accepted values for SelectPayment.
var PaymentMethods = []string{"Credit Card", "UPI", "Net Banking"}

// Checkout carries one in-flight cart-to-order conversion.
type Checkout struct {
	ID            string
	User          *models.User
	Lines         []models.CartLine
	Subtotal      float64
	Discount      float64
	Total         float64
	Coupon        *models.Coupon
	PaymentMethod string
	State         string
}

type CartLayer interface {
	View(ctx context.Context, user *models.User) ([]models.CartLine, error)
}

type CouponLayer interface {
	Redeem(ctx context.Context, userID int64, code string, total float64) (*coupon.Redemption, error)
}

type RedisLock interface {
	LockProducts(ctx context.Context, productIDs []int64, checkoutID string) (bool, error)
	UnlockProducts(ctx context.Context, productIDs []int64, checkoutID string) error
	LockCoupon(ctx context.Context, code, checkoutID string) (bool, error)
	UnlockCoupon(ctx context.Context, code, checkoutID string) error
}

type KafkaPublisher interface {
	Publish(topic string, key string, value []byte) error
}

type DBLayer interface {
	OrdersForUser(ctx context.Context, userID int64, status string) ([]models.Order, error)
	GetOrderForUser(ctx context.Context, orderID, userID int64) (*models.Order, error)
	OrderItemsDetailed(ctx context.Context, orderID int64) ([]models.OrderItemDetail, error)
	AllOrders(ctx context.Context) ([]models.OrderWithUser, error)
}

type OrderService struct {
	Bun     *bun.DB
	DB      DBLayer
	Cart    CartLayer
	Coupons CouponLayer
	Redis   RedisLock
	Kafka   KafkaPublisher
	Topics  config.TopicConfig
	Logger  *logger.Logger
}

func NewOrderService(bunDB *bun.DB, db DBLayer, cart CartLayer, coupons CouponLayer, lock RedisLock, kafka KafkaPublisher, topics config.TopicConfig, log *logger.Logger) *OrderService {
	return &OrderService{
		Bun:     bunDB,
		DB:      db,
		Cart:    cart,
		Coupons: coupons,
		Redis:   lock,
		Kafka:   kafka,
		Topics:  topics,
		Logger:  log,
	}
}

// ---------------- CHECKOUT STATE MACHINE ----------------

// BeginCheckout prices the user's cart and opens a checkout.
func (s *OrderService) BeginCheckout(ctx context.Context, user *models.User) (*Checkout, error) {
	lines, err := s.Cart.View(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var subtotal float64
	for _, line := range lines {
		subtotal += line.LineTotal
	}

	return &Checkout{
		ID:       uuid.NewString(),
		User:     user,
		Lines:    lines,
		Subtotal: subtotal,
		Total:    subtotal,
		State:    StatePriced,
	}, nil
}

// ApplyCoupon discounts the checkout total. On failure the checkout stays
// priced and the caller may retry with a different code or skip the step.
func (s *OrderService) ApplyCoupon(ctx context.Context, co *Checkout, code string) error {
	if co.State != StatePriced {
		return errors.New("checkout is not in a valid state for applying a coupon")
	}

	redemption, err := s.Coupons.Redeem(ctx, co.User.UserID, code, co.Subtotal)
	if err != nil {
		return err
	}

	co.Coupon = redemption.Coupon
	co.Discount = redemption.Discount
	co.Total = redemption.DiscountedTotal
	co.State = StateDiscounted
	s.Logger.LogCoupon("APPLY", redemption.Coupon.Code, fmt.Sprintf("saved %.2f on checkout %s", co.Discount, co.ID))
	return nil
}

// SelectPayment records the payment method. Unrecognized input is an error,
// never a silent default.
func (s *OrderService) SelectPayment(co *Checkout, method string) error {
	if co.State != StatePriced && co.State != StateDiscounted {
		return errors.New("checkout is not in a valid state for payment selection")
	}
	for _, m := range PaymentMethods {
		if m == method {
			co.PaymentMethod = method
			co.State = StatePaymentSelected
			return nil
		}
	}
	return fmt.Errorf("%q: %w", method, ErrInvalidPaymentMethod)
}

// Commit converts the checkout into a persisted order. Everything runs in
// one transaction: order row, item snapshots, conditional stock debits,
// coupon redemption, cart clearing and loyalty issuance all land together
// or not at all. Payment is simulated and always succeeds.
func (s *OrderService) Commit(ctx context.Context, co *Checkout) (*models.PlaceOrderResponse, error) {
	if co.State != StatePaymentSelected {
		return nil, errors.New("checkout is not in a valid state for commit")
	}

	productIDs := make([]int64, len(co.Lines))
	for i, line := range co.Lines {
		productIDs[i] = line.ProductID
	}

	ok, err := s.Redis.LockProducts(ctx, productIDs, co.ID)
	if err != nil {
		return nil, fmt.Errorf("redis lock error: %w", err)
	}
	if !ok {
		return nil, errors.New("another checkout is committing one of these products")
	}
	defer func() {
		_ = s.Redis.UnlockProducts(ctx, productIDs, co.ID)
	}()

	if co.Coupon != nil {
		ok, err := s.Redis.LockCoupon(ctx, co.Coupon.Code, co.ID)
		if err != nil {
			return nil, fmt.Errorf("redis lock error: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("coupon %s is being redeemed elsewhere: %w", co.Coupon.Code, coupon.ErrInvalidCoupon)
		}
		defer func() {
			_ = s.Redis.UnlockCoupon(ctx, co.Coupon.Code, co.ID)
		}()
	}

	order := &models.Order{
		UserID:        co.User.UserID,
		OrderDate:     time.Now(),
		TotalAmount:   co.Total,
		PaymentStatus: models.PaymentStatusDone,
		PaymentMethod: co.PaymentMethod,
		OrderStatus:   models.OrderStatusDone,
	}
	var issued *models.Coupon

	err = s.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		orders := &orderdb.DB{Bun: tx}
		carts := &cartdb.DB{Bun: tx}
		ledger := &stock.Ledger{Bun: tx}
		loyalty := coupon.NewCouponService(&coupondb.DB{Bun: tx})

		if err := orders.InsertOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		items := make([]models.OrderItem, len(co.Lines))
		for i, line := range co.Lines {
			items[i] = models.OrderItem{
				OrderID:   order.OrderID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.UnitPrice,
			}
		}
		if err := orders.InsertOrderItems(ctx, items); err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}

		for _, line := range co.Lines {
			if err := ledger.Debit(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		if co.Coupon != nil {
			if err := loyalty.MarkUsed(ctx, co.Coupon.CouponID); err != nil {
				return err
			}
		}

		if err := carts.Clear(ctx, co.User.UserID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		issued, err = loyalty.MaybeIssue(ctx, co.User.UserID)
		return err
	})
	if err != nil {
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Commit failed for checkout %s: %v", co.ID, err))
		return nil, err
	}

	co.State = StateCommitted
	s.Logger.LogCheckout("COMMIT", order.OrderID, fmt.Sprintf("total %.2f via %s", order.TotalAmount, order.PaymentMethod))
	if issued != nil {
		s.Logger.LogCoupon("ISSUE", issued.Code, fmt.Sprintf("%d%% off until %s", issued.DiscountPercentage, issued.ValidUntil.Format("2006-01-02")))
	}

	s.publishOrderPlaced(order)
	if issued != nil {
		s.publishCouponIssued(issued)
	}

	return &models.PlaceOrderResponse{
		OrderID:       order.OrderID,
		TotalAmount:   order.TotalAmount,
		Discount:      co.Discount,
		PaymentMethod: order.PaymentMethod,
		IssuedCoupon:  issued,
	}, nil
}

// PlaceOrder runs the whole checkout in one call: price, optional coupon,
// payment selection, commit.
func (s *OrderService) PlaceOrder(ctx context.Context, user *models.User, couponCode, paymentMethod string) (*models.PlaceOrderResponse, error) {
	co, err := s.BeginCheckout(ctx, user)
	if err != nil {
		return nil, err
	}
	if couponCode != "" {
		if err := s.ApplyCoupon(ctx, co, couponCode); err != nil {
			return nil, err
		}
	}
	if err := s.SelectPayment(co, paymentMethod); err != nil {
		return nil, err
	}
	return s.Commit(ctx, co)
}

// ---------------- EVENTS ----------------

func (s *OrderService) publishOrderPlaced(order *models.Order) {
	if s.Kafka == nil {
		return
	}
	value, err := json.Marshal(order)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to marshal order event: %v", err))
		return
	}
	if err := s.Kafka.Publish(s.Topics.OrderPlaced, strconv.FormatInt(order.OrderID, 10), value); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Kafka publish error (order placed): %v", err))
	}
}

func (s *OrderService) publishCouponIssued(issued *models.Coupon) {
	if s.Kafka == nil {
		return
	}
	value, err := json.Marshal(issued)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to marshal coupon event: %v", err))
		return
	}
	if err := s.Kafka.Publish(s.Topics.CouponIssued, issued.Code, value); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Kafka publish error (coupon issued): %v", err))
	}
}

// ---------------- QUERIES ----------------

func (s *OrderService) OrdersForUser(ctx context.Context, user *models.User, status string) ([]models.Order, error) {
	orders, err := s.DB.OrdersForUser(ctx, user.UserID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// OrderDetails returns one order with its lines, scoped to the owner.
func (s *OrderService) OrderDetails(ctx context.Context, user *models.User, orderID int64) (*models.OrderDetails, error) {
	order, err := s.DB.GetOrderForUser(ctx, orderID, user.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}

	items, err := s.DB.OrderItemsDetailed(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return &models.OrderDetails{Order: order, Items: items}, nil
}

// AllOrders is the manager view across every customer.
func (s *OrderService) AllOrders(ctx context.Context) ([]models.OrderWithUser, error) {
	orders, err := s.DB.AllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list all orders: %w", err)
	}
	return orders, nil
}
