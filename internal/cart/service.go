package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dollmart/internal/models"
	"dollmart/internal/stock"
)

// ErrNotFound is returned when a cart item does not exist or does not belong
// to the requesting user.
var ErrNotFound = errors.New("cart item not found")

type DBLayer interface {
	GetItem(ctx context.Context, userID, productID int64) (*models.CartItem, error)
	GetItemByID(ctx context.Context, userID, cartID int64) (*models.CartItem, error)
	ListItems(ctx context.Context, userID int64) ([]models.CartItem, error)
	Insert(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, cartID int64, quantity int) error
	Delete(ctx context.Context, cartID int64) error
	Clear(ctx context.Context, userID int64) error
}

type CatalogLayer interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

type CartService struct {
	DB      DBLayer
	Catalog CatalogLayer
}

func NewCartService(db DBLayer, catalog CatalogLayer) *CartService {
	return &CartService{DB: db, Catalog: catalog}
}

// Add puts qty units of a product into the user's cart. A second add of the
// same product merges into the existing row; the combined quantity is
// re-validated against stock, so the cart can never hold more of a product
// than the shelf does.
func (s *CartService) Add(ctx context.Context, user *models.User, productID int64, qty int) error {
	if qty < 1 {
		return errors.New("quantity must be at least 1")
	}

	product, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	existing, err := s.DB.GetItem(ctx, user.UserID, productID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read cart: %w", err)
	}

	combined := qty
	if existing != nil {
		combined += existing.Quantity
	}
	if !stock.ReserveCheck(product, combined) {
		return fmt.Errorf("product %d: %w", productID, stock.ErrOutOfStock)
	}

	if existing != nil {
		return s.DB.UpdateQuantity(ctx, existing.CartID, combined)
	}
	return s.DB.Insert(ctx, &models.CartItem{
		UserID:    user.UserID,
		ProductID: productID,
		Quantity:  qty,
	})
}

// View derives the user's priced line items. An empty cart yields an empty
// slice, not an error.
func (s *CartService) View(ctx context.Context, user *models.User) ([]models.CartLine, error) {
	items, err := s.DB.ListItems(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	lines := make([]models.CartLine, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		unitPrice := item.Product.PriceFor(user.UserType)
		line := models.CartLine{
			CartID:      item.CartID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Description: item.Product.Description,
			UnitPrice:   unitPrice,
			Quantity:    item.Quantity,
			LineTotal:   unitPrice * float64(item.Quantity),
		}
		if item.Product.Category != nil {
			line.Category = item.Product.Category.Name
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Update overwrites a cart item's quantity. Quantity zero removes the row.
func (s *CartService) Update(ctx context.Context, user *models.User, cartItemID int64, qty int) error {
	if qty < 0 {
		return errors.New("quantity cannot be negative")
	}

	item, err := s.DB.GetItemByID(ctx, user.UserID, cartItemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("cart item %d: %w", cartItemID, ErrNotFound)
		}
		return fmt.Errorf("failed to read cart item %d: %w", cartItemID, err)
	}

	if qty == 0 {
		return s.DB.Delete(ctx, item.CartID)
	}

	if item.Product == nil || !stock.ReserveCheck(item.Product, qty) {
		return fmt.Errorf("product %d: %w", item.ProductID, stock.ErrOutOfStock)
	}
	return s.DB.UpdateQuantity(ctx, item.CartID, qty)
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, user *models.User) error {
	if err := s.DB.Clear(ctx, user.UserID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
