package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dollmart/internal/models"
)

// ErrNotFound is returned when a product id does not resolve to a catalog row.
var ErrNotFound = errors.New("product not found")

type DBLayer interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, category, search string) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetOrCreateCategory(ctx context.Context, name string) (int64, error)
	InsertProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
}

type CatalogService struct {
	DB DBLayer
}

func NewCatalogService(db DBLayer) *CatalogService {
	return &CatalogService{DB: db}
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.DB.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, category, search string) ([]models.Product, error) {
	products, err := s.DB.ListProducts(ctx, category, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.DB.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// AddProduct creates a product, resolving (or creating) its category first.
func (s *CatalogService) AddProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, errors.New("product name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, errors.New("product category is required")
	}
	if input.RetailPrice < 0 || input.WholesalePrice < 0 || input.Stock < 0 {
		return nil, errors.New("prices and stock cannot be negative")
	}

	categoryID, err := s.DB.GetOrCreateCategory(ctx, input.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category %q: %w", input.Category, err)
	}

	product := &models.Product{
		Name:           input.Name,
		Description:    input.Description,
		CategoryID:     categoryID,
		RetailPrice:    input.RetailPrice,
		WholesalePrice: input.WholesalePrice,
		Stock:          input.Stock,
	}
	if err := s.DB.InsertProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return product, nil
}

// UpdateProduct applies the non-nil fields of the update to an existing
// product. Prices on past orders are snapshotted and unaffected.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, update models.ProductUpdate) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.RetailPrice != nil {
		product.RetailPrice = *update.RetailPrice
	}
	if update.WholesalePrice != nil {
		product.WholesalePrice = *update.WholesalePrice
	}
	if update.Stock != nil {
		if *update.Stock < 0 {
			return nil, errors.New("stock cannot be negative")
		}
		product.Stock = *update.Stock
	}

	if err := s.DB.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return product, nil
}
