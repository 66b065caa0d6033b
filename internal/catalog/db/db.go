package db

import (
	"context"
	"strings"

	"dollmart/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun bun.IDB
}

// GetProduct fetches one product with its category by id.
func (d *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := d.Bun.NewSelect().
		Model(&product).
		Relation("Category").
		Where("product.product_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns products with categories, optionally filtered by
// category name and/or a keyword matched against name and description.
func (d *DB) ListProducts(ctx context.Context, category, search string) ([]models.Product, error) {
	var products []models.Product
	q := d.Bun.NewSelect().
		Model(&products).
		Relation("Category").
		Order("product.product_id ASC")

	if category != "" {
		q = q.Where("category.name = ?", strings.ToLower(category))
	}
	if search != "" {
		pattern := "%" + search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("product.name LIKE ?", pattern).
				WhereOr("product.description LIKE ?", pattern)
		})
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return products, nil
}

func (d *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := d.Bun.NewSelect().
		Model(&categories).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// GetOrCreateCategory resolves a category name to its id, creating the row
// when it does not exist yet. Names are stored lowercased.
func (d *DB) GetOrCreateCategory(ctx context.Context, name string) (int64, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	var category models.Category
	err := d.Bun.NewSelect().
		Model(&category).
		Where("name = ?", name).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return category.CategoryID, nil
	}

	category = models.Category{Name: name}
	if _, err := d.Bun.NewInsert().Model(&category).Exec(ctx); err != nil {
		return 0, err
	}
	return category.CategoryID, nil
}

func (d *DB) InsertProduct(ctx context.Context, product *models.Product) error {
	_, err := d.Bun.NewInsert().Model(product).Exec(ctx)
	return err
}

// UpdateProduct overwrites the given pricing/stock columns.
func (d *DB) UpdateProduct(ctx context.Context, product *models.Product) error {
	_, err := d.Bun.NewUpdate().
		Model(product).
		Column("retail_price", "wholesale_price", "stock").
		Where("product_id = ?", product.ProductID).
		Exec(ctx)
	return err
}
