package cart_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"dollmart/internal/cart"
	"dollmart/internal/catalog"
	"dollmart/internal/models"
	"dollmart/internal/stock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations for testing

type MockCartDB struct {
	items        map[int64]*models.CartItem
	nextID       int64
	shouldFailOn string
	errorMsg     string
}

func NewMockCartDB() *MockCartDB {
	return &MockCartDB{
		items:  make(map[int64]*models.CartItem),
		nextID: 1,
	}
}

func (m *MockCartDB) GetItem(ctx context.Context, userID, productID int64) (*models.CartItem, error) {
	if m.shouldFailOn == "GetItem" {
		return nil, errors.New(m.errorMsg)
	}
	for _, item := range m.items {
		if item.UserID == userID && item.ProductID == productID {
			return item, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockCartDB) GetItemByID(ctx context.Context, userID, cartID int64) (*models.CartItem, error) {
	item, ok := m.items[cartID]
	if !ok || item.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return item, nil
}

func (m *MockCartDB) ListItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	if m.shouldFailOn == "ListItems" {
		return nil, errors.New(m.errorMsg)
	}
	var out []models.CartItem
	for _, item := range m.items {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *MockCartDB) Insert(ctx context.Context, item *models.CartItem) error {
	if m.shouldFailOn == "Insert" {
		return errors.New(m.errorMsg)
	}
	item.CartID = m.nextID
	m.nextID++
	stored := *item
	m.items[item.CartID] = &stored
	return nil
}

func (m *MockCartDB) UpdateQuantity(ctx context.Context, cartID int64, quantity int) error {
	item, ok := m.items[cartID]
	if !ok {
		return sql.ErrNoRows
	}
	item.Quantity = quantity
	return nil
}

func (m *MockCartDB) Delete(ctx context.Context, cartID int64) error {
	delete(m.items, cartID)
	return nil
}

func (m *MockCartDB) Clear(ctx context.Context, userID int64) error {
	for id, item := range m.items {
		if item.UserID == userID {
			delete(m.items, id)
		}
	}
	return nil
}

type MockCatalog struct {
	products map[int64]*models.Product
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{products: make(map[int64]*models.Product)}
}

func (m *MockCatalog) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func setupCart() (*MockCartDB, *MockCatalog, *cart.CartService, *models.User) {
	db := NewMockCartDB()
	cat := NewMockCatalog()
	cat.products[1] = &models.Product{
		ProductID:      1,
		Name:           "Basmati Rice 5kg",
		RetailPrice:    10.0,
		WholesalePrice: 8.0,
		Stock:          5,
	}
	user := &models.User{UserID: 7, UserType: models.UserTypeIndividual}
	return db, cat, cart.NewCartService(db, cat), user
}

func TestAddInsertsNewItem(t *testing.T) {
	db, _, svc, user := setupCart()

	err := svc.Add(context.Background(), user, 1, 2)
	require.NoError(t, err)

	item, err := db.GetItem(context.Background(), user.UserID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
}

func TestAddMergesAndRevalidatesStock(t *testing.T) {
	_, _, svc, user := setupCart()

	require.NoError(t, svc.Add(context.Background(), user, 1, 3))

	// 3 in cart + 2 requested = 5, exactly the shelf stock
	require.NoError(t, svc.Add(context.Background(), user, 1, 2))

	// One more unit would exceed stock
	err := svc.Add(context.Background(), user, 1, 1)
	assert.ErrorIs(t, err, stock.ErrOutOfStock)
}

func TestAddRejectsBadInput(t *testing.T) {
	_, _, svc, user := setupCart()

	assert.Error(t, svc.Add(context.Background(), user, 1, 0))
	assert.ErrorIs(t, svc.Add(context.Background(), user, 99, 1), catalog.ErrNotFound)
	assert.ErrorIs(t, svc.Add(context.Background(), user, 1, 6), stock.ErrOutOfStock)
}

func TestViewPricesByUserType(t *testing.T) {
	db, cat, svc, user := setupCart()

	require.NoError(t, svc.Add(context.Background(), user, 1, 2))
	// Wire the product relation the way a joined select would
	for _, item := range db.items {
		item.Product = cat.products[item.ProductID]
	}

	lines, err := svc.View(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.InDelta(t, 20.0, lines[0].LineTotal, 0.001)

	bulk := &models.User{UserID: user.UserID, UserType: models.UserTypeBulk}
	lines, err = svc.View(context.Background(), bulk)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.InDelta(t, 16.0, lines[0].LineTotal, 0.001, "bulk buyers pay wholesale")
}

func TestUpdateZeroRemovesItem(t *testing.T) {
	db, cat, svc, user := setupCart()

	require.NoError(t, svc.Add(context.Background(), user, 1, 2))
	var cartID int64
	for _, item := range db.items {
		item.Product = cat.products[item.ProductID]
		cartID = item.CartID
	}

	require.NoError(t, svc.Update(context.Background(), user, cartID, 0))
	assert.Empty(t, db.items)
}

func TestUpdateIsOwnerScoped(t *testing.T) {
	db, cat, svc, user := setupCart()

	require.NoError(t, svc.Add(context.Background(), user, 1, 2))
	var cartID int64
	for _, item := range db.items {
		item.Product = cat.products[item.ProductID]
		cartID = item.CartID
	}

	stranger := &models.User{UserID: 99, UserType: models.UserTypeIndividual}
	err := svc.Update(context.Background(), stranger, cartID, 1)
	assert.ErrorIs(t, err, cart.ErrNotFound)

	err = svc.Update(context.Background(), user, cartID, 9)
	assert.ErrorIs(t, err, stock.ErrOutOfStock)
}

func TestClearEmptiesOnlyOwnCart(t *testing.T) {
	db, _, svc, user := setupCart()

	require.NoError(t, svc.Add(context.Background(), user, 1, 1))
	other := &models.User{UserID: 42, UserType: models.UserTypeIndividual}
	require.NoError(t, svc.Add(context.Background(), other, 1, 1))

	require.NoError(t, svc.Clear(context.Background(), user))

	_, err := db.GetItem(context.Background(), user.UserID, 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = db.GetItem(context.Background(), other.UserID, 1)
	assert.NoError(t, err)
}
