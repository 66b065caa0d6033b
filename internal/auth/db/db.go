package db

import (
	"context"

	"dollmart/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun bun.IDB
}

func (d *DB) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user := new(models.User)
	err := d.Bun.NewSelect().
		Model(user).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := new(models.User)
	err := d.Bun.NewSelect().
		Model(user).
		Where("lower(email) = lower(?)", email).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DB) InsertUser(ctx context.Context, user *models.User) error {
	_, err := d.Bun.NewInsert().Model(user).Exec(ctx)
	return err
}

func (d *DB) UpdateUserType(ctx context.Context, userID int64, userType string) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("user_type = ?", userType).
		Where("user_id = ?", userID).
		Where("user_type != ?", models.UserTypeManager).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListCustomers returns every non-manager account, bulk buyers first, then
// alphabetical by name.
func (d *DB) ListCustomers(ctx context.Context) ([]models.CustomerSummary, error) {
	var customers []models.CustomerSummary
	err := d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Column("user_id", "first_name", "email", "user_type").
		Where("user_type != ?", models.UserTypeManager).
		Order("user_type DESC").
		Order("first_name ASC").
		Scan(ctx, &customers)
	if err != nil {
		return nil, err
	}
	return customers, nil
}
