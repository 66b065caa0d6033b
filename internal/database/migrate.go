package database

import (
	"context"
	"fmt"
	"time"

	"dollmart/internal/auth"
	"dollmart/internal/config"
	"dollmart/internal/logger"
	"dollmart/internal/models"

	"github.com/uptrace/bun"
)

// tables lists every model in dependency order.
var tables = []interface{}{
	(*models.User)(nil),
	(*models.Category)(nil),
	(*models.Product)(nil),
	(*models.CartItem)(nil),
	(*models.Order)(nil),
	(*models.OrderItem)(nil),
	(*models.Coupon)(nil),
}

// Migrate creates any missing tables and seeds the manager account.
func Migrate(ctx context.Context, db *bun.DB, cfg config.AuthConfig, log *logger.Logger) error {
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T failed: %w", m, err)
		}
	}
	log.Info("DATABASE", "Schema is up to date")

	return seedManager(ctx, db, cfg, log)
}

// seedManager inserts the manager account on first run.
func seedManager(ctx context.Context, db *bun.DB, cfg config.AuthConfig, log *logger.Logger) error {
	exists, err := db.NewSelect().
		Model((*models.User)(nil)).
		Where("email = ?", cfg.ManagerEmail).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("manager lookup failed: %w", err)
	}
	if exists {
		return nil
	}

	manager := &models.User{
		FirstName:        "Manager",
		Email:            cfg.ManagerEmail,
		ContactNumber:    "0000000000",
		Password:         auth.HashPassword(cfg.ManagerPassword),
		UserType:         models.UserTypeManager,
		RegistrationDate: time.Now(),
	}
	if _, err := db.NewInsert().Model(manager).Exec(ctx); err != nil {
		return fmt.Errorf("manager seed failed: %w", err)
	}

	log.Info("DATABASE", "Manager account created")
	return nil
}
