// Package postgres persists the payment, order, and artwork aggregates with
// GORM. Status transitions on payment transactions use conditional updates so
// two reconciliation calls can never both claim the same transition.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database and migrates the schema. TranslateError is on
// so duplicate-key violations surface as gorm.ErrDuplicatedKey regardless of
// the driver.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.AutoMigrate(
		&paymentRow{},
		&eventRow{},
		&orderRow{},
		&orderItemRow{},
		&artworkRow{},
	); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return db, nil
}
