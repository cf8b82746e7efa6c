// Package store implements the relational persistence layer: the users
// relation consumed by the auth core and the tasks relation behind the
// to-do surface.
package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database. TranslateError is on so that
// duplicate-key violations surface as gorm.ErrDuplicatedKey regardless of
// driver; the user store maps those onto the auth error taxonomy.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch driver {
	case "postgres":
		dial = postgres.Open(dsn)
	case "sqlite":
		dial = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	db, err := gorm.Open(dial, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	return db, nil
}

// AutoMigrate creates or updates the schema, including the unique indexes
// the auth core's find-or-create race handling relies on.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{}, &TaskModel{})
}
