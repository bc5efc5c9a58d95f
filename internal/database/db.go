package database

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"snackzinabi/internal/models"
)

var db *gorm.DB

// InitDB opens the database connection for the given gorm driver
// ("sqlite3" or "postgres") and runs the schema migration.
func InitDB(driver, dsn string) error {
	var err error
	db, err = gorm.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("connect to %s database: %w", driver, err)
	}

	db.DB().SetMaxIdleConns(10)
	db.DB().SetMaxOpenConns(100)
	db.DB().SetConnMaxLifetime(time.Hour)

	return Migrate(db)
}

// Migrate creates or updates the schema for all persisted models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Commande{},
	).Error
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return db
}

// CloseDB closes the database connection.
func CloseDB() error {
	if db != nil {
		return db.Close()
	}
	return nil
}
