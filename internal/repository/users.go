package repository

import (
	"context"
	"fmt"

	"github.com/jinzhu/gorm"

	"snackzinabi/internal/models"
)

// Users is the gorm-backed user store.
type Users struct {
	db *gorm.DB
}

// NewUsers creates the store.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Create registers a new user.
func (u *Users) Create(ctx context.Context, user *models.User) error {
	if err := u.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ByEmail looks a user up by email. Returns (nil, nil) when absent.
func (u *Users) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.db.Where("email = ?", email).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
