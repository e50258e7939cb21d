package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierworks/storefront/internal/models"
)

func (r *GormRepo) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("external_id = ?", externalID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUserWithCart inserts the user and their cart in one transaction; the
// two are born together and the cart stays for the user's lifetime.
func (r *GormRepo) CreateUserWithCart(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return tx.Create(&models.Cart{UserID: u.ID}).Error
	})
}
