package store

import (
	"fmt"

	"gorm.io/gorm"
)

// UserRepository provides access to user accounts.
type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Create(user *User) error {
	if err := r.db.Create(user).Error; err != nil {
		if t := translate(err); t == ErrDuplicate {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(id string) (*User, error) {
	var user User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if t := translate(err); t == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*User, error) {
	var user User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if t := translate(err); t == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// LinkProvider attaches an OAuth identity to an existing account.
func (r *UserRepository) LinkProvider(id, provider, providerID string) error {
	result := r.db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"auth_provider": provider,
		"provider_id":   providerID,
	})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to link provider: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByProvider looks up the account linked to an OAuth identity.
func (r *UserRepository) FindByProvider(provider, providerID string) (*User, error) {
	var user User
	err := r.db.First(&user, "auth_provider = ? AND provider_id = ?", provider, providerID).Error
	if err != nil {
		if t := translate(err); t == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
