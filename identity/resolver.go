// Package identity maps authenticated principals to roles and shop-scoped
// owner authority, and owns the phone verification boundary.
package identity

import (
	"context"
	"errors"
	"fmt"

	"brewpass-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrIdentityUnavailable means the identity store could not be reached.
// Callers must degrade to anonymous; an unavailable provider never grants
// owner privileges.
var ErrIdentityUnavailable = errors.New("identity provider unavailable")

type Resolver struct {
	DB *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{DB: db}
}

// Resolve looks up the principal behind an authenticated session. An unknown
// id resolves to nil (anonymous) without error; only store failures are
// errors.
func (r *Resolver) Resolve(ctx context.Context, principalID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where("id = ?", principalID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	return &user, nil
}

// IsOwnerOf is a pure lookup against the ownership relation. No caching
// beyond the store's own consistency model.
func (r *Resolver) IsOwnerOf(ctx context.Context, principalID, shopID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.ShopOwner{}).
		Where("user_id = ? AND shop_id = ?", principalID, shopID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	return count > 0, nil
}

// GrantOwnership records a principal as an owner of a shop and promotes
// their role. It is the single code path for both the registration bootstrap
// (the shop's creator) and later owner additions, so multi-owner management
// composes on top of it. Granting to an existing owner is a no-op.
func (r *Resolver) GrantOwnership(ctx context.Context, shopID, principalID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ShopOwner{}).
			Where("user_id = ? AND shop_id = ?", principalID, shopID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		grant := models.ShopOwner{
			ShopID: shopID,
			UserID: principalID,
			Role:   models.RoleOwner,
		}
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}

		// The owner flag is global; a principal added to any shop is an
		// owner everywhere they were explicitly added, never a customer of
		// the same shop.
		return tx.Model(&models.User{}).
			Where("id = ?", principalID).
			Update("role", models.RoleOwner).Error
	})
}
