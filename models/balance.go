package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Balance is the per-(user, shop) point count. Rows are created lazily on the
// first mutation and never deleted. Points must stay >= 0; the store rejects
// any delta that would go below zero instead of clamping.
type Balance struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balance_user_shop;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balance_user_shop" json:"shop_id"`
	Shop      Shop      `gorm:"foreignKey:ShopID" json:"-"`
	Points    int       `gorm:"not null;default:0" json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Balance) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
