package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShopOwner is the ownership relation. Rows are created at shop registration
// (the creator) or by an existing owner adding another principal. Rows are
// never deleted.
type ShopOwner struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shop_owner;index" json:"shop_id"`
	Shop      Shop      `gorm:"foreignKey:ShopID" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shop_owner" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Role      string    `gorm:"not null;default:'owner'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (so *ShopOwner) BeforeCreate(tx *gorm.DB) error {
	if so.ID == uuid.Nil {
		so.ID = uuid.New()
	}
	return nil
}
