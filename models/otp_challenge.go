package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxOTPAttempts is the number of wrong codes allowed before a challenge is
// burned and the user has to request a new one.
const MaxOTPAttempts = 5

// OTPChallenge is a pending phone verification. The code itself is never
// stored, only its bcrypt hash. The challenge ID is the opaque handle handed
// back to the client.
type OTPChallenge struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Phone      string     `gorm:"not null;index" json:"phone"`
	CodeHash   string     `gorm:"not null" json:"-"`
	Attempts   int        `gorm:"default:0" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	VerifiedAt *time.Time `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (c *OTPChallenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
