package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brewpass-backend/models"
	"brewpass-backend/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ChallengeTTL is how long an OTP challenge stays confirmable.
const ChallengeTTL = 5 * time.Minute

var (
	// ErrChallengeNotFound covers unknown, expired, burned and already-used
	// challenges. Collapsed into one error so responses do not reveal which.
	ErrChallengeNotFound = errors.New("verification challenge not found or expired")
	ErrCodeMismatch      = errors.New("verification code does not match")
)

// PhoneVerifier is the identity-provider boundary: verifyPhone starts a
// challenge, confirmCode resolves it to a verified phone number. The
// redemption engine never touches this.
type PhoneVerifier interface {
	Start(ctx context.Context, phone string) (uuid.UUID, error)
	Confirm(ctx context.Context, challengeID uuid.UUID, code string) (string, error)
}

// OTPVerifier implements PhoneVerifier with database-backed challenges and
// SMS delivery. Codes are bcrypt-hashed at rest.
type OTPVerifier struct {
	DB     *gorm.DB
	Sender utils.SMSSender
}

func NewOTPVerifier(db *gorm.DB, sender utils.SMSSender) *OTPVerifier {
	return &OTPVerifier{DB: db, Sender: sender}
}

func (v *OTPVerifier) Start(ctx context.Context, phone string) (uuid.UUID, error) {
	if err := utils.ValidatePhone(phone); err != nil {
		return uuid.Nil, err
	}

	code, err := utils.GenerateOTP(utils.OTPDigits)
	if err != nil {
		return uuid.Nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, err
	}

	challenge := models.OTPChallenge{
		ID:        uuid.New(),
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(ChallengeTTL),
	}
	if err := v.DB.WithContext(ctx).Create(&challenge).Error; err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	utils.SendOTP(v.Sender, phone, code)
	return challenge.ID, nil
}

func (v *OTPVerifier) Confirm(ctx context.Context, challengeID uuid.UUID, code string) (string, error) {
	var challenge models.OTPChallenge
	err := v.DB.WithContext(ctx).
		Where("id = ? AND verified_at IS NULL AND expires_at > ? AND attempts < ?",
			challengeID, time.Now(), models.MaxOTPAttempts).
		First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrChallengeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)) != nil {
		v.DB.WithContext(ctx).Model(&challenge).
			UpdateColumn("attempts", gorm.Expr("attempts + 1"))
		return "", ErrCodeMismatch
	}

	now := time.Now()
	if err := v.DB.WithContext(ctx).Model(&challenge).
		Update("verified_at", &now).Error; err != nil {
		return "", fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	return challenge.Phone, nil
}
