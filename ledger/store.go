package ledger

import (
	"context"
	"errors"
	"fmt"

	"brewpass-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BalanceStore reads and mutates per-(principal, shop) point balances.
// ApplyDelta must be atomic at the store level: concurrent deltas on the
// same key serialize so the final balance is the sum of the deltas that
// succeeded, and a failed call leaves the balance untouched.
type BalanceStore interface {
	// GetBalance returns the current balance, 0 when no record exists.
	GetBalance(ctx context.Context, userID, shopID uuid.UUID) (int, error)
	// ApplyDelta adds delta (positive or negative) and returns the
	// post-mutation balance. Returns ErrNegativeBalance instead of letting
	// points go below zero.
	ApplyDelta(ctx context.Context, userID, shopID uuid.UUID, delta int) (int, error)
}

// GormStore is the BalanceStore backed by the relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetBalance(ctx context.Context, userID, shopID uuid.UUID) (int, error) {
	var balance models.Balance
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND shop_id = ?", userID, shopID).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return balance.Points, nil
}

func (s *GormStore) ApplyDelta(ctx context.Context, userID, shopID uuid.UUID, delta int) (int, error) {
	var points int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lazy row creation. A concurrent insert for the same key loses the
		// conflict and is ignored; both writers then race on the UPDATE
		// below, which the database serializes.
		seed := models.Balance{ID: uuid.New(), UserID: userID, ShopID: shopID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "shop_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		// Single guarded UPDATE: the read-modify-write happens inside the
		// database, so concurrent deltas cannot lose updates, and the guard
		// rejects underflow instead of clamping.
		res := tx.Model(&models.Balance{}).
			Where("user_id = ? AND shop_id = ? AND points + ? >= 0", userID, shopID, delta).
			UpdateColumn("points", gorm.Expr("points + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNegativeBalance
		}

		var balance models.Balance
		if err := tx.Where("user_id = ? AND shop_id = ?", userID, shopID).
			First(&balance).Error; err != nil {
			return err
		}
		points = balance.Points
		return nil
	})

	if errors.Is(err, ErrNegativeBalance) {
		return 0, ErrNegativeBalance
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return points, nil
}
