// Package ledger holds the points ledger: the balance store adapter and the
// redemption engine that turns decoded scan intents into authorized,
// store-atomic balance changes.
package ledger

import (
	"context"
	"log"
	"time"

	"brewpass-backend/config"
	"brewpass-backend/qr"

	"github.com/google/uuid"
)

type State string

const (
	// StateEarned: a customer's join scan credited their own balance.
	StateEarned State = "earned"
	// StateAwardReady: an owner scanned a customer's present code; no
	// mutation yet, the owner chooses award or redeem next.
	StateAwardReady State = "award_ready"
	// StateAwarded: an owner credited the customer.
	StateAwarded State = "awarded"
	// StateRedeemed: an owner debited the redemption cost.
	StateRedeemed State = "redeemed"
)

// Result is a terminal (or, for AwardReady, intermediate) outcome of one
// scan or owner action. Balance is the post-operation value.
type Result struct {
	State   State     `json:"state"`
	UserID  uuid.UUID `json:"user_id"`
	ShopID  uuid.UUID `json:"shop_id"`
	Balance int       `json:"balance"`
}

// OwnershipChecker answers whether a principal holds owner authority for a
// shop. Failures must come back as errors, never as a silent true.
type OwnershipChecker interface {
	IsOwnerOf(ctx context.Context, principalID, shopID uuid.UUID) (bool, error)
}

// BalanceMirror receives post-mutation balances for the read-side realtime
// projection. Strictly off the write path: publish failures are logged, not
// returned.
type BalanceMirror interface {
	PublishBalance(ctx context.Context, userID, shopID uuid.UUID, points int) error
}

// Engine authorizes and executes balance changes. It holds no per-request
// state; the acting principal is passed explicitly into every call. It never
// retries and never deduplicates: each invocation is one intentional
// mutation, exactly-once only at the store level.
type Engine struct {
	Store   BalanceStore
	Owners  OwnershipChecker
	Mirror  BalanceMirror
	Loyalty config.LoyaltyConfig
}

func NewEngine(store BalanceStore, owners OwnershipChecker, mirror BalanceMirror, loyalty config.LoyaltyConfig) *Engine {
	return &Engine{Store: store, Owners: owners, Mirror: mirror, Loyalty: loyalty}
}

// Scan drives the first transition of a redemption session from a decoded
// intent and the acting principal:
//
//	Join     + any principal   -> earn (self-service), terminal Earned
//	Present  + owner of shop   -> AwardReady (read-only)
//	Present  + anyone else     -> ErrUnauthorized
func (e *Engine) Scan(ctx context.Context, principalID uuid.UUID, intent qr.Intent) (Result, error) {
	if principalID == uuid.Nil {
		return Result{}, ErrUnauthorized
	}

	switch intent.Kind {
	case qr.KindJoin:
		balance, err := e.Store.ApplyDelta(ctx, principalID, intent.ShopID, e.Loyalty.EarnIncrement)
		if err != nil {
			return Result{}, err
		}
		e.publish(principalID, intent.ShopID, balance)
		return Result{State: StateEarned, UserID: principalID, ShopID: intent.ShopID, Balance: balance}, nil

	case qr.KindPresent:
		if err := e.authorize(ctx, principalID, intent.ShopID); err != nil {
			return Result{}, err
		}
		balance, err := e.Store.GetBalance(ctx, intent.UserID, intent.ShopID)
		if err != nil {
			return Result{}, err
		}
		return Result{State: StateAwardReady, UserID: intent.UserID, ShopID: intent.ShopID, Balance: balance}, nil
	}

	return Result{}, ErrBadIntent
}

// Award credits n points to the presented customer. Owner-gated; n must be
// positive.
func (e *Engine) Award(ctx context.Context, ownerID uuid.UUID, intent qr.Intent, n int) (Result, error) {
	if intent.Kind != qr.KindPresent {
		return Result{}, ErrBadIntent
	}
	if n <= 0 {
		return Result{}, ErrBadIntent
	}
	if err := e.authorize(ctx, ownerID, intent.ShopID); err != nil {
		return Result{}, err
	}

	balance, err := e.Store.ApplyDelta(ctx, intent.UserID, intent.ShopID, n)
	if err != nil {
		return Result{}, err
	}
	e.publish(intent.UserID, intent.ShopID, balance)
	return Result{State: StateAwarded, UserID: intent.UserID, ShopID: intent.ShopID, Balance: balance}, nil
}

// Redeem debits the configured redemption cost from the presented customer.
// The pre-check is advisory UX; correctness rests on ApplyDelta's atomic
// underflow rejection.
func (e *Engine) Redeem(ctx context.Context, ownerID uuid.UUID, intent qr.Intent) (Result, error) {
	if intent.Kind != qr.KindPresent {
		return Result{}, ErrBadIntent
	}
	if err := e.authorize(ctx, ownerID, intent.ShopID); err != nil {
		return Result{}, err
	}

	current, err := e.Store.GetBalance(ctx, intent.UserID, intent.ShopID)
	if err != nil {
		return Result{}, err
	}
	if current < e.Loyalty.RedemptionCost {
		return Result{}, ErrNegativeBalance
	}

	balance, err := e.Store.ApplyDelta(ctx, intent.UserID, intent.ShopID, -e.Loyalty.RedemptionCost)
	if err != nil {
		return Result{}, err
	}
	e.publish(intent.UserID, intent.ShopID, balance)
	return Result{State: StateRedeemed, UserID: intent.UserID, ShopID: intent.ShopID, Balance: balance}, nil
}

// authorize checks shop-scoped owner authority against the intent's shop.
// Checking the intent's shop id, not the owner's "home" shop, is what stops
// an owner of shop A from mutating balances named by a forged or mis-scanned
// intent for shop B.
func (e *Engine) authorize(ctx context.Context, principalID, shopID uuid.UUID) error {
	if principalID == uuid.Nil {
		return ErrUnauthorized
	}
	isOwner, err := e.Owners.IsOwnerOf(ctx, principalID, shopID)
	if err != nil {
		return err
	}
	if !isOwner {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) publish(userID, shopID uuid.UUID, points int) {
	if e.Mirror == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Mirror.PublishBalance(ctx, userID, shopID, points); err != nil {
			log.Printf("Failed to mirror balance for user %s shop %s: %v", userID, shopID, err)
		}
	}()
}
