package handlers

import (
	"errors"
	"net/http"

	"brewpass-backend/config"
	"brewpass-backend/identity"
	"brewpass-backend/ledger"
	"brewpass-backend/qr"
	"brewpass-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LoyaltyHandler struct {
	Engine *ledger.Engine
}

// respondLedgerError maps ledger and codec failures onto HTTP responses. The
// messages are intentionally generic so a forged code learns nothing about
// which check rejected it.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized for this shop"})
	case errors.Is(err, qr.ErrMalformed), errors.Is(err, ledger.ErrBadIntent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot process this code"})
	case errors.Is(err, ledger.ErrNegativeBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough points"})
	case errors.Is(err, ledger.ErrStoreUnavailable), errors.Is(err, identity.ErrIdentityUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable. Please try again."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

// Scan handles a scanned QR URL for the logged-in principal. A join code
// earns a point immediately; a present code is read back to the owner's
// device for confirmation.
func (h *LoyaltyHandler) Scan(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req struct {
		URL string `json:"url" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	intent, err := qr.Decode(req.URL)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	result, err := h.Engine.Scan(c.Request.Context(), userID, intent)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":   result.State,
		"user_id": result.UserID,
		"shop_id": result.ShopID,
		"balance": result.Balance,
	})
}

// presentIntent resolves either a scanned present URL or explicit ids into
// an intent for the owner-side operations.
func presentIntent(rawURL, userID, shopID string) (qr.Intent, error) {
	if rawURL != "" {
		return qr.Decode(rawURL)
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return qr.Intent{}, qr.ErrMalformed
	}
	sid, err := uuid.Parse(shopID)
	if err != nil {
		return qr.Intent{}, qr.ErrMalformed
	}
	return qr.Intent{Kind: qr.KindPresent, UserID: uid, ShopID: sid}, nil
}

// Award credits points to a customer who presented their code. Owner only;
// the engine re-checks ownership against the shop inside the code.
func (h *LoyaltyHandler) Award(c *gin.Context) {
	ownerID := c.MustGet("user_id").(uuid.UUID)

	var req struct {
		URL    string `json:"url"`
		UserID string `json:"user_id"`
		ShopID string `json:"shop_id"`
		Points int    `json:"points"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	intent, err := presentIntent(req.URL, req.UserID, req.ShopID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	points := req.Points
	if points == 0 {
		points = h.Engine.Loyalty.EarnIncrement
	}

	result, err := h.Engine.Award(c.Request.Context(), ownerID, intent, points)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":   result.State,
		"user_id": result.UserID,
		"shop_id": result.ShopID,
		"balance": result.Balance,
	})
}

// Redeem spends the configured redemption cost from the presented customer's
// balance. Fails without clamping when the balance is short.
func (h *LoyaltyHandler) Redeem(c *gin.Context) {
	ownerID := c.MustGet("user_id").(uuid.UUID)

	var req struct {
		URL    string `json:"url"`
		UserID string `json:"user_id"`
		ShopID string `json:"shop_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	intent, err := presentIntent(req.URL, req.UserID, req.ShopID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	result, err := h.Engine.Redeem(c.Request.Context(), ownerID, intent)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":   result.State,
		"user_id": result.UserID,
		"shop_id": result.ShopID,
		"balance": result.Balance,
	})
}

// GetBalance returns the caller's point balance at one shop.
func (h *LoyaltyHandler) GetBalance(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	shopID, err := uuid.Parse(c.Query("shopId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop ID"})
		return
	}

	balance, err := h.Engine.Store.GetBalance(c.Request.Context(), userID, shopID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shop_id": shopID,
		"balance": balance,
	})
}

// PresentQR returns the URL a customer shows at the counter to be awarded
// or to redeem.
func (h *LoyaltyHandler) PresentQR(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	shopID, err := uuid.Parse(c.Query("shopId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop ID"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url": qr.EncodePresent(config.GetEnv("FRONTEND_URL", "http://localhost:3000"), userID, shopID),
	})
}
