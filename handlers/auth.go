package handlers

import (
	"errors"
	"net/http"
	"time"

	"brewpass-backend/identity"
	"brewpass-backend/middleware"
	"brewpass-backend/models"
	"brewpass-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB       *gorm.DB
	Verifier identity.PhoneVerifier
	Limiter  *middleware.RateLimiter
}

// RequestOTP starts a phone verification challenge. The response never
// reveals whether the phone is already registered.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	// Per-phone bucket on top of the route's per-IP bucket, so one phone
	// cannot be bombarded from many addresses.
	if h.Limiter != nil && !h.Limiter.Allow("phone:"+req.Phone) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many codes requested for this number. Please try again later."})
		return
	}

	challengeID, err := h.Verifier.Start(c.Request.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, identity.ErrIdentityUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Verification is temporarily unavailable. Please try again."})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge_id": challengeID,
		"expires_in":   int(identity.ChallengeTTL.Seconds()),
	})
}

// VerifyOTP confirms a challenge and logs the principal in, creating the
// account on first verification.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		ChallengeID string `json:"challenge_id" binding:"required"`
		Code        string `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challenge_id"})
		return
	}

	phone, err := h.Verifier.Confirm(c.Request.Context(), challengeID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrChallengeNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired verification challenge"})
		case errors.Is(err, identity.ErrCodeMismatch):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect verification code"})
		case errors.Is(err, identity.ErrIdentityUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Verification is temporarily unavailable. Please try again."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		}
		return
	}

	// Find or create the principal for this verified phone.
	var user models.User
	if err := h.DB.Where("phone = ?", phone).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up account"})
			return
		}
		user = models.User{
			ID:    uuid.New(),
			Phone: phone,
			Role:  models.RoleCustomer,
		}
		if err := h.DB.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}
	}

	token, refreshToken, err := h.issueTokens(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refreshToken,
		"user": gin.H{
			"id":    user.ID,
			"phone": user.Phone,
			"role":  user.Role,
		},
	})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	response := gin.H{
		"id":    user.ID,
		"phone": user.Phone,
		"role":  user.Role,
	}

	// Owners also get the shops they hold.
	if user.Role == models.RoleOwner {
		var shops []models.Shop
		h.DB.Joins("JOIN shop_owners ON shop_owners.shop_id = shops.id").
			Where("shop_owners.user_id = ?", user.ID).
			Find(&shops)
		response["shops"] = shops
	}

	c.JSON(http.StatusOK, response)
}

func (h *AuthHandler) RefreshTokenHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	// Find the refresh token
	var rt models.RefreshToken
	if err := h.DB.Where("token = ? AND revoked_at IS NULL AND expires_at > ?", req.RefreshToken, time.Now()).First(&rt).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	// Revoke old refresh token
	now := time.Now()
	h.DB.Model(&rt).Update("revoked_at", &now)

	// Get user
	var user models.User
	if err := h.DB.Where("id = ?", rt.UserID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	token, refreshToken, err := h.issueTokens(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refreshToken,
	})
}

// issueTokens generates an access/refresh pair and stores the refresh token.
func (h *AuthHandler) issueTokens(user models.User) (string, string, error) {
	token, err := utils.GenerateToken(user.ID, user.Phone, user.Role)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, user.Phone, user.Role)
	if err != nil {
		return "", "", err
	}

	rt := models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := h.DB.Create(&rt).Error; err != nil {
		return "", "", err
	}

	return token, refreshToken, nil
}
