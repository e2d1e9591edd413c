package handlers

import (
	"errors"
	"net/http"

	"brewpass-backend/config"
	"brewpass-backend/identity"
	"brewpass-backend/models"
	"brewpass-backend/qr"
	"brewpass-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShopHandler struct {
	DB       *gorm.DB
	Resolver *identity.Resolver
}

func qrBaseURL() string {
	return config.GetEnv("FRONTEND_URL", "http://localhost:3000")
}

// RegisterShop creates a shop and grants the caller ownership of it. The
// caller's role is promoted, so a fresh token pair is returned alongside the
// shop to avoid forcing a re-login.
func (h *ShopHandler) RegisterShop(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=120"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	shop := models.Shop{
		ID:   uuid.New(),
		Name: req.Name,
	}
	if err := h.DB.Create(&shop).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create shop"})
		return
	}

	if err := h.Resolver.GrantOwnership(c.Request.Context(), shop.ID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant ownership"})
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up account"})
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Phone, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"shop":     shop,
		"join_url": qr.EncodeJoin(qrBaseURL(), shop.ID),
		"token":    token,
	})
}

func (h *ShopHandler) GetShop(c *gin.Context) {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop ID"})
		return
	}

	var shop models.Shop
	if err := h.DB.Where("id = ?", shopID).First(&shop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shop"})
		return
	}

	c.JSON(http.StatusOK, shop)
}

// AddOwner lets an existing owner of a shop grant co-ownership to another
// account, identified by phone number.
func (h *ShopHandler) AddOwner(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop ID"})
		return
	}

	var req struct {
		Phone string `json:"phone" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	granted, err := h.Resolver.IsOwnerOf(c.Request.Context(), userID, shopID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable. Please try again."})
		return
	}
	if !granted {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not an owner of this shop"})
		return
	}

	var grantee models.User
	if err := h.DB.Where("phone = ?", req.Phone).First(&grantee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No account found for this phone number"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up account"})
		return
	}

	if err := h.Resolver.GrantOwnership(c.Request.Context(), shopID, grantee.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant ownership"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ownership granted",
		"shop_id": shopID,
		"user_id": grantee.ID,
	})
}

// JoinQR returns the URL a shop prints for customers to scan and earn a point.
func (h *ShopHandler) JoinQR(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop ID"})
		return
	}

	granted, err := h.Resolver.IsOwnerOf(c.Request.Context(), userID, shopID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable. Please try again."})
		return
	}
	if !granted {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not an owner of this shop"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": qr.EncodeJoin(qrBaseURL(), shopID)})
}
