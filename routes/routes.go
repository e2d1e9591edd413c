package routes

import (
	"net/http"
	"time"

	"brewpass-backend/firebase"
	"brewpass-backend/handlers"
	"brewpass-backend/identity"
	"brewpass-backend/ledger"
	"brewpass-backend/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, engine *ledger.Engine, verifier identity.PhoneVerifier, watcher firebase.BalanceWatcher) {
	resolver := identity.NewResolver(db)

	// OTP requests are throttled per phone in the handler and per IP here.
	otpLimiter := middleware.NewRateLimiter(5, 15*time.Minute)

	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: db, Verifier: verifier, Limiter: otpLimiter}
	shopHandler := &handlers.ShopHandler{DB: db, Resolver: resolver}
	loyaltyHandler := &handlers.LoyaltyHandler{Engine: engine}
	streamHandler := &handlers.StreamHandler{Watcher: watcher}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	api := r.Group("/api")
	{
		api.POST("/auth/otp/request", otpLimiter.Middleware(), authHandler.RequestOTP)
		api.POST("/auth/otp/verify", authHandler.VerifyOTP)
		api.POST("/auth/refresh", authHandler.RefreshTokenHandler)
	}

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		// User profile
		protected.GET("/auth/profile", authHandler.GetProfile)

		// Shops: any authenticated user may open one and becomes its owner.
		protected.POST("/shops", shopHandler.RegisterShop)
		protected.GET("/shops/:id", shopHandler.GetShop)

		// Loyalty, customer side
		protected.POST("/loyalty/scan", loyaltyHandler.Scan)
		protected.GET("/loyalty/balance", loyaltyHandler.GetBalance)
		protected.GET("/loyalty/present-qr", loyaltyHandler.PresentQR)
		protected.GET("/loyalty/stream", streamHandler.StreamBalances)
	}

	// Owner routes (require owner role; handlers re-check ownership of the
	// specific shop)
	owner := api.Group("")
	owner.Use(middleware.AuthMiddleware())
	owner.Use(middleware.OwnerMiddleware())
	{
		owner.POST("/shops/:id/owners", shopHandler.AddOwner)
		owner.GET("/shops/:id/join-qr", shopHandler.JoinQR)

		owner.POST("/loyalty/award", loyaltyHandler.Award)
		owner.POST("/loyalty/redeem", loyaltyHandler.Redeem)
	}
}
