package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"brewpass-backend/config"
	"brewpass-backend/identity"
	"brewpass-backend/ledger"
	"brewpass-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret-for-routes")
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS "users" (
			"id" TEXT PRIMARY KEY, "phone" TEXT NOT NULL UNIQUE, "role" TEXT DEFAULT 'customer',
			"created_at" DATETIME, "updated_at" DATETIME, "deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "shops" (
			"id" TEXT PRIMARY KEY, "name" TEXT NOT NULL,
			"created_at" DATETIME, "updated_at" DATETIME, "deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "shop_owners" (
			"id" TEXT PRIMARY KEY, "shop_id" TEXT NOT NULL, "user_id" TEXT NOT NULL,
			"role" TEXT NOT NULL DEFAULT 'owner', "created_at" DATETIME, "updated_at" DATETIME
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_shop_owner ON "shop_owners"("shop_id","user_id")`,
		`CREATE TABLE IF NOT EXISTS "balances" (
			"id" TEXT PRIMARY KEY, "user_id" TEXT NOT NULL, "shop_id" TEXT NOT NULL,
			"points" INTEGER NOT NULL DEFAULT 0, "created_at" DATETIME, "updated_at" DATETIME
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_balance_user_shop ON "balances"("user_id","shop_id")`,
		`CREATE TABLE IF NOT EXISTS "otp_challenges" (
			"id" TEXT PRIMARY KEY, "phone" TEXT NOT NULL, "code_hash" TEXT NOT NULL,
			"attempts" INTEGER DEFAULT 0, "expires_at" DATETIME NOT NULL,
			"verified_at" DATETIME, "created_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "refresh_tokens" (
			"id" TEXT PRIMARY KEY, "user_id" TEXT NOT NULL, "token" TEXT NOT NULL UNIQUE,
			"expires_at" DATETIME NOT NULL, "revoked_at" DATETIME, "created_at" DATETIME
		)`,
	}

	for _, sql := range tables {
		if err := db.Exec(sql).Error; err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := setupTestDB(t)
	r := gin.New()

	engine := ledger.NewEngine(
		ledger.NewGormStore(db),
		identity.NewResolver(db),
		nil,
		config.LoyaltyConfig{EarnIncrement: config.DefaultEarnIncrement, RedemptionCost: config.DefaultRedemptionCost},
	)
	verifier := identity.NewOTPVerifier(db, nil)
	SetupRoutes(r, db, engine, verifier, nil)
	return r, db
}

func TestHealthCheck(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/loyalty/balance", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestOwnerRouteBlocksCustomer(t *testing.T) {
	r, _ := setupRouter(t)
	token, _ := utils.GenerateToken(uuid.New(), "+33612345678", "customer")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/loyalty/redeem", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStreamUnavailableWithoutWatcher(t *testing.T) {
	r, _ := setupRouter(t)
	token, _ := utils.GenerateToken(uuid.New(), "+33612345678", "customer")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/loyalty/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
}
