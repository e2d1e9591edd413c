package handlers

import (
	"net/http"
	"testing"
	"time"

	"brewpass-backend/identity"
	"brewpass-backend/middleware"
	"brewpass-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func authRouter(db *gorm.DB, verifier identity.PhoneVerifier, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	h := &AuthHandler{DB: db, Verifier: verifier, Limiter: limiter}
	r.POST("/auth/otp/request", h.RequestOTP)
	r.POST("/auth/otp/verify", h.VerifyOTP)
	r.POST("/auth/refresh", h.RefreshTokenHandler)
	r.GET("/auth/profile", middleware.AuthMiddleware(), h.GetProfile)
	return r
}

func TestRequestOTPSuccess(t *testing.T) {
	db := freshDB()
	challengeID := uuid.New()
	r := authRouter(db, &stubVerifier{startID: challengeID}, nil)

	w := serve(r, jsonRequest("POST", "/auth/otp/request", gin.H{"phone": "+33612345678"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(t, w)
	if resp["challenge_id"] != challengeID.String() {
		t.Errorf("expected challenge_id %s, got %v", challengeID, resp["challenge_id"])
	}
	if resp["expires_in"].(float64) != identity.ChallengeTTL.Seconds() {
		t.Errorf("unexpected expires_in: %v", resp["expires_in"])
	}
}

func TestRequestOTPMissingPhone(t *testing.T) {
	db := freshDB()
	r := authRouter(db, &stubVerifier{startID: uuid.New()}, nil)

	w := serve(r, jsonRequest("POST", "/auth/otp/request", gin.H{}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRequestOTPUnavailable(t *testing.T) {
	db := freshDB()
	r := authRouter(db, &stubVerifier{startErr: identity.ErrIdentityUnavailable}, nil)

	w := serve(r, jsonRequest("POST", "/auth/otp/request", gin.H{"phone": "+33612345678"}))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestRequestOTPPerPhoneRateLimit(t *testing.T) {
	db := freshDB()
	limiter := middleware.NewRateLimiter(2, time.Minute)
	r := authRouter(db, &stubVerifier{startID: uuid.New()}, limiter)

	for i := 0; i < 2; i++ {
		w := serve(r, jsonRequest("POST", "/auth/otp/request", gin.H{"phone": "+33612345678"}))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := serve(r, jsonRequest("POST", "/auth/otp/request", gin.H{"phone": "+33612345678"}))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit, got %d", w.Code)
	}

	// A different phone still has its own bucket.
	w = serve(r, jsonRequest("POST", "/auth/otp/request", gin.H{"phone": "+33698765432"}))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for other phone, got %d", w.Code)
	}
}

func TestVerifyOTPCreatesAccount(t *testing.T) {
	db := freshDB()
	r := authRouter(db, &stubVerifier{phone: "+33612345678"}, nil)

	w := serve(r, jsonRequest("POST", "/auth/otp/verify", gin.H{
		"challenge_id": uuid.New().String(),
		"code":         "123456",
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(t, w)
	if resp["token"] == nil || resp["refresh_token"] == nil {
		t.Error("expected token pair in response")
	}
	user := resp["user"].(map[string]interface{})
	if user["phone"] != "+33612345678" {
		t.Errorf("unexpected phone: %v", user["phone"])
	}
	if user["role"] != models.RoleCustomer {
		t.Errorf("expected new account role customer, got %v", user["role"])
	}

	var count int64
	db.Model(&models.User{}).Where("phone = ?", "+33612345678").Count(&count)
	if count != 1 {
		t.Errorf("expected 1 user row, got %d", count)
	}
	db.Model(&models.RefreshToken{}).Count(&count)
	if count != 1 {
		t.Errorf("expected stored refresh token, got %d rows", count)
	}
}

func TestVerifyOTPExistingAccount(t *testing.T) {
	db := freshDB()
	existing, _ := seedTestUser(db, "+33612345678", models.RoleOwner)
	r := authRouter(db, &stubVerifier{phone: existing.Phone}, nil)

	w := serve(r, jsonRequest("POST", "/auth/otp/verify", gin.H{
		"challenge_id": uuid.New().String(),
		"code":         "123456",
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(t, w)
	user := resp["user"].(map[string]interface{})
	if user["id"] != existing.ID.String() {
		t.Errorf("expected existing account %s, got %v", existing.ID, user["id"])
	}
	if user["role"] != models.RoleOwner {
		t.Errorf("role should be preserved, got %v", user["role"])
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("verification must not duplicate the account, got %d rows", count)
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	db := freshDB()
	r := authRouter(db, &stubVerifier{confErr: identity.ErrCodeMismatch}, nil)

	w := serve(r, jsonRequest("POST", "/auth/otp/verify", gin.H{
		"challenge_id": uuid.New().String(),
		"code":         "000000",
	}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestVerifyOTPExpiredChallenge(t *testing.T) {
	db := freshDB()
	r := authRouter(db, &stubVerifier{confErr: identity.ErrChallengeNotFound}, nil)

	w := serve(r, jsonRequest("POST", "/auth/otp/verify", gin.H{
		"challenge_id": uuid.New().String(),
		"code":         "123456",
	}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestVerifyOTPMalformedChallengeID(t *testing.T) {
	db := freshDB()
	r := authRouter(db, &stubVerifier{phone: "+33612345678"}, nil)

	w := serve(r, jsonRequest("POST", "/auth/otp/verify", gin.H{
		"challenge_id": "not-a-uuid",
		"code":         "123456",
	}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	db := freshDB()
	user, _ := seedTestUser(db, "+33612345678", models.RoleCustomer)
	r := authRouter(db, &stubVerifier{}, nil)

	old := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     "old-refresh-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	db.Create(&old)

	w := serve(r, jsonRequest("POST", "/auth/refresh", gin.H{"refresh_token": old.Token}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(t, w)
	if resp["token"] == nil || resp["refresh_token"] == nil {
		t.Error("expected new token pair")
	}

	// Old token is revoked and cannot be replayed.
	w = serve(r, jsonRequest("POST", "/auth/refresh", gin.H{"refresh_token": old.Token}))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 on replayed refresh token, got %d", w.Code)
	}
}

func TestRefreshTokenExpired(t *testing.T) {
	db := freshDB()
	user, _ := seedTestUser(db, "+33612345678", models.RoleCustomer)
	r := authRouter(db, &stubVerifier{}, nil)

	db.Create(&models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     "stale-refresh-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	w := serve(r, jsonRequest("POST", "/auth/refresh", gin.H{"refresh_token": "stale-refresh-token"}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestGetProfileCustomer(t *testing.T) {
	db := freshDB()
	user, token := seedTestUser(db, "+33612345678", models.RoleCustomer)
	r := authRouter(db, &stubVerifier{}, nil)

	w := serve(r, authRequest("GET", "/auth/profile", token, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(t, w)
	if resp["id"] != user.ID.String() {
		t.Errorf("unexpected id: %v", resp["id"])
	}
	if _, hasShops := resp["shops"]; hasShops {
		t.Error("customer profile should not list shops")
	}
}

func TestGetProfileOwnerListsShops(t *testing.T) {
	db := freshDB()
	owner, token := seedTestUser(db, "+33612345678", models.RoleOwner)
	shop := seedTestShop(db, "Dark Roast")
	seedOwnership(db, shop.ID, owner.ID)
	r := authRouter(db, &stubVerifier{}, nil)

	w := serve(r, authRequest("GET", "/auth/profile", token, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(t, w)
	shops, ok := resp["shops"].([]interface{})
	if !ok || len(shops) != 1 {
		t.Fatalf("expected 1 owned shop, got %v", resp["shops"])
	}
}

func TestGetProfileRequiresAuth(t *testing.T) {
	db := freshDB()
	r := authRouter(db, &stubVerifier{}, nil)

	w := serve(r, jsonRequest("GET", "/auth/profile", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
