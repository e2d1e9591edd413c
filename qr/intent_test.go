package qr

import (
	"testing"

	"github.com/google/uuid"
)

func TestJoinRoundTrip(t *testing.T) {
	shopID := uuid.New()

	u := EncodeJoin("https://brewpass.app", shopID)
	intent, err := Decode(u)
	if err != nil {
		t.Fatal(err)
	}
	if intent.Kind != KindJoin {
		t.Errorf("expected kind join, got %s", intent.Kind)
	}
	if intent.ShopID != shopID {
		t.Errorf("expected shop %s, got %s", shopID, intent.ShopID)
	}
	if intent.UserID != uuid.Nil {
		t.Errorf("expected no user id on join intent, got %s", intent.UserID)
	}
}

func TestPresentRoundTrip(t *testing.T) {
	userID := uuid.New()
	shopID := uuid.New()

	u := EncodePresent("https://brewpass.app", userID, shopID)
	intent, err := Decode(u)
	if err != nil {
		t.Fatal(err)
	}
	if intent.Kind != KindPresent {
		t.Errorf("expected kind present, got %s", intent.Kind)
	}
	if intent.UserID != userID {
		t.Errorf("expected user %s, got %s", userID, intent.UserID)
	}
	if intent.ShopID != shopID {
		t.Errorf("expected shop %s, got %s", shopID, intent.ShopID)
	}
}

func TestEncodeTrimsTrailingSlash(t *testing.T) {
	shopID := uuid.New()
	u := EncodeJoin("https://brewpass.app/", shopID)
	if _, err := Decode(u); err != nil {
		t.Fatalf("expected valid URL, got %v (%s)", err, u)
	}
}

func TestDecodeAcceptsUserIDSpelling(t *testing.T) {
	userID := uuid.New()
	shopID := uuid.New()

	u := "https://brewpass.app/redeem?userID=" + userID.String() + "&shopId=" + shopID.String()
	intent, err := Decode(u)
	if err != nil {
		t.Fatal(err)
	}
	if intent.UserID != userID {
		t.Errorf("expected user %s, got %s", userID, intent.UserID)
	}
}

func TestDecodeMalformed(t *testing.T) {
	shopID := uuid.New()
	cases := []string{
		"",
		"not a url at all\x7f",
		"https://brewpass.app/scan",
		"https://brewpass.app/scan?shopId=not-a-uuid",
		"https://brewpass.app/redeem?shopId=" + shopID.String(),
		"https://brewpass.app/redeem?userId=nope&shopId=" + shopID.String(),
		"https://brewpass.app/unknown?shopId=" + shopID.String(),
		"https://brewpass.app/",
	}

	for _, raw := range cases {
		if _, err := Decode(raw); err != ErrMalformed {
			t.Errorf("expected ErrMalformed for %q, got %v", raw, err)
		}
	}
}

func TestDecodeNestedBasePath(t *testing.T) {
	shopID := uuid.New()
	u := EncodeJoin("https://brewpass.app/app/v2", shopID)
	intent, err := Decode(u)
	if err != nil {
		t.Fatal(err)
	}
	if intent.ShopID != shopID {
		t.Errorf("expected shop %s, got %s", shopID, intent.ShopID)
	}
}
