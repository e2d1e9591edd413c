// Package qr encodes and decodes the two loyalty intents carried in QR code
// URLs: a shop's join code and a customer's present-for-redemption code.
// Payloads are plain query parameters; they carry no signature or expiry.
package qr

import (
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ErrMalformed marks any URL that does not match a known intent shape.
// Decode never fails any other way; a scanner pointed at random QR codes
// must keep running.
var ErrMalformed = errors.New("malformed intent URL")

type Kind string

const (
	// KindJoin is a shop's table code: "start or continue earning here".
	KindJoin Kind = "join"
	// KindPresent is a customer's personal code shown to an owner at the
	// counter for awarding or redeeming points.
	KindPresent Kind = "present"
)

// Intent is the decoded meaning of a scanned QR code. UserID is set only for
// Present intents. Intents are ephemeral and never persisted.
type Intent struct {
	Kind   Kind      `json:"kind"`
	UserID uuid.UUID `json:"user_id,omitempty"`
	ShopID uuid.UUID `json:"shop_id"`
}

// EncodeJoin builds the URL a shop prints on its table QR code.
func EncodeJoin(base string, shopID uuid.UUID) string {
	q := url.Values{}
	q.Set("shopId", shopID.String())
	return strings.TrimRight(base, "/") + "/scan?" + q.Encode()
}

// EncodePresent builds the URL shown on a customer's screen for the owner to
// scan.
func EncodePresent(base string, userID, shopID uuid.UUID) string {
	q := url.Values{}
	q.Set("userId", userID.String())
	q.Set("shopId", shopID.String())
	return strings.TrimRight(base, "/") + "/redeem?" + q.Encode()
}

// Decode parses a scanned URL into an Intent. Any shape it does not
// recognize, including unparsable URLs, bad UUIDs and unknown paths, yields
// ErrMalformed.
func Decode(raw string) (Intent, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Intent{}, ErrMalformed
	}

	q := u.Query()
	shopID, err := uuid.Parse(q.Get("shopId"))
	if err != nil {
		return Intent{}, ErrMalformed
	}

	switch lastSegment(u.Path) {
	case "scan":
		return Intent{Kind: KindJoin, ShopID: shopID}, nil
	case "redeem":
		// The original frontend emitted userId but tolerated userID; keep
		// accepting both spellings.
		rawUser := q.Get("userId")
		if rawUser == "" {
			rawUser = q.Get("userID")
		}
		userID, err := uuid.Parse(rawUser)
		if err != nil {
			return Intent{}, ErrMalformed
		}
		return Intent{Kind: KindPresent, UserID: userID, ShopID: shopID}, nil
	}

	return Intent{}, ErrMalformed
}

func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
