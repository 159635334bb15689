// Package ordercode packs (buyer, items, cart type) into the single opaque
// string the gateway echoes back through the order lifecycle. It is the only
// channel between order creation and capture, so it is treated as a wire
// format: versioned, strictly delimited, and parsed all-or-nothing. A decode
// failure during capture means funds moved with no attributable entitlement,
// which is why there is no partial or defaulting parse.
//
// Format: v1:<buyerID>:<item>[,<item>...]:<cartType>
// where <item> is "id" in a homogeneous cart or "id@type" (type required for
// every item of a mixed cart).
package ordercode

import (
	"fmt"
	"strings"

	"fitledger/internal/domain"
)

const version = "v1"

// Decoded is the unpacked encoding. Every item carries a concrete type:
// bare ids inherit the cart type, mixed carts must tag each item.
type Decoded struct {
	BuyerID  string
	Items    []domain.CartItem
	CartType domain.ItemType
}

func validCartType(t domain.ItemType) bool {
	return domain.ValidPurchasableType(t) || t == domain.ItemTypeMixed
}

// Encode builds the opaque order string. Ids must not contain the delimiter
// characters ':', ',' or '@'; in a mixed cart every item needs an explicit
// bundle/course type so capture never has to guess.
func Encode(buyerID string, items []domain.CartItem, cartType domain.ItemType) (string, error) {
	if buyerID == "" || strings.ContainsAny(buyerID, ":,") {
		return "", fmt.Errorf("invalid buyer id %q", buyerID)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("empty item list")
	}
	if !validCartType(cartType) {
		return "", fmt.Errorf("invalid cart type %q", cartType)
	}

	parts := make([]string, 0, len(items))
	for _, it := range items {
		if it.ID == "" || strings.ContainsAny(it.ID, ":,@") {
			return "", fmt.Errorf("invalid item id %q", it.ID)
		}
		switch {
		case cartType == domain.ItemTypeMixed:
			if !domain.ValidPurchasableType(it.Type) {
				return "", fmt.Errorf("item %s in a mixed cart needs an explicit type", it.ID)
			}
			parts = append(parts, it.ID+"@"+string(it.Type))
		case it.Type != "" && it.Type != cartType:
			return "", fmt.Errorf("item %s type %q conflicts with cart type %q", it.ID, it.Type, cartType)
		default:
			parts = append(parts, it.ID)
		}
	}

	return strings.Join([]string{version, buyerID, strings.Join(parts, ","), string(cartType)}, ":"), nil
}

// Decode parses an encoding produced by Encode. Any structural defect fails
// with ErrMalformedOrderEncoding; nothing is ever defaulted.
func Decode(s string) (*Decoded, error) {
	segments := strings.Split(s, ":")
	if len(segments) != 4 {
		return nil, fmt.Errorf("%w: expected 4 segments, got %d", domain.ErrMalformedOrderEncoding, len(segments))
	}
	if segments[0] != version {
		return nil, fmt.Errorf("%w: unknown version %q", domain.ErrMalformedOrderEncoding, segments[0])
	}
	buyerID := segments[1]
	if buyerID == "" {
		return nil, fmt.Errorf("%w: empty buyer segment", domain.ErrMalformedOrderEncoding)
	}
	cartType := domain.ItemType(segments[3])
	if !validCartType(cartType) {
		return nil, fmt.Errorf("%w: invalid cart type %q", domain.ErrMalformedOrderEncoding, segments[3])
	}
	if segments[2] == "" {
		return nil, fmt.Errorf("%w: empty item segment", domain.ErrMalformedOrderEncoding)
	}

	rawItems := strings.Split(segments[2], ",")
	items := make([]domain.CartItem, 0, len(rawItems))
	for _, raw := range rawItems {
		id, tag, tagged := strings.Cut(raw, "@")
		if id == "" {
			return nil, fmt.Errorf("%w: empty item id", domain.ErrMalformedOrderEncoding)
		}
		item := domain.CartItem{ID: id}
		switch {
		case tagged:
			item.Type = domain.ItemType(tag)
			if !domain.ValidPurchasableType(item.Type) {
				return nil, fmt.Errorf("%w: invalid item type %q for %s", domain.ErrMalformedOrderEncoding, tag, id)
			}
		case cartType == domain.ItemTypeMixed:
			// A mixed cart with an untagged item would force capture to
			// guess bundle vs course. Hard failure instead.
			return nil, fmt.Errorf("%w: item %s in a mixed cart is untyped", domain.ErrMalformedOrderEncoding, id)
		default:
			item.Type = cartType
		}
		items = append(items, item)
	}

	return &Decoded{BuyerID: buyerID, Items: items, CartType: cartType}, nil
}
