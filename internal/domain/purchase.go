package domain

import (
	"time"

	"github.com/google/uuid"
)

type ItemType string

const (
	ItemTypeBundle ItemType = "bundle"
	ItemTypeCourse ItemType = "course"
	ItemTypeMixed  ItemType = "mixed"
)

// ValidPurchasableType reports whether t names a concrete purchasable item
// variant. "mixed" tags a cart, never a single item or ledger row.
func ValidPurchasableType(t ItemType) bool {
	return t == ItemTypeBundle || t == ItemTypeCourse
}

// PurchaseRecord is one durable entitlement: one buyer, exactly one item.
// A multi-item capture fans out into one record per item. Records are never
// deleted; expiry only flips IsActive, and only lazily at check time, so an
// expired record can stay nominally active until the next access check.
type PurchaseRecord struct {
	ID          uuid.UUID
	BuyerID     string
	ItemID      string
	ItemType    ItemType
	PaymentID   string
	AmountMinor int64
	Currency    string
	IsActive    bool
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}

// Expired reports whether the record's expiry has passed at the given time.
// Records without an expiry never expire.
func (r *PurchaseRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}
