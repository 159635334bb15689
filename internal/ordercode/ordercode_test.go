package ordercode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitledger/internal/domain"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		buyerID  string
		items    []domain.CartItem
		cartType domain.ItemType
	}{
		{
			name:     "single bundle",
			buyerID:  "buyer-1",
			items:    []domain.CartItem{{ID: "B1", Type: domain.ItemTypeBundle}},
			cartType: domain.ItemTypeBundle,
		},
		{
			name:     "multiple courses",
			buyerID:  "buyer-2",
			items:    []domain.CartItem{{ID: "C1", Type: domain.ItemTypeCourse}, {ID: "C2", Type: domain.ItemTypeCourse}},
			cartType: domain.ItemTypeCourse,
		},
		{
			name:    "mixed cart with explicit tags",
			buyerID: "buyer-3",
			items: []domain.CartItem{
				{ID: "B1", Type: domain.ItemTypeBundle},
				{ID: "C1", Type: domain.ItemTypeCourse},
			},
			cartType: domain.ItemTypeMixed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.buyerID, tt.items, tt.cartType)
			require.NoError(t, err)

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.buyerID, decoded.BuyerID)
			assert.Equal(t, tt.cartType, decoded.CartType)
			assert.Equal(t, tt.items, decoded.Items)
		})
	}
}

func TestUntypedItemsInheritCartType(t *testing.T) {
	encoded, err := Encode("buyer-1", []domain.CartItem{{ID: "B1"}, {ID: "B2"}}, domain.ItemTypeBundle)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	for _, item := range decoded.Items {
		assert.Equal(t, domain.ItemTypeBundle, item.Type)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "one segment", input: "onlyonepart"},
		{name: "two segments", input: "buyer:B1"},
		{name: "three segments", input: "buyer:B1:bundle"},
		{name: "unknown version", input: "v9:buyer:B1:bundle"},
		{name: "empty buyer", input: "v1::B1:bundle"},
		{name: "empty item list", input: "v1:buyer::bundle"},
		{name: "empty item id", input: "v1:buyer:B1,:bundle"},
		{name: "bad cart type", input: "v1:buyer:B1:sneakers"},
		{name: "untagged item in mixed cart", input: "v1:buyer:B1,C1:mixed"},
		{name: "bad item tag", input: "v1:buyer:B1@sneakers:bundle"},
		{name: "mixed as item tag", input: "v1:buyer:B1@mixed:mixed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			require.ErrorIs(t, err, domain.ErrMalformedOrderEncoding)
		})
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	_, err := Encode("", []domain.CartItem{{ID: "B1"}}, domain.ItemTypeBundle)
	assert.Error(t, err, "empty buyer")

	_, err = Encode("buyer", nil, domain.ItemTypeBundle)
	assert.Error(t, err, "empty items")

	_, err = Encode("buy:er", []domain.CartItem{{ID: "B1"}}, domain.ItemTypeBundle)
	assert.Error(t, err, "delimiter in buyer id")

	_, err = Encode("buyer", []domain.CartItem{{ID: "B@1"}}, domain.ItemTypeBundle)
	assert.Error(t, err, "delimiter in item id")

	_, err = Encode("buyer", []domain.CartItem{{ID: "B1"}}, domain.ItemTypeMixed)
	assert.Error(t, err, "mixed cart requires explicit per-item types")

	_, err = Encode("buyer", []domain.CartItem{{ID: "C1", Type: domain.ItemTypeCourse}}, domain.ItemTypeBundle)
	assert.Error(t, err, "item type conflicts with cart type")
}
