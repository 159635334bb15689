package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{name: "two decimals", value: "45.00", want: 4500},
		{name: "one decimal", value: "45.5", want: 4550},
		{name: "no decimals", value: "99", want: 9900},
		{name: "cents only", value: "0.99", want: 99},
		{name: "three decimals rejected", value: "10.999", wantErr: true},
		{name: "empty", value: "", wantErr: true},
		{name: "not a number", value: "abc", wantErr: true},
		{name: "trailing dot", value: "10.", wantErr: true},
		{name: "plus sign", value: "+10.00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.value, "usd")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.MinorUnits)
			assert.Equal(t, "USD", got.Currency)
		})
	}
}

func TestValueRendersTwoDecimals(t *testing.T) {
	assert.Equal(t, "45.00", Amount{MinorUnits: 4500, Currency: "USD"}.Value())
	assert.Equal(t, "0.05", Amount{MinorUnits: 5, Currency: "USD"}.Value())
	assert.Equal(t, "12.30", Amount{MinorUnits: 1230, Currency: "USD"}.Value())
	assert.Equal(t, "-1.25", Amount{MinorUnits: -125, Currency: "USD"}.Value())
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("USD"))
	assert.True(t, Supported("eur"))
	assert.False(t, Supported("XBT"))
	assert.False(t, Supported(""))
}

func TestSplitConservation(t *testing.T) {
	tests := []struct {
		total int64
		n     int
	}{
		{total: 9000, n: 2},
		{total: 10000, n: 3},
		{total: 1, n: 5},
		{total: 99, n: 4},
		{total: 4500, n: 1},
	}

	for _, tt := range tests {
		shares := Split(Amount{MinorUnits: tt.total, Currency: "USD"}, tt.n)
		require.Len(t, shares, tt.n)

		var sum int64
		for _, s := range shares {
			sum += s.MinorUnits
			assert.LessOrEqual(t, s.MinorUnits, tt.total)
			assert.Equal(t, "USD", s.Currency)
		}
		// The shares always sum to the captured total exactly.
		assert.Equal(t, tt.total, sum, "total=%d n=%d", tt.total, tt.n)

		// Near-equal: shares differ by at most one minor unit.
		for _, s := range shares {
			assert.InDelta(t, tt.total/int64(tt.n), s.MinorUnits, 1)
		}
	}
}

func TestSplitEqualHalves(t *testing.T) {
	shares := Split(Amount{MinorUnits: 9000, Currency: "USD"}, 2)
	require.Len(t, shares, 2)
	assert.Equal(t, int64(4500), shares[0].MinorUnits)
	assert.Equal(t, int64(4500), shares[1].MinorUnits)
}

func TestSplitInvalidCount(t *testing.T) {
	assert.Nil(t, Split(Amount{MinorUnits: 100, Currency: "USD"}, 0))
	assert.Nil(t, Split(Amount{MinorUnits: 100, Currency: "USD"}, -1))
}

func TestConvert(t *testing.T) {
	conv := NewConverter("RUB", map[string]float64{"USD": 0.011})

	got, err := conv.Convert(6000, "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(6600), got.MinorUnits)
	assert.Equal(t, "USD", got.Currency)

	same, err := conv.Convert(6000, "RUB")
	require.NoError(t, err)
	assert.Equal(t, int64(600000), same.MinorUnits)

	_, err = conv.Convert(100, "CHF")
	require.Error(t, err)
}
