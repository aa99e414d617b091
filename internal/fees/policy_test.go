package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		usdValue string
		want     string
	}{
		{"zero value pays nothing", "0", "0"},
		{"negative value pays nothing", "-100", "0"},
		{"tiny value hits the floor", "1", "0.01"},
		{"below floor threshold", "9.99", "0.01"},
		{"at floor boundary", "10", "0.01"},
		{"proportional in the middle", "5000", "5"},
		{"at cap boundary", "10000", "10.00"},
		{"above cap", "1000000", "10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(d(tt.usdValue))
			assert.True(t, got.Equal(d(tt.want)),
				"Compute(%s) = %s, want %s", tt.usdValue, got, tt.want)
		})
	}
}

func TestInAsset(t *testing.T) {
	// $10 fee at $40k per BTC is 0.00025 BTC
	got := InAsset(d("10"), d("40000"))
	assert.True(t, got.Equal(d("0.00025")), "got %s", got)

	assert.True(t, InAsset(d("0"), d("40000")).IsZero())
	assert.True(t, InAsset(d("10"), d("0")).IsZero())
	assert.True(t, InAsset(d("-1"), d("40000")).IsZero())
}

func TestComputeChargesFloorOnlyWithValue(t *testing.T) {
	// The floor never turns a free transfer into a charged one
	assert.True(t, Compute(decimal.Zero).IsZero())
	assert.True(t, Compute(d("0.0001")).Equal(d("0.01")))
}
