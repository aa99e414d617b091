// Package fees implements the platform transfer fee policy: 0.1% of the
// USD trade value, clamped to [$0.01, $10.00]. A zero-value transfer pays
// no fee at all; the clamp floor only applies once there is value to charge.
package fees

import "github.com/shopspring/decimal"

var (
	rate   = decimal.RequireFromString("0.001")
	minFee = decimal.RequireFromString("0.01")
	maxFee = decimal.RequireFromString("10.00")
)

// Compute returns the USD fee for a transfer of the given USD value.
// Pure, no I/O.
func Compute(usdValue decimal.Decimal) decimal.Decimal {
	if usdValue.Sign() <= 0 {
		return decimal.Zero
	}
	fee := usdValue.Mul(rate)
	if fee.LessThan(minFee) {
		return minFee
	}
	if fee.GreaterThan(maxFee) {
		return maxFee
	}
	return fee
}

// InAsset converts a USD fee into the transferred asset at the same unit
// price used to value the transfer, so the fee is debited in-kind alongside
// the principal.
func InAsset(feeUsd, unitPrice decimal.Decimal) decimal.Decimal {
	if feeUsd.Sign() <= 0 || unitPrice.Sign() <= 0 {
		return decimal.Zero
	}
	return feeUsd.DivRound(unitPrice, 18)
}
