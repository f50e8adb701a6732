package validation

import "github.com/shopspring/decimal"

const (
	// AmountScale is the number of fractional digits in the minimum currency unit.
	AmountScale = 2

	MaxNameLength    = 100
	MaxAddressLength = 256
)

var (
	// MinTopUpAmount is the smallest amount accepted by a wallet top-up.
	MinTopUpAmount = decimal.NewFromInt(1)

	// MaxAmount is the exclusive upper bound of a numeric(20,2) column.
	MaxAmount = decimal.New(1, 18)
)
