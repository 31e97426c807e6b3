package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of base units (wei) per displayed unit, as a
// power of ten.
const EtherDecimals = 18

var (
	ErrEmptyAmount      = errors.New("amount is empty")
	ErrNegativeAmount   = errors.New("amount is negative")
	ErrFractionTooSmall = errors.New("amount has more than 18 decimal places")
)

// ParseEther converts a decimal ether string into wei.
func ParseEther(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	wei := d.Shift(EtherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, ErrFractionTooSmall
	}
	return wei.BigInt(), nil
}

// FormatEther converts wei into ether.
func FormatEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals)
}
