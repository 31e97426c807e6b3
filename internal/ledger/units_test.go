package ledger

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"whole", "1", "1000000000000000000"},
		{"fraction", "1.5", "1500000000000000000"},
		{"smallest unit", "0.000000000000000001", "1"},
		{"zero", "0", "0"},
		{"padded", " 0.25 ", "250000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEther(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseEtherRejects(t *testing.T) {
	_, err := ParseEther("")
	assert.ErrorIs(t, err, ErrEmptyAmount)

	_, err = ParseEther("-1")
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = ParseEther("0.0000000000000000001")
	assert.ErrorIs(t, err, ErrFractionTooSmall)

	_, err = ParseEther("one")
	assert.Error(t, err)
}

func TestFormatEther(t *testing.T) {
	got := FormatEther(big.NewInt(2500000000000000000))
	assert.True(t, got.Equal(decimal.RequireFromString("2.5")), "got %s", got)
	assert.True(t, FormatEther(nil).IsZero())
}
