package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{5, "$5.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{0.005, "$0.01"},
		{-2500.25, "-$2,500.25"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.in))
	}
}

func TestFormatShares(t *testing.T) {
	assert.Equal(t, "500", FormatShares(500))
	assert.Equal(t, "12,000", FormatShares(12000))
	assert.Equal(t, "2.5", FormatShares(2.5))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "50.00%", FormatPercent(0.5))
	assert.Equal(t, "12.35%", FormatPercent(0.12345))
	assert.Equal(t, "0.00%", FormatPercent(0))
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTableHeader(&buf, []string{"A", "B"}, []int{3, 2})
	PrintTableRow(&buf, []string{"x", "y"}, []int{3, 2})

	assert.Equal(t, "A    B \n───────\nx    y \n", buf.String())
}
