package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatWithPrecision(t *testing.T) {
	tests := []struct {
		amount    string
		precision int32
		want      string
	}{
		{"12.3456", 3, "12.346"},
		{"12", 3, "12.000"},
		{"12.3456", 0, "12"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatWithPrecision(decimal.RequireFromString(tt.amount), tt.precision), tt.amount)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "5.83%", FormatPercent(decimal.RequireFromString("5.8333")))
	assert.Equal(t, "0.00%", FormatPercent(decimal.Zero))
}
