package utils

import "github.com/shopspring/decimal"

// FormatWithPrecision formats an amount with exactly precision decimal places.
// Example: 12.3456 with precision 3 returns "12.346"
// Example: 12 with precision 3 returns "12.000"
func FormatWithPrecision(amount decimal.Decimal, precision int32) string {
	return amount.StringFixed(precision)
}

// FormatPercent formats a percentage with two decimal places and a trailing percent sign.
func FormatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(2) + "%"
}
