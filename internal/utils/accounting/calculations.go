package accounting

import (
	"fmt"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultCurrencyPrecision is the number of decimal places money is kept at.
const DefaultCurrencyPrecision int32 = 3

// RoundAmount rounds an amount to the given currency precision.
func RoundAmount(amount decimal.Decimal, precision int32) decimal.Decimal {
	return amount.Round(precision)
}

// SumLines returns the debit and credit totals of a line set.
func SumLines(lines []domain.JournalEntryLine) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, line := range lines {
		debits = debits.Add(line.DebitAmount)
		credits = credits.Add(line.CreditAmount)
	}
	return debits, credits
}

// ValidateEntryBalance checks that lines form a valid double-entry posting.
// Each line must carry exactly one positive side and the debit total must equal the credit total.
func ValidateEntryBalance(lines []domain.JournalEntryLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: journal entry must have at least two lines", apperrors.ErrValidation)
	}

	for _, line := range lines {
		if line.DebitAmount.IsNegative() || line.CreditAmount.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative amount", apperrors.ErrValidation, line.LineNumber)
		}
		if line.DebitAmount.IsPositive() == line.CreditAmount.IsPositive() {
			return fmt.Errorf("%w: line %d must have exactly one of debit or credit", apperrors.ErrValidation, line.LineNumber)
		}
	}

	debits, credits := SumLines(lines)
	if !debits.Equal(credits) {
		return &apperrors.UnbalancedEntryError{Debits: debits, Credits: credits}
	}
	return nil
}

// FormatEntryNumber renders a sequence value as a fixed-width entry number, e.g. JE-000042.
// A sequence that no longer fits in width digits is an overflow, never a wrap-around.
func FormatEntryNumber(prefix string, seq int64, width int) (string, error) {
	if seq < 1 {
		return "", fmt.Errorf("%w: entry sequence must be positive, got %d", apperrors.ErrValidation, seq)
	}
	limit := decimal.New(1, int32(width))
	if decimal.NewFromInt(seq).GreaterThanOrEqual(limit) {
		return "", fmt.Errorf("%w: sequence %d does not fit in %d digits", apperrors.ErrEntryNumberOverflow, seq, width)
	}
	return fmt.Sprintf("%s%0*d", prefix, width, seq), nil
}
