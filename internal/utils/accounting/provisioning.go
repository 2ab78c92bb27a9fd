package accounting

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProvisionBucket applies Rate to receivables older than MinDaysExclusive days.
type ProvisionBucket struct {
	Label            string
	MinDaysExclusive int
	Rate             decimal.Decimal
}

// ProvisionSchedule is an ordered set of buckets, oldest threshold first.
// The last bucket is the floor and must have MinDaysExclusive < 0 to match every age.
type ProvisionSchedule []ProvisionBucket

// DefaultProvisionSchedule is the doubtful-debt policy for receivables under legal procedure.
// Even a brand new case carries a 25% provision.
var DefaultProvisionSchedule = ProvisionSchedule{
	{Label: "over 365 days", MinDaysExclusive: 365, Rate: decimal.NewFromInt(1)},
	{Label: "271-365 days", MinDaysExclusive: 270, Rate: decimal.RequireFromString("0.75")},
	{Label: "181-270 days", MinDaysExclusive: 180, Rate: decimal.RequireFromString("0.50")},
	{Label: "0-180 days", MinDaysExclusive: -1, Rate: decimal.RequireFromString("0.25")},
}

// BucketFor returns the bucket that applies to a receivable of the given age.
func (s ProvisionSchedule) BucketFor(ageDays int) ProvisionBucket {
	for _, b := range s {
		if ageDays > b.MinDaysExclusive {
			return b
		}
	}
	if len(s) == 0 {
		return ProvisionBucket{Rate: decimal.Zero}
	}
	return s[len(s)-1]
}

// ProvisionResult holds the provisioning figures for one receivable.
type ProvisionResult struct {
	Rate            decimal.Decimal
	ProvisionAmount decimal.Decimal
	NetReceivable   decimal.Decimal
	RemainingAmount decimal.Decimal
}

// Calculate computes provisioning for a receivable under this schedule.
// NetReceivable + ProvisionAmount always equals original.
func (s ProvisionSchedule) Calculate(original, collected decimal.Decimal, ageDays int) ProvisionResult {
	rate := s.BucketFor(ageDays).Rate
	provision := original.Mul(rate)
	return ProvisionResult{
		Rate:            rate,
		ProvisionAmount: provision,
		NetReceivable:   original.Sub(provision),
		RemainingAmount: original.Sub(collected),
	}
}

// AgeInDays is the number of whole calendar days between the UTC dates of from and now.
// It is never negative.
func AgeInDays(from, now time.Time) int {
	start := truncateToUTCDate(from)
	end := truncateToUTCDate(now)
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

func truncateToUTCDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ProvisionRate returns the default schedule's rate for a receivable of the given age.
func ProvisionRate(ageDays int) decimal.Decimal {
	return DefaultProvisionSchedule.BucketFor(ageDays).Rate
}

// CalculateProvision applies the default schedule.
func CalculateProvision(original, collected decimal.Decimal, ageDays int) ProvisionResult {
	return DefaultProvisionSchedule.Calculate(original, collected, ageDays)
}

var hundred = decimal.NewFromInt(100)

// CollectionRate is collected as a percentage of original, rounded to two places.
// It is zero when nothing was owed.
func CollectionRate(collected, original decimal.Decimal) decimal.Decimal {
	if original.IsZero() {
		return decimal.Zero
	}
	return collected.Div(original).Mul(hundred).Round(2)
}
