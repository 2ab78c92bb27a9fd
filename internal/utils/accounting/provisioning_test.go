package accounting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProvisionRate_Buckets(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{0, "0.25"},
		{180, "0.25"},
		{181, "0.5"},
		{270, "0.5"},
		{271, "0.75"},
		{365, "0.75"},
		{366, "1"},
		{4000, "1"},
	}
	for _, tt := range tests {
		assert.True(t, ProvisionRate(tt.age).Equal(dec(tt.want)), "age %d: got %s want %s", tt.age, ProvisionRate(tt.age), tt.want)
	}
}

func TestProvisionRate_Monotonic(t *testing.T) {
	prev := ProvisionRate(0)
	for age := 1; age <= 800; age++ {
		rate := ProvisionRate(age)
		assert.True(t, rate.GreaterThanOrEqual(prev), "rate dropped at age %d", age)
		prev = rate
	}
}

func TestCalculateProvision(t *testing.T) {
	// A 200 day old case for 10,000 with 2,000 already collected.
	got := CalculateProvision(dec("10000"), dec("2000"), 200)

	assert.True(t, got.Rate.Equal(dec("0.5")))
	assert.True(t, got.ProvisionAmount.Equal(dec("5000")))
	assert.True(t, got.NetReceivable.Equal(dec("5000")))
	assert.True(t, got.RemainingAmount.Equal(dec("8000")))
}

func TestCalculateProvision_NetPlusProvisionEqualsOriginal(t *testing.T) {
	originals := []string{"0", "0.001", "1234.567", "99999.999"}
	for _, o := range originals {
		for _, age := range []int{0, 181, 271, 366} {
			r := CalculateProvision(dec(o), decimal.Zero, age)
			assert.True(t, r.NetReceivable.Add(r.ProvisionAmount).Equal(dec(o)), "original %s age %d", o, age)
		}
	}
}

func TestCollectionRate(t *testing.T) {
	assert.True(t, CollectionRate(dec("2500"), dec("10000")).Equal(dec("25")))
	assert.True(t, CollectionRate(dec("1"), dec("3")).Equal(dec("33.33")))
	assert.True(t, CollectionRate(dec("500"), decimal.Zero).IsZero())
	assert.True(t, CollectionRate(decimal.Zero, decimal.Zero).IsZero())
}

func TestAgeInDays(t *testing.T) {
	from := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, 0, AgeInDays(from, from))
	assert.Equal(t, 1, AgeInDays(from, time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC)))
	assert.Equal(t, 366, AgeInDays(from, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, AgeInDays(from, from.AddDate(0, 0, -10)), "future dates never yield a negative age")
}

func TestAgeInDays_UsesUTCDates(t *testing.T) {
	gst := time.FixedZone("GST", 4*60*60)
	// 02:00 on Jan 2 in GST is still Jan 1 in UTC.
	from := time.Date(2024, 1, 2, 2, 0, 0, 0, gst)
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, AgeInDays(from, now))
}

func TestProvisionSchedule_Custom(t *testing.T) {
	schedule := ProvisionSchedule{
		{Label: "over 90 days", MinDaysExclusive: 90, Rate: decimal.NewFromInt(1)},
		{Label: "current", MinDaysExclusive: -1, Rate: decimal.Zero},
	}

	assert.Equal(t, "current", schedule.BucketFor(90).Label)
	assert.Equal(t, "over 90 days", schedule.BucketFor(91).Label)
	assert.True(t, ProvisionSchedule{}.BucketFor(10).Rate.IsZero())
}
