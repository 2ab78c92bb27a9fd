package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBusinessEvent_CheckInvariants(t *testing.T) {
	date := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   BusinessEvent
		wantErr bool
	}{
		{
			name:  "payroll with deductions",
			event: PayrollEvent{PayrollID: "p1", Date: date, BasicSalary: d("5000"), Allowances: d("1000"), Deductions: d("200"), Status: PayrollPaid},
		},
		{
			name:    "payroll deductions exceed gross",
			event:   PayrollEvent{PayrollID: "p1", Date: date, BasicSalary: d("100"), Deductions: d("150"), Status: PayrollPaid},
			wantErr: true,
		},
		{
			name:    "payroll with zero gross",
			event:   PayrollEvent{PayrollID: "p1", Date: date, Status: PayrollAccrued},
			wantErr: true,
		},
		{
			name:  "installment interest equal to total",
			event: InstallmentPaymentEvent{InstallmentID: "i1", Date: date, TotalAmount: d("100"), InterestAmount: d("100")},
		},
		{
			name:    "installment interest above total",
			event:   InstallmentPaymentEvent{InstallmentID: "i1", Date: date, TotalAmount: d("100"), InterestAmount: d("100.001")},
			wantErr: true,
		},
		{
			name:  "vehicle purchase balanced",
			event: VehiclePurchaseEvent{VehicleID: "v1", Date: date, PurchasePrice: d("80000"), DownPayment: d("20000"), LoanAmount: d("60000")},
		},
		{
			name:    "vehicle purchase price mismatch",
			event:   VehiclePurchaseEvent{VehicleID: "v1", Date: date, PurchasePrice: d("80000"), DownPayment: d("20000"), LoanAmount: d("50000")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.CheckInvariants()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPayrollEvent_Amounts(t *testing.T) {
	e := PayrollEvent{BasicSalary: d("5000"), Allowances: d("1000"), Deductions: d("200")}
	assert.True(t, e.GrossAmount().Equal(d("6000")))
	assert.True(t, e.NetAmount().Equal(d("5800")))
	assert.Equal(t, "Payroll - 2025-03 - Ali", PayrollEvent{Period: "2025-03", EmployeeName: " Ali "}.Memo())
}

func TestContract_Classify(t *testing.T) {
	tests := []struct {
		name     string
		contract Contract
		want     VerificationStatus
	}{
		{"ok", Contract{ContractAmount: d("1000"), TotalPaid: d("400")}, VerificationOK},
		{"fully paid", Contract{ContractAmount: d("1000"), TotalPaid: d("1000")}, VerificationOK},
		{"still zero", Contract{ContractAmount: decimal.Zero, TotalPaid: d("50")}, VerificationStillZero},
		{"overpaid", Contract{ContractAmount: d("1000"), TotalPaid: d("1000.5")}, VerificationOverpaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.contract.Classify())
		})
	}
}

func TestLegalCase_AgingStartDate(t *testing.T) {
	created := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	filed := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, filed, LegalCase{CreatedAt: created, FilingDate: &filed}.AgingStartDate())
	assert.Equal(t, created, LegalCase{CreatedAt: created}.AgingStartDate())
}

func TestIsKnownEventType(t *testing.T) {
	for _, et := range AllEventTypes {
		assert.True(t, IsKnownEventType(et), et)
	}
	assert.False(t, IsKnownEventType("refund"))
	assert.False(t, IsKnownEventType(""))
}
