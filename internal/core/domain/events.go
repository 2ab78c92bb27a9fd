package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventType identifies a business event variant. It doubles as the journal reference type.
type EventType string

const (
	EventPayroll            EventType = "payroll"
	EventPayrollPayment     EventType = "payroll_payment"
	EventInstallmentPayment EventType = "installment_payment"
	EventVehiclePurchase    EventType = "vehicle_purchase"
	EventPurchaseOrder      EventType = "purchase_order"
	EventVendorPayment      EventType = "vendor_payment"
)

// AllEventTypes lists every event variant the ledger poster knows.
var AllEventTypes = []EventType{
	EventPayroll,
	EventPayrollPayment,
	EventInstallmentPayment,
	EventVehiclePurchase,
	EventPurchaseOrder,
	EventVendorPayment,
}

// IsKnownEventType reports whether t names an event variant.
func IsKnownEventType(t EventType) bool {
	for _, known := range AllEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BusinessEvent is a source event the ledger poster turns into a journal entry.
// (EventType, SourceID) is the natural key of the resulting entry within a company.
type BusinessEvent interface {
	EventType() EventType
	SourceID() string
	EventDate() time.Time
	Memo() string
	// CheckInvariants validates rules spanning more than one field.
	CheckInvariants() error
}

// PayrollStatus tells whether a payroll run was paid out or only accrued.
type PayrollStatus string

const (
	PayrollPaid    PayrollStatus = "paid"
	PayrollAccrued PayrollStatus = "accrued"
)

// PayrollEvent is a salary run for one employee and period.
type PayrollEvent struct {
	PayrollID    string          `json:"payrollID" validate:"required"`
	EmployeeName string          `json:"employeeName"`
	Period       string          `json:"period"`
	Date         time.Time       `json:"date" validate:"required"`
	BasicSalary  decimal.Decimal `json:"basicSalary" validate:"gte=0"`
	Allowances   decimal.Decimal `json:"allowances" validate:"gte=0"`
	Deductions   decimal.Decimal `json:"deductions" validate:"gte=0"`
	Status       PayrollStatus   `json:"status" validate:"required,oneof=paid accrued"`
}

func (e PayrollEvent) EventType() EventType { return EventPayroll }
func (e PayrollEvent) SourceID() string     { return e.PayrollID }
func (e PayrollEvent) EventDate() time.Time { return e.Date }

func (e PayrollEvent) Memo() string {
	return joinMemo("Payroll", e.Period, e.EmployeeName)
}

// GrossAmount is basic salary plus allowances.
func (e PayrollEvent) GrossAmount() decimal.Decimal {
	return e.BasicSalary.Add(e.Allowances)
}

// NetAmount is what the employee receives.
func (e PayrollEvent) NetAmount() decimal.Decimal {
	return e.GrossAmount().Sub(e.Deductions)
}

func (e PayrollEvent) CheckInvariants() error {
	if !e.GrossAmount().IsPositive() {
		return errors.New("payroll gross amount must be positive")
	}
	if e.NetAmount().IsNegative() {
		return fmt.Errorf("payroll deductions %s exceed gross amount %s", e.Deductions, e.GrossAmount())
	}
	return nil
}

// PayrollPaymentEvent settles a previously accrued payroll run.
type PayrollPaymentEvent struct {
	PayrollID    string          `json:"payrollID" validate:"required"`
	EmployeeName string          `json:"employeeName"`
	Date         time.Time       `json:"date" validate:"required"`
	NetAmount    decimal.Decimal `json:"netAmount" validate:"gt=0"`
}

func (e PayrollPaymentEvent) EventType() EventType { return EventPayrollPayment }
func (e PayrollPaymentEvent) SourceID() string     { return e.PayrollID }
func (e PayrollPaymentEvent) EventDate() time.Time { return e.Date }
func (e PayrollPaymentEvent) Memo() string         { return joinMemo("Payroll payment", e.EmployeeName) }
func (e PayrollPaymentEvent) CheckInvariants() error {
	return nil
}

// InstallmentPaymentEvent is a loan installment split into principal and interest.
type InstallmentPaymentEvent struct {
	InstallmentID   string          `json:"installmentID" validate:"required"`
	AgreementNumber string          `json:"agreementNumber"`
	Date            time.Time       `json:"date" validate:"required"`
	TotalAmount     decimal.Decimal `json:"totalAmount" validate:"gt=0"`
	InterestAmount  decimal.Decimal `json:"interestAmount" validate:"gte=0"`
}

func (e InstallmentPaymentEvent) EventType() EventType { return EventInstallmentPayment }
func (e InstallmentPaymentEvent) SourceID() string     { return e.InstallmentID }
func (e InstallmentPaymentEvent) EventDate() time.Time { return e.Date }
func (e InstallmentPaymentEvent) Memo() string {
	return joinMemo("Installment payment", e.AgreementNumber)
}

// PrincipalAmount is the part of the installment that reduces the loan.
func (e InstallmentPaymentEvent) PrincipalAmount() decimal.Decimal {
	return e.TotalAmount.Sub(e.InterestAmount)
}

func (e InstallmentPaymentEvent) CheckInvariants() error {
	if e.InterestAmount.GreaterThan(e.TotalAmount) {
		return fmt.Errorf("interest %s exceeds installment total %s", e.InterestAmount, e.TotalAmount)
	}
	return nil
}

// VehiclePurchaseEvent is a vehicle bought with a down payment and a loan.
type VehiclePurchaseEvent struct {
	VehicleID     string          `json:"vehicleID" validate:"required"`
	PlateNumber   string          `json:"plateNumber"`
	Date          time.Time       `json:"date" validate:"required"`
	PurchasePrice decimal.Decimal `json:"purchasePrice" validate:"gt=0"`
	DownPayment   decimal.Decimal `json:"downPayment" validate:"gte=0"`
	LoanAmount    decimal.Decimal `json:"loanAmount" validate:"gte=0"`
}

func (e VehiclePurchaseEvent) EventType() EventType { return EventVehiclePurchase }
func (e VehiclePurchaseEvent) SourceID() string     { return e.VehicleID }
func (e VehiclePurchaseEvent) EventDate() time.Time { return e.Date }
func (e VehiclePurchaseEvent) Memo() string         { return joinMemo("Vehicle purchase", e.PlateNumber) }

func (e VehiclePurchaseEvent) CheckInvariants() error {
	if !e.PurchasePrice.Equal(e.DownPayment.Add(e.LoanAmount)) {
		return fmt.Errorf("purchase price %s does not equal down payment %s plus loan %s", e.PurchasePrice, e.DownPayment, e.LoanAmount)
	}
	return nil
}

// PurchaseOrderEvent records goods received from a vendor on credit.
type PurchaseOrderEvent struct {
	PurchaseOrderID string          `json:"purchaseOrderID" validate:"required"`
	OrderNumber     string          `json:"orderNumber"`
	VendorName      string          `json:"vendorName"`
	Date            time.Time       `json:"date" validate:"required"`
	TotalAmount     decimal.Decimal `json:"totalAmount" validate:"gt=0"`
}

func (e PurchaseOrderEvent) EventType() EventType { return EventPurchaseOrder }
func (e PurchaseOrderEvent) SourceID() string     { return e.PurchaseOrderID }
func (e PurchaseOrderEvent) EventDate() time.Time { return e.Date }
func (e PurchaseOrderEvent) Memo() string {
	return joinMemo("Purchase order receipt", e.OrderNumber, e.VendorName)
}
func (e PurchaseOrderEvent) CheckInvariants() error { return nil }

// VendorPaymentEvent settles an amount owed to a vendor.
type VendorPaymentEvent struct {
	VendorPaymentID string          `json:"vendorPaymentID" validate:"required"`
	VendorName      string          `json:"vendorName"`
	Date            time.Time       `json:"date" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"gt=0"`
}

func (e VendorPaymentEvent) EventType() EventType   { return EventVendorPayment }
func (e VendorPaymentEvent) SourceID() string       { return e.VendorPaymentID }
func (e VendorPaymentEvent) EventDate() time.Time   { return e.Date }
func (e VendorPaymentEvent) Memo() string           { return joinMemo("Vendor payment", e.VendorName) }
func (e VendorPaymentEvent) CheckInvariants() error { return nil }

func joinMemo(prefix string, parts ...string) string {
	nonEmpty := make([]string, 0, len(parts)+1)
	nonEmpty = append(nonEmpty, prefix)
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " - ")
}
