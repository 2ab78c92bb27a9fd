package services

import (
	"fmt"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PlannedLine is a policy's output before the role is resolved to an account.
type PlannedLine struct {
	Role        domain.AccountRole
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

func debitLine(role domain.AccountRole, desc string, amount decimal.Decimal) PlannedLine {
	return PlannedLine{Role: role, Description: desc, Debit: amount, Credit: decimal.Zero}
}

func creditLine(role domain.AccountRole, desc string, amount decimal.Decimal) PlannedLine {
	return PlannedLine{Role: role, Description: desc, Debit: decimal.Zero, Credit: amount}
}

// PostingPolicy maps an event to the debit and credit lines it produces.
type PostingPolicy func(event domain.BusinessEvent) ([]PlannedLine, error)

// typedPolicy adapts a policy written for one event variant.
func typedPolicy[T domain.BusinessEvent](plan func(T) []PlannedLine) PostingPolicy {
	return func(event domain.BusinessEvent) ([]PlannedLine, error) {
		ev, ok := event.(T)
		if !ok {
			return nil, fmt.Errorf("posting policy for %s cannot handle %T", event.EventType(), event)
		}
		return plan(ev), nil
	}
}

// DefaultPostingPolicies returns the standard policy for every supported event type.
func DefaultPostingPolicies() map[domain.EventType]PostingPolicy {
	return map[domain.EventType]PostingPolicy{
		domain.EventPayroll:            typedPolicy(planPayroll),
		domain.EventPayrollPayment:     typedPolicy(planPayrollPayment),
		domain.EventInstallmentPayment: typedPolicy(planInstallmentPayment),
		domain.EventVehiclePurchase:    typedPolicy(planVehiclePurchase),
		domain.EventPurchaseOrder:      typedPolicy(planPurchaseOrder),
		domain.EventVendorPayment:      typedPolicy(planVendorPayment),
	}
}

// planPayroll expenses the gross pay and credits net pay to cash (paid) or salaries payable
// (accrued). Withheld deductions are owed to third parties until remitted.
func planPayroll(e domain.PayrollEvent) []PlannedLine {
	netRole := domain.RoleSalariesPayable
	netDesc := "Net salary payable"
	if e.Status == domain.PayrollPaid {
		netRole = domain.RoleCash
		netDesc = "Net salary paid"
	}
	return []PlannedLine{
		debitLine(domain.RoleSalariesExpense, "Basic salary", e.BasicSalary),
		debitLine(domain.RoleBenefitsExpense, "Allowances", e.Allowances),
		creditLine(netRole, netDesc, e.NetAmount()),
		creditLine(domain.RolePayrollDeductionsPayable, "Payroll deductions withheld", e.Deductions),
	}
}

func planPayrollPayment(e domain.PayrollPaymentEvent) []PlannedLine {
	return []PlannedLine{
		debitLine(domain.RoleSalariesPayable, "Settle salaries payable", e.NetAmount),
		creditLine(domain.RoleCash, "Salary payment", e.NetAmount),
	}
}

func planInstallmentPayment(e domain.InstallmentPaymentEvent) []PlannedLine {
	return []PlannedLine{
		debitLine(domain.RoleLoansPayable, "Loan principal", e.PrincipalAmount()),
		debitLine(domain.RoleInterestExpense, "Loan interest", e.InterestAmount),
		creditLine(domain.RoleCash, "Installment paid", e.TotalAmount),
	}
}

func planVehiclePurchase(e domain.VehiclePurchaseEvent) []PlannedLine {
	return []PlannedLine{
		debitLine(domain.RoleVehicles, "Vehicle acquired", e.PurchasePrice),
		creditLine(domain.RoleCash, "Down payment", e.DownPayment),
		creditLine(domain.RoleLoansPayable, "Vehicle loan", e.LoanAmount),
	}
}

func planPurchaseOrder(e domain.PurchaseOrderEvent) []PlannedLine {
	return []PlannedLine{
		debitLine(domain.RolePurchases, "Goods received", e.TotalAmount),
		creditLine(domain.RoleAccountsPayable, "Amount owed to vendor", e.TotalAmount),
	}
}

func planVendorPayment(e domain.VendorPaymentEvent) []PlannedLine {
	return []PlannedLine{
		debitLine(domain.RoleAccountsPayable, "Settle vendor balance", e.Amount),
		creditLine(domain.RoleCash, "Vendor payment", e.Amount),
	}
}
