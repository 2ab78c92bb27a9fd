package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Account is a chart-of-accounts entry. The engine only looks accounts up by code.
type Account struct {
	AccountID   string      `json:"accountID"`
	CompanyID   string      `json:"companyID"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	AccountType AccountType `json:"accountType"`
	IsActive    bool        `json:"isActive"`
	AuditFields
}

// AccountRole names the part an account plays in a posting policy.
type AccountRole string

const (
	RoleCash                     AccountRole = "cash"
	RoleVehicles                 AccountRole = "vehicles"
	RoleAccountsPayable          AccountRole = "accounts_payable"
	RoleSalariesPayable          AccountRole = "salaries_payable"
	RolePayrollDeductionsPayable AccountRole = "payroll_deductions_payable"
	RoleLoansPayable             AccountRole = "loans_payable"
	RolePurchases                AccountRole = "purchases"
	RoleSalariesExpense          AccountRole = "salaries_expense"
	RoleBenefitsExpense          AccountRole = "benefits_expense"
	RoleInterestExpense          AccountRole = "interest_expense"
)

// AllAccountRoles lists every role a posting policy may request.
var AllAccountRoles = []AccountRole{
	RoleCash,
	RoleVehicles,
	RoleAccountsPayable,
	RoleSalariesPayable,
	RolePayrollDeductionsPayable,
	RoleLoansPayable,
	RolePurchases,
	RoleSalariesExpense,
	RoleBenefitsExpense,
	RoleInterestExpense,
}

// AccountCodeMap maps a role to the chart code used for it.
type AccountCodeMap map[AccountRole]string

// DefaultAccountCodes returns the standard fleet chart of accounts codes.
func DefaultAccountCodes() AccountCodeMap {
	return AccountCodeMap{
		RoleCash:                     "1010",
		RoleVehicles:                 "1510",
		RoleAccountsPayable:          "2100",
		RoleSalariesPayable:          "2200",
		RolePayrollDeductionsPayable: "2210",
		RoleLoansPayable:             "2300",
		RolePurchases:                "5100",
		RoleSalariesExpense:          "5110",
		RoleBenefitsExpense:          "5120",
		RoleInterestExpense:          "5300",
	}
}

// Code returns the configured code for role, falling back to the default chart.
func (m AccountCodeMap) Code(role AccountRole) string {
	if code, ok := m[role]; ok && code != "" {
		return code
	}
	return DefaultAccountCodes()[role]
}
