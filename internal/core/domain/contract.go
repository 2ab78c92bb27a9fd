package domain

import "github.com/shopspring/decimal"

// ContractStatus is the lifecycle state of a rental contract.
type ContractStatus string

const (
	ContractActive              ContractStatus = "active"
	ContractCompleted           ContractStatus = "completed"
	ContractCancelled           ContractStatus = "cancelled"
	ContractUnderLegalProcedure ContractStatus = "under_legal_procedure"
)

// Contract is a rental agreement. TotalPaid and BalanceDue are derived from its payments.
type Contract struct {
	ContractID     string          `json:"contractID"`
	CompanyID      string          `json:"companyID"`
	ContractNumber string          `json:"contractNumber"`
	Status         ContractStatus  `json:"status"`
	ContractAmount decimal.Decimal `json:"contractAmount"`
	TotalPaid      decimal.Decimal `json:"totalPaid"`
	BalanceDue     decimal.Decimal `json:"balanceDue"`
	AuditFields
}
