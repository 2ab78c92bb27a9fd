package dto

import (
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ApplyCorrectionsRequest defines a batch of correction directives.
// Field rules of each directive are validated by the reconciliation service.
type ApplyCorrectionsRequest struct {
	Directives              []domain.CorrectionDirective `json:"directives" binding:"required,min=1"`
	SuspendOverpaymentGuard bool                         `json:"suspendOverpaymentGuard,omitempty"`
}

// CorrectionsFile is the document the operator CLI reads directives from.
type CorrectionsFile struct {
	Directives []domain.CorrectionDirective `json:"directives"`
}

// ContractResponse defines the data returned for a contract.
type ContractResponse struct {
	ContractID     string                    `json:"contractID"`
	ContractNumber string                    `json:"contractNumber"`
	Status         domain.ContractStatus     `json:"status"`
	ContractAmount decimal.Decimal           `json:"contractAmount"`
	TotalPaid      decimal.Decimal           `json:"totalPaid"`
	BalanceDue     decimal.Decimal           `json:"balanceDue"`
	Verification   domain.VerificationStatus `json:"verification"`
}

// ToContractResponse converts a domain.Contract to ContractResponse DTO.
func ToContractResponse(c *domain.Contract) ContractResponse {
	return ContractResponse{
		ContractID:     c.ContractID,
		ContractNumber: c.ContractNumber,
		Status:         c.Status,
		ContractAmount: c.ContractAmount,
		TotalPaid:      c.TotalPaid,
		BalanceDue:     c.BalanceDue,
		Verification:   c.Classify(),
	}
}
