package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract is a row of contracts.
type Contract struct {
	ContractID     string          `db:"contract_id"`
	CompanyID      string          `db:"company_id"`
	ContractNumber string          `db:"contract_number"`
	Status         string          `db:"status"`
	ContractAmount decimal.Decimal `db:"contract_amount"`
	TotalPaid      decimal.Decimal `db:"total_paid"`
	BalanceDue     decimal.Decimal `db:"balance_due"`
	AuditFields
}

// Payment is a row of payments.
type Payment struct {
	PaymentID      string              `db:"payment_id"`
	CompanyID      string              `db:"company_id"`
	ContractID     string              `db:"contract_id"`
	PaymentNumber  string              `db:"payment_number"`
	PaymentDate    time.Time           `db:"payment_date"`
	Amount         decimal.Decimal     `db:"amount"`
	Status         string              `db:"status"`
	Notes          string              `db:"notes"`
	OriginalAmount decimal.NullDecimal `db:"original_amount"`
	AuditFields
}

// LegalCase is a row of legal_cases.
type LegalCase struct {
	CaseID     string          `db:"case_id"`
	CompanyID  string          `db:"company_id"`
	ContractID string          `db:"contract_id"`
	CaseNumber string          `db:"case_number"`
	CaseStatus string          `db:"case_status"`
	CaseValue  decimal.Decimal `db:"case_value"`
	FilingDate *time.Time      `db:"filing_date"`
	LegalFees  decimal.Decimal `db:"legal_fees"`
	CourtFees  decimal.Decimal `db:"court_fees"`
	CreatedAt  time.Time       `db:"created_at"`
}
