package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegalCase is a court or collection case opened against a contract.
type LegalCase struct {
	CaseID     string          `json:"caseID"`
	CompanyID  string          `json:"companyID"`
	ContractID string          `json:"contractID"`
	CaseNumber string          `json:"caseNumber"`
	CaseStatus string          `json:"caseStatus"`
	CaseValue  decimal.Decimal `json:"caseValue"`
	FilingDate *time.Time      `json:"filingDate,omitempty"`
	LegalFees  decimal.Decimal `json:"legalFees"`
	CourtFees  decimal.Decimal `json:"courtFees"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AgingStartDate is the date a receivable entered legal proceedings.
func (c LegalCase) AgingStartDate() time.Time {
	if c.FilingDate != nil && !c.FilingDate.IsZero() {
		return *c.FilingDate
	}
	return c.CreatedAt
}

// LegalCollectionItem is a derived, never persisted, view of one receivable under legal procedure.
type LegalCollectionItem struct {
	ContractID      string          `json:"contractID"`
	ContractNumber  string          `json:"contractNumber"`
	CaseID          string          `json:"caseID"`
	CaseNumber      string          `json:"caseNumber"`
	OriginalDebt    decimal.Decimal `json:"originalDebt"`
	ProvisionRate   decimal.Decimal `json:"provisionRate"`
	ProvisionAmount decimal.Decimal `json:"provisionAmount"`
	NetReceivable   decimal.Decimal `json:"netReceivable"`
	CollectedAmount decimal.Decimal `json:"collectedAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	DaysInLegal     int             `json:"daysInLegal"`
}

// ProvisionBucketSummary aggregates items that fall in the same provision bucket.
type ProvisionBucketSummary struct {
	Label           string          `json:"label"`
	Rate            decimal.Decimal `json:"rate"`
	Count           int             `json:"count"`
	OriginalDebt    decimal.Decimal `json:"originalDebt"`
	ProvisionAmount decimal.Decimal `json:"provisionAmount"`
}

// LegalCollectionSummary holds the report totals.
type LegalCollectionSummary struct {
	TotalCases           int                      `json:"totalCases"`
	TotalOriginalDebt    decimal.Decimal          `json:"totalOriginalDebt"`
	TotalProvision       decimal.Decimal          `json:"totalProvision"`
	TotalNetReceivable   decimal.Decimal          `json:"totalNetReceivable"`
	TotalCollected       decimal.Decimal          `json:"totalCollected"`
	TotalRemaining       decimal.Decimal          `json:"totalRemaining"`
	CollectionRate       decimal.Decimal          `json:"collectionRate"`
	Buckets              []ProvisionBucketSummary `json:"buckets"`
	ContractsWithoutCase int                      `json:"contractsWithoutCase"`
}

// LegalCollectionReport is the full aging and provisioning report for a company.
type LegalCollectionReport struct {
	CompanyID string                 `json:"companyID"`
	AsOf      time.Time              `json:"asOf"`
	Items     []LegalCollectionItem  `json:"items"`
	Summary   LegalCollectionSummary `json:"summary"`
}
