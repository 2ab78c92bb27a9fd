package services

import (
	"context"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
)

// ReconciliationSvc applies correction directives to contract and payment data
type ReconciliationSvc interface {
	// ApplyCorrections applies directives sequentially and best-effort, then verifies every touched contract.
	ApplyCorrections(ctx context.Context, companyID string, directives []domain.CorrectionDirective, opts domain.CorrectionOptions) (*domain.CorrectionReport, error)

	// RecomputeContract rederives total paid and balance due from the contract's current payments.
	RecomputeContract(ctx context.Context, companyID, contractNumber, actor string) (*domain.Contract, error)
}
