package services

import (
	"context"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
)

// ChartOfAccountsSvc manages the accounts the ledger poster resolves codes against
type ChartOfAccountsSvc interface {
	// SeedDefaultChart creates any posting account the company is missing and returns the created accounts.
	SeedDefaultChart(ctx context.Context, companyID, actor string) ([]domain.Account, error)

	// MissingAccounts lists the configured codes the company has no active account for.
	MissingAccounts(ctx context.Context, companyID string) ([]string, error)
}
