package repositories

import (
	"context"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
)

// LegalCaseReader defines read operations for legal case data
type LegalCaseReader interface {
	// FindCasesByContractIDs returns the most recent case of each contract, keyed by contract ID.
	FindCasesByContractIDs(ctx context.Context, companyID string, contractIDs []string) (map[string]domain.LegalCase, error)
}
