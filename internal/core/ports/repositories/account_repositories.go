package repositories

import (
	"context"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
)

// AccountReader defines read operations for chart of accounts data
type AccountReader interface {
	// FindAccountsByCodes returns the company's active accounts keyed by code.
	// Codes without an active account are simply absent from the map.
	FindAccountsByCodes(ctx context.Context, companyID string, codes []string) (map[string]domain.Account, error)
}

// AccountWriter defines write operations for chart of accounts data
type AccountWriter interface {
	// SaveAccount persists a new account. An existing code for the company yields apperrors.ErrDuplicate.
	SaveAccount(ctx context.Context, account domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
