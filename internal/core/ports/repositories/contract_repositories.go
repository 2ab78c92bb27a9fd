package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ContractReader defines read operations for contract data
type ContractReader interface {
	FindContractByNumber(ctx context.Context, companyID, contractNumber string) (*domain.Contract, error)
	FindContractByID(ctx context.Context, companyID, contractID string) (*domain.Contract, error)
	ListContractsByStatus(ctx context.Context, companyID string, status domain.ContractStatus) ([]domain.Contract, error)
}

// ContractWriter defines write operations for contract data
type ContractWriter interface {
	UpdateContractAmount(ctx context.Context, contractID string, amount decimal.Decimal, updatedBy string, updatedAt time.Time) error

	// UpdateContractTotals stores the derived payment totals of a contract.
	UpdateContractTotals(ctx context.Context, contractID string, totalPaid, balanceDue decimal.Decimal, updatedBy string, updatedAt time.Time) error
}

// ContractRepositoryFacade combines all contract-related repository interfaces
type ContractRepositoryFacade interface {
	ContractReader
	ContractWriter
}
