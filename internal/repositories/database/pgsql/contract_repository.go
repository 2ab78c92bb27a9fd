package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	"github.com/SscSPs/fleet_finance_engine/internal/models"
	"github.com/SscSPs/fleet_finance_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxContractRepository struct {
	BaseRepository
}

func newPgxContractRepository(pool *pgxpool.Pool) portsrepo.ContractRepositoryFacade {
	return &PgxContractRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ContractRepositoryFacade = (*PgxContractRepository)(nil)

const contractColumns = `contract_id, company_id, contract_number, status, contract_amount, total_paid, balance_due,
	created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxContractRepository) findOne(ctx context.Context, op, where string, args ...any) (*domain.Contract, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+contractColumns+` FROM contracts WHERE `+where+`;`, args...)
	if err != nil {
		return nil, translateError(op, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Contract])
	if err != nil {
		return nil, translateError(op, err)
	}
	contract := mapping.ToDomainContract(m)
	return &contract, nil
}

// FindContractByNumber retrieves a contract by its business number.
func (r *PgxContractRepository) FindContractByNumber(ctx context.Context, companyID, contractNumber string) (*domain.Contract, error) {
	return r.findOne(ctx, "find contract by number", "company_id = $1 AND contract_number = $2", companyID, contractNumber)
}

// FindContractByID retrieves a contract by its ID.
func (r *PgxContractRepository) FindContractByID(ctx context.Context, companyID, contractID string) (*domain.Contract, error) {
	return r.findOne(ctx, "find contract by id", "company_id = $1 AND contract_id = $2", companyID, contractID)
}

// ListContractsByStatus returns the company's contracts in a status, ordered by number.
func (r *PgxContractRepository) ListContractsByStatus(ctx context.Context, companyID string, status domain.ContractStatus) ([]domain.Contract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM contracts
		WHERE company_id = $1 AND status = $2
		ORDER BY contract_number;
	`
	rows, err := r.Pool.Query(ctx, query, companyID, status)
	if err != nil {
		return nil, translateError("list contracts", err)
	}
	contractModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Contract])
	if err != nil {
		return nil, translateError("scan contracts", err)
	}
	contracts := make([]domain.Contract, 0, len(contractModels))
	for _, m := range contractModels {
		contracts = append(contracts, mapping.ToDomainContract(m))
	}
	return contracts, nil
}

// UpdateContractAmount sets a new agreed amount.
func (r *PgxContractRepository) UpdateContractAmount(ctx context.Context, contractID string, amount decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE contracts
		SET contract_amount = $2, last_updated_at = $3, last_updated_by = $4
		WHERE contract_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, contractID, amount, updatedAt, updatedBy)
	if err != nil {
		return translateError("update contract amount", err)
	}
	return expectOneRow("update contract amount", tag)
}

// UpdateContractTotals stores the derived payment totals of a contract.
func (r *PgxContractRepository) UpdateContractTotals(ctx context.Context, contractID string, totalPaid, balanceDue decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE contracts
		SET total_paid = $2, balance_due = $3, last_updated_at = $4, last_updated_by = $5
		WHERE contract_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, contractID, totalPaid, balanceDue, updatedAt, updatedBy)
	if err != nil {
		return translateError("update contract totals", err)
	}
	return expectOneRow("update contract totals", tag)
}
