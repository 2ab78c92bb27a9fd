package pgsql

import (
	"context"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	"github.com/SscSPs/fleet_finance_engine/internal/models"
	"github.com/SscSPs/fleet_finance_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxLegalCaseRepository struct {
	BaseRepository
}

func newPgxLegalCaseRepository(pool *pgxpool.Pool) portsrepo.LegalCaseReader {
	return &PgxLegalCaseRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LegalCaseReader = (*PgxLegalCaseRepository)(nil)

// FindCasesByContractIDs returns the most recent case of each contract, keyed by contract ID.
func (r *PgxLegalCaseRepository) FindCasesByContractIDs(ctx context.Context, companyID string, contractIDs []string) (map[string]domain.LegalCase, error) {
	cases := make(map[string]domain.LegalCase, len(contractIDs))
	if len(contractIDs) == 0 {
		return cases, nil
	}

	query := `
		SELECT DISTINCT ON (contract_id)
		       case_id, company_id, contract_id, case_number, case_status, case_value,
		       filing_date, legal_fees, court_fees, created_at
		FROM legal_cases
		WHERE company_id = $1 AND contract_id = ANY($2)
		ORDER BY contract_id, created_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, companyID, contractIDs)
	if err != nil {
		return nil, translateError("find legal cases", err)
	}
	caseModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.LegalCase])
	if err != nil {
		return nil, translateError("scan legal cases", err)
	}
	for _, m := range caseModels {
		cases[m.ContractID] = mapping.ToDomainLegalCase(m)
	}
	return cases, nil
}
