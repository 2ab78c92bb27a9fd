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

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for chart of accounts data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, company_id, code, name, account_type, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.AccountID, m.CompanyID, m.Code, m.Name, m.AccountType, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return translateError("save account", err)
}

// FindAccountsByCodes resolves every requested code in a single round trip.
func (r *PgxAccountRepository) FindAccountsByCodes(ctx context.Context, companyID string, codes []string) (map[string]domain.Account, error) {
	result := make(map[string]domain.Account, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE company_id = $1 AND code = ANY($2) AND is_active = TRUE;
	`
	rows, err := r.Pool.Query(ctx, query, companyID, codes)
	if err != nil {
		return nil, translateError("find accounts by codes", err)
	}
	accounts, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, translateError("scan accounts", err)
	}
	for _, m := range accounts {
		result[m.Code] = mapping.ToDomainAccount(m)
	}
	return result, nil
}
