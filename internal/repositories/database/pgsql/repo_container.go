package pgsql

import (
	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:   newPgxAccountRepository(dbPool),
		JournalRepo:   newPgxJournalRepository(dbPool),
		ContractRepo:  newPgxContractRepository(dbPool),
		PaymentRepo:   newPgxPaymentRepository(dbPool),
		LegalCaseRepo: newPgxLegalCaseRepository(dbPool),
		Maintenance:   newPgxMaintenanceRepository(dbPool),
	}
}
