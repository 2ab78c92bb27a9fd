package services

import (
	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fleet_finance_engine/internal/core/ports/services"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/config"
	"github.com/SscSPs/fleet_finance_engine/internal/utils/accounting"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// options are shared by every service, so they all use the same locker, metrics and clock.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, options ...ServiceOption) *portssvc.ServiceContainer {
	shared := []ServiceOption{
		WithStoreCallTimeout(cfg.StoreCallTimeout),
		WithStoreRetry(cfg.StoreRetryAttempts, cfg.StoreRetryInitialInterval),
		WithCurrencyPrecision(cfg.CurrencyPrecision),
	}
	shared = append(shared, options...)

	// A single locker instance must back every service for the per-company and
	// per-contract keys to serialize across them.
	base := newBaseService(shared...)
	shared = append(shared, WithLocker(base.Locker))

	container := &portssvc.ServiceContainer{}

	container.Ledger = NewLedgerPoster(
		repos.AccountRepo,
		repos.JournalRepo,
		LedgerConfig{
			AccountCodes:      cfg.AccountCodes,
			EntryNumberPrefix: cfg.EntryNumberPrefix,
			EntryNumberWidth:  cfg.EntryNumberWidth,
		},
		shared...,
	)
	container.Reconciliation = NewReconciliationService(repos.ContractRepo, repos.PaymentRepo, repos.Maintenance, shared...)
	container.LegalCollection = NewLegalCollectionService(repos.ContractRepo, repos.LegalCaseRepo, repos.PaymentRepo, accounting.DefaultProvisionSchedule, shared...)
	container.Accounts = NewChartOfAccountsService(repos.AccountRepo, cfg.AccountCodes, shared...)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.LedgerSvcFacade    = (*ledgerPoster)(nil)
	_ portssvc.ReconciliationSvc  = (*reconciliationService)(nil)
	_ portssvc.LegalCollectionSvc = (*legalCollectionService)(nil)
	_ portssvc.ChartOfAccountsSvc = (*chartOfAccountsService)(nil)
)
