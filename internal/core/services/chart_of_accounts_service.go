package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fleet_finance_engine/internal/core/ports/services"
	"github.com/google/uuid"
)

// defaultAccountNames maps each posting role to the name and type of the account seeded for it.
var defaultAccountNames = map[domain.AccountRole]struct {
	name        string
	accountType domain.AccountType
}{
	domain.RoleCash:                     {"Cash", domain.Asset},
	domain.RoleVehicles:                 {"Vehicles", domain.Asset},
	domain.RoleAccountsPayable:          {"Accounts Payable", domain.Liability},
	domain.RoleSalariesPayable:          {"Salaries Payable", domain.Liability},
	domain.RolePayrollDeductionsPayable: {"Payroll Deductions Payable", domain.Liability},
	domain.RoleLoansPayable:             {"Loans Payable", domain.Liability},
	domain.RolePurchases:                {"Purchases", domain.Expense},
	domain.RoleSalariesExpense:          {"Salaries Expense", domain.Expense},
	domain.RoleBenefitsExpense:          {"Benefits Expense", domain.Expense},
	domain.RoleInterestExpense:          {"Interest Expense", domain.Expense},
}

// chartOfAccountsService implements the ChartOfAccountsSvc interface
type chartOfAccountsService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	codes       domain.AccountCodeMap
}

// NewChartOfAccountsService creates a new chart of accounts service
func NewChartOfAccountsService(repo portsrepo.AccountRepositoryFacade, codes domain.AccountCodeMap, options ...ServiceOption) portssvc.ChartOfAccountsSvc {
	return &chartOfAccountsService{
		BaseService: newBaseService(options...),
		accountRepo: repo,
		codes:       codes,
	}
}

// Ensure chartOfAccountsService implements the ChartOfAccountsSvc interface
var _ portssvc.ChartOfAccountsSvc = (*chartOfAccountsService)(nil)

func (s *chartOfAccountsService) SeedDefaultChart(ctx context.Context, companyID, actor string) ([]domain.Account, error) {
	if companyID == "" {
		return nil, fmt.Errorf("%w: company ID is required", apperrors.ErrValidation)
	}
	if actor == "" {
		actor = domain.SystemActor
	}

	existing, err := s.findByCodes(ctx, companyID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	created := make([]domain.Account, 0)
	for _, role := range domain.AllAccountRoles {
		code := s.codes.Code(role)
		if _, ok := existing[code]; ok {
			continue
		}
		meta := defaultAccountNames[role]
		account := domain.Account{
			AccountID:   uuid.NewString(),
			CompanyID:   companyID,
			Code:        code,
			Name:        meta.name,
			AccountType: meta.accountType,
			IsActive:    true,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actor,
				LastUpdatedAt: now,
				LastUpdatedBy: actor,
			},
		}

		err := execStore(ctx, &s.BaseService, "save_account", func(ctx context.Context) error {
			return s.accountRepo.SaveAccount(ctx, account)
		})
		if errors.Is(err, apperrors.ErrDuplicate) {
			// An inactive account holds the code; leave it to an operator.
			s.LogWarn(ctx, "Account code already taken, not seeding", slog.String("code", code), slog.String("company_id", companyID))
			continue
		}
		if err != nil {
			s.LogError(ctx, err, "Failed to save account", slog.String("code", code), slog.String("company_id", companyID))
			return created, err
		}
		created = append(created, account)
	}

	s.LogInfo(ctx, "Default chart of accounts seeded",
		slog.String("company_id", companyID),
		slog.Int("created", len(created)))
	return created, nil
}

func (s *chartOfAccountsService) MissingAccounts(ctx context.Context, companyID string) ([]string, error) {
	if companyID == "" {
		return nil, fmt.Errorf("%w: company ID is required", apperrors.ErrValidation)
	}
	existing, err := s.findByCodes(ctx, companyID)
	if err != nil {
		return nil, err
	}

	missing := []string{}
	for _, code := range s.requiredCodes() {
		if _, ok := existing[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing, nil
}

func (s *chartOfAccountsService) findByCodes(ctx context.Context, companyID string) (map[string]domain.Account, error) {
	accounts, err := callStore(ctx, &s.BaseService, "find_accounts_by_codes", func(ctx context.Context) (map[string]domain.Account, error) {
		return s.accountRepo.FindAccountsByCodes(ctx, companyID, s.requiredCodes())
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to look up accounts", slog.String("company_id", companyID))
		return nil, err
	}
	return accounts, nil
}

func (s *chartOfAccountsService) requiredCodes() []string {
	seen := make(map[string]bool, len(domain.AllAccountRoles))
	codes := make([]string, 0, len(domain.AllAccountRoles))
	for _, role := range domain.AllAccountRoles {
		code := s.codes.Code(role)
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}
