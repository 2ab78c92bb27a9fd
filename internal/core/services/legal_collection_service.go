package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fleet_finance_engine/internal/core/ports/services"
	"github.com/SscSPs/fleet_finance_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// legalCollectionService implements the LegalCollectionSvc interface
type legalCollectionService struct {
	BaseService
	contractRepo portsrepo.ContractReader
	caseRepo     portsrepo.LegalCaseReader
	paymentRepo  portsrepo.PaymentReader
	schedule     accounting.ProvisionSchedule
}

// NewLegalCollectionService creates a new legal collection service.
// An empty schedule falls back to accounting.DefaultProvisionSchedule.
func NewLegalCollectionService(contractRepo portsrepo.ContractReader, caseRepo portsrepo.LegalCaseReader, paymentRepo portsrepo.PaymentReader, schedule accounting.ProvisionSchedule, options ...ServiceOption) portssvc.LegalCollectionSvc {
	if len(schedule) == 0 {
		schedule = accounting.DefaultProvisionSchedule
	}
	return &legalCollectionService{
		BaseService:  newBaseService(options...),
		contractRepo: contractRepo,
		caseRepo:     caseRepo,
		paymentRepo:  paymentRepo,
		schedule:     schedule,
	}
}

// Ensure legalCollectionService implements the LegalCollectionSvc interface
var _ portssvc.LegalCollectionSvc = (*legalCollectionService)(nil)

// Report ages every receivable under legal procedure as of asOf and computes its provision.
// A zero asOf means now. Nothing is persisted.
func (s *legalCollectionService) Report(ctx context.Context, companyID string, asOf time.Time) (*domain.LegalCollectionReport, error) {
	if companyID == "" {
		return nil, fmt.Errorf("%w: company ID is required", apperrors.ErrValidation)
	}
	if asOf.IsZero() {
		asOf = s.Now()
	}

	contracts, err := callStore(ctx, &s.BaseService, "list_contracts_by_status", func(ctx context.Context) ([]domain.Contract, error) {
		return s.contractRepo.ListContractsByStatus(ctx, companyID, domain.ContractUnderLegalProcedure)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list contracts under legal procedure", slog.String("company_id", companyID))
		return nil, fmt.Errorf("listing contracts under legal procedure: %w", err)
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].ContractNumber < contracts[j].ContractNumber })

	contractIDs := make([]string, 0, len(contracts))
	for _, c := range contracts {
		contractIDs = append(contractIDs, c.ContractID)
	}

	cases := map[string]domain.LegalCase{}
	payments := map[string][]domain.Payment{}
	if len(contractIDs) > 0 {
		cases, err = callStore(ctx, &s.BaseService, "find_legal_cases", func(ctx context.Context) (map[string]domain.LegalCase, error) {
			return s.caseRepo.FindCasesByContractIDs(ctx, companyID, contractIDs)
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to load legal cases", slog.String("company_id", companyID))
			return nil, fmt.Errorf("loading legal cases: %w", err)
		}
		payments, err = callStore(ctx, &s.BaseService, "list_payments_by_contracts", func(ctx context.Context) (map[string][]domain.Payment, error) {
			return s.paymentRepo.ListPaymentsByContracts(ctx, contractIDs)
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to load payments", slog.String("company_id", companyID))
			return nil, fmt.Errorf("loading payments: %w", err)
		}
	}

	report := &domain.LegalCollectionReport{
		CompanyID: companyID,
		AsOf:      asOf,
		Items:     make([]domain.LegalCollectionItem, 0, len(contracts)),
	}
	summary := &report.Summary
	summary.TotalOriginalDebt = decimal.Zero
	summary.TotalProvision = decimal.Zero
	summary.TotalNetReceivable = decimal.Zero
	summary.TotalCollected = decimal.Zero
	summary.TotalRemaining = decimal.Zero

	buckets := make([]domain.ProvisionBucketSummary, len(s.schedule))
	bucketIndex := make(map[string]int, len(s.schedule))
	for i, b := range s.schedule {
		buckets[i] = domain.ProvisionBucketSummary{Label: b.Label, Rate: b.Rate, OriginalDebt: decimal.Zero, ProvisionAmount: decimal.Zero}
		bucketIndex[b.Label] = i
	}

	for _, contract := range contracts {
		legalCase, ok := cases[contract.ContractID]
		if !ok {
			summary.ContractsWithoutCase++
			s.LogDebug(ctx, "Contract under legal procedure has no legal case", slog.String("contract_number", contract.ContractNumber))
			continue
		}

		item := s.buildItem(contract, legalCase, payments[contract.ContractID], asOf)
		report.Items = append(report.Items, item)

		summary.TotalCases++
		summary.TotalOriginalDebt = summary.TotalOriginalDebt.Add(item.OriginalDebt)
		summary.TotalProvision = summary.TotalProvision.Add(item.ProvisionAmount)
		summary.TotalNetReceivable = summary.TotalNetReceivable.Add(item.NetReceivable)
		summary.TotalCollected = summary.TotalCollected.Add(item.CollectedAmount)
		summary.TotalRemaining = summary.TotalRemaining.Add(item.RemainingAmount)

		if i, ok := bucketIndex[s.schedule.BucketFor(item.DaysInLegal).Label]; ok {
			buckets[i].Count++
			buckets[i].OriginalDebt = buckets[i].OriginalDebt.Add(item.OriginalDebt)
			buckets[i].ProvisionAmount = buckets[i].ProvisionAmount.Add(item.ProvisionAmount)
		}
	}
	summary.CollectionRate = accounting.CollectionRate(summary.TotalCollected, summary.TotalOriginalDebt)
	summary.Buckets = buckets

	s.Metrics.LegalProvision(companyID, summary.TotalProvision.InexactFloat64())
	s.LogInfo(ctx, "Legal collection report computed",
		slog.String("company_id", companyID),
		slog.Int("cases", summary.TotalCases),
		slog.Int("contracts_without_case", summary.ContractsWithoutCase),
		slog.String("total_provision", summary.TotalProvision.String()),
	)
	return report, nil
}

// buildItem computes the figures of one receivable. Original debt is the case value,
// or the contract's balance due when the case carries none. Only payments made between
// the start of legal proceedings and asOf count as collected.
func (s *legalCollectionService) buildItem(contract domain.Contract, legalCase domain.LegalCase, payments []domain.Payment, asOf time.Time) domain.LegalCollectionItem {
	original := legalCase.CaseValue
	if !original.IsPositive() {
		original = contract.BalanceDue
	}

	start := legalCase.AgingStartDate()
	collected := decimal.Zero
	for _, p := range payments {
		if !p.CountsTowardTotal() {
			continue
		}
		if onOrAfterDay(p.PaymentDate, start) && onOrAfterDay(asOf, p.PaymentDate) {
			collected = collected.Add(p.Amount)
		}
	}

	age := accounting.AgeInDays(start, asOf)
	result := s.schedule.Calculate(original, collected, age)

	return domain.LegalCollectionItem{
		ContractID:      contract.ContractID,
		ContractNumber:  contract.ContractNumber,
		CaseID:          legalCase.CaseID,
		CaseNumber:      legalCase.CaseNumber,
		OriginalDebt:    original,
		ProvisionRate:   result.Rate,
		ProvisionAmount: result.ProvisionAmount,
		NetReceivable:   result.NetReceivable,
		CollectedAmount: collected,
		RemainingAmount: result.RemainingAmount,
		DaysInLegal:     age,
	}
}

// onOrAfterDay compares UTC calendar dates, ignoring the time of day.
func onOrAfterDay(t, ref time.Time) bool {
	ty, tm, td := t.UTC().Date()
	ry, rm, rd := ref.UTC().Date()
	return !time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).Before(time.Date(ry, rm, rd, 0, 0, 0, 0, time.UTC))
}
