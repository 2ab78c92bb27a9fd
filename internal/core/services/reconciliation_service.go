package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fleet_finance_engine/internal/core/ports/services"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/lock"
	"github.com/SscSPs/fleet_finance_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// reconciliationService applies correction directives and keeps contract totals derived
// from the payments actually on file.
type reconciliationService struct {
	BaseService
	contractRepo portsrepo.ContractRepositoryFacade
	paymentRepo  portsrepo.PaymentRepositoryFacade
	maintenance  portsrepo.MaintenanceController
}

// NewReconciliationService creates a new reconciliation service.
// maintenance may be nil, in which case the overpayment guard can never be suspended.
func NewReconciliationService(contractRepo portsrepo.ContractRepositoryFacade, paymentRepo portsrepo.PaymentRepositoryFacade, maintenance portsrepo.MaintenanceController, options ...ServiceOption) portssvc.ReconciliationSvc {
	return &reconciliationService{
		BaseService:  newBaseService(options...),
		contractRepo: contractRepo,
		paymentRepo:  paymentRepo,
		maintenance:  maintenance,
	}
}

// Ensure reconciliationService implements the ReconciliationSvc interface
var _ portssvc.ReconciliationSvc = (*reconciliationService)(nil)

// ApplyCorrections applies each directive in order. A failing directive is recorded in the
// report and never stops the batch. Every contract touched is verified at the end.
func (s *reconciliationService) ApplyCorrections(ctx context.Context, companyID string, directives []domain.CorrectionDirective, opts domain.CorrectionOptions) (*domain.CorrectionReport, error) {
	if companyID == "" {
		return nil, fmt.Errorf("%w: company ID is required", apperrors.ErrValidation)
	}
	actor := opts.Actor
	if actor == "" {
		actor = domain.SystemActor
	}

	report := &domain.CorrectionReport{
		CompanyID:     companyID,
		Outcomes:      make([]domain.DirectiveOutcome, 0, len(directives)),
		Verifications: []domain.ContractVerification{},
	}

	if opts.SuspendOverpaymentGuard {
		restore, err := s.suspendOverpaymentGuard(ctx, companyID, actor)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := restore(); err != nil {
				report.GuardRestoreError = err.Error()
			}
		}()
		report.GuardSuspended = true
	}

	var touched []string
	seen := make(map[string]bool)

	for i, directive := range directives {
		outcome := domain.DirectiveOutcome{Index: i, Kind: directive.Kind, Target: directive.Target()}

		var contract *domain.Contract
		err := ctx.Err()
		if err == nil {
			err = runIsolated(func() error {
				var applyErr error
				contract, applyErr = s.applyDirective(ctx, companyID, directive, actor, &outcome)
				return applyErr
			})
		}

		if contract != nil {
			outcome.ContractNumber = contract.ContractNumber
			if !seen[contract.ContractID] {
				seen[contract.ContractID] = true
				touched = append(touched, contract.ContractID)
			}
		}
		if err != nil {
			outcome.Error = err.Error()
			report.Failed++
			s.LogWarn(ctx, "Correction directive failed",
				slog.Int("index", i),
				slog.String("kind", string(directive.Kind)),
				slog.String("target", directive.Target()),
				slog.String("error", err.Error()),
			)
		} else {
			outcome.Applied = true
			report.Applied++
		}
		s.Metrics.DirectiveProcessed(string(directive.Kind), outcome.Applied)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	verifyCtx := context.WithoutCancel(ctx)
	for _, contractID := range touched {
		contract, err := callStore(verifyCtx, &s.BaseService, "find_contract", func(ctx context.Context) (*domain.Contract, error) {
			return s.contractRepo.FindContractByID(ctx, companyID, contractID)
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to re-read contract for verification", slog.String("contract_id", contractID))
			continue
		}
		v := domain.ContractVerification{
			ContractNumber: contract.ContractNumber,
			ContractAmount: contract.ContractAmount,
			TotalPaid:      contract.TotalPaid,
			BalanceDue:     contract.BalanceDue,
			Status:         contract.Classify(),
		}
		if v.Status != domain.VerificationOK {
			s.LogWarn(ctx, "Contract needs attention after corrections",
				slog.String("contract_number", v.ContractNumber),
				slog.String("status", string(v.Status)),
			)
		}
		report.Verifications = append(report.Verifications, v)
	}

	s.LogInfo(ctx, "Correction batch finished",
		slog.String("company_id", companyID),
		slog.Int("applied", report.Applied),
		slog.Int("failed", report.Failed),
		slog.Int("contracts_verified", len(report.Verifications)),
	)
	return report, nil
}

// overpaymentGuardKey names the maintenance lock held while the guard is off. The trigger is
// table-wide, so batches of different companies must not overlap either.
var overpaymentGuardKey = lock.MaintenanceKey("overpayment_guard")

// suspendOverpaymentGuard disables the store trigger and returns the function that turns it
// back on. The maintenance lock is held from before the disable until after the restore.
func (s *reconciliationService) suspendOverpaymentGuard(ctx context.Context, companyID, actor string) (func() error, error) {
	if s.maintenance == nil {
		return nil, fmt.Errorf("%w: overpayment guard cannot be suspended by this store", apperrors.ErrValidation)
	}

	unlock, err := s.Locker.Lock(ctx, overpaymentGuardKey)
	if err != nil {
		return nil, apperrors.NewTransientStoreError("lock overpayment guard", err)
	}

	s.LogWarn(ctx, "Suspending overpayment guard for correction batch", slog.String("company_id", companyID), slog.String("actor", actor))
	if err := execStore(ctx, &s.BaseService, "disable_overpayment_guard", func(ctx context.Context) error {
		return s.maintenance.SetOverpaymentGuard(ctx, false)
	}); err != nil {
		unlock()
		return nil, fmt.Errorf("suspending overpayment guard: %w", err)
	}

	return func() error {
		defer unlock()
		restoreCtx := context.WithoutCancel(ctx)
		if err := execStore(restoreCtx, &s.BaseService, "enable_overpayment_guard", func(ctx context.Context) error {
			return s.maintenance.SetOverpaymentGuard(ctx, true)
		}); err != nil {
			s.LogError(ctx, err, "Failed to re-enable overpayment guard, it must be restored manually")
			return fmt.Errorf("re-enabling overpayment guard: %w", err)
		}
		s.LogWarn(ctx, "Overpayment guard re-enabled", slog.String("company_id", companyID))
		return nil
	}, nil
}

// applyDirective applies one directive and recomputes the contract it touched.
// The returned contract is non-nil whenever the directive reached a contract, even on error.
func (s *reconciliationService) applyDirective(ctx context.Context, companyID string, d domain.CorrectionDirective, actor string, outcome *domain.DirectiveOutcome) (*domain.Contract, error) {
	if err := validateStruct(d); err != nil {
		return nil, err
	}

	switch d.Kind {
	case domain.SetContractAmount:
		return s.setContractAmount(ctx, companyID, d, actor, outcome)
	case domain.SetPaymentAmount, domain.CancelPayment:
		return s.correctPayment(ctx, companyID, d, actor, outcome)
	default:
		return nil, fmt.Errorf("%w: unknown directive kind %q", apperrors.ErrValidation, d.Kind)
	}
}

func (s *reconciliationService) setContractAmount(ctx context.Context, companyID string, d domain.CorrectionDirective, actor string, outcome *domain.DirectiveOutcome) (*domain.Contract, error) {
	contract, err := s.findContractByNumber(ctx, companyID, d.ContractNumber)
	if err != nil {
		return nil, err
	}

	unlock, err := s.Locker.Lock(ctx, lock.ContractKey(companyID, contract.ContractID))
	if err != nil {
		return contract, apperrors.NewTransientStoreError("lock contract", err)
	}
	defer unlock()

	previous := contract.ContractAmount
	newAmount := accounting.RoundAmount(d.NewAmount, s.Precision)
	if err := execStore(ctx, &s.BaseService, "update_contract_amount", func(ctx context.Context) error {
		return s.contractRepo.UpdateContractAmount(ctx, contract.ContractID, newAmount, actor, s.Now())
	}); err != nil {
		return contract, fmt.Errorf("updating contract %s amount: %w", contract.ContractNumber, err)
	}
	outcome.PreviousAmount = &previous
	outcome.NewAmount = &newAmount
	contract.ContractAmount = newAmount

	s.LogInfo(ctx, "Contract amount corrected",
		slog.String("contract_number", contract.ContractNumber),
		slog.String("previous", previous.String()),
		slog.String("new", newAmount.String()),
		slog.String("reason", d.Reason),
	)
	return s.recompute(ctx, contract, actor)
}

func (s *reconciliationService) correctPayment(ctx context.Context, companyID string, d domain.CorrectionDirective, actor string, outcome *domain.DirectiveOutcome) (*domain.Contract, error) {
	payment, err := s.findPayment(ctx, companyID, d.PaymentID)
	if err != nil {
		return nil, err
	}
	contract, err := callStore(ctx, &s.BaseService, "find_contract", func(ctx context.Context) (*domain.Contract, error) {
		return s.contractRepo.FindContractByID(ctx, companyID, payment.ContractID)
	})
	if err != nil {
		return nil, fmt.Errorf("loading contract of payment %s: %w", d.PaymentID, err)
	}

	unlock, err := s.Locker.Lock(ctx, lock.ContractKey(companyID, contract.ContractID))
	if err != nil {
		return contract, apperrors.NewTransientStoreError("lock contract", err)
	}
	defer unlock()

	// Re-read under the lock so the audit note reflects the amount actually replaced.
	payment, err = s.findPayment(ctx, companyID, d.PaymentID)
	if err != nil {
		return contract, err
	}
	if payment.Status == domain.PaymentCancelled {
		return contract, fmt.Errorf("%w: payment %s is already cancelled", apperrors.ErrConflict, payment.PaymentID)
	}

	previous := payment.Amount
	original := previous
	if payment.OriginalAmount != nil {
		original = *payment.OriginalAmount
	}

	corrected := *payment
	corrected.OriginalAmount = &original
	corrected.LastUpdatedAt = s.Now()
	corrected.LastUpdatedBy = actor

	if d.Kind == domain.CancelPayment {
		corrected.Amount = decimal.Zero
		corrected.Status = domain.PaymentCancelled
		corrected.Notes = appendNote(payment.Notes, fmt.Sprintf("CANCELLED: %s (previous %s, original %s, by %s on %s)",
			d.Reason, previous, original, actor, corrected.LastUpdatedAt.Format("2006-01-02")))
	} else {
		corrected.Amount = accounting.RoundAmount(d.NewAmount, s.Precision)
		corrected.Notes = appendNote(payment.Notes, fmt.Sprintf("CORRECTED: %s (previous %s, new %s, delta %s, original %s, by %s on %s)",
			d.Reason, previous, corrected.Amount, corrected.Amount.Sub(previous), original, actor, corrected.LastUpdatedAt.Format("2006-01-02")))
	}

	if err := execStore(ctx, &s.BaseService, "update_payment", func(ctx context.Context) error {
		return s.paymentRepo.UpdatePaymentCorrection(ctx, corrected)
	}); err != nil {
		return contract, fmt.Errorf("updating payment %s: %w", payment.PaymentID, err)
	}
	outcome.PreviousAmount = &previous
	outcome.NewAmount = &corrected.Amount

	s.LogInfo(ctx, "Payment corrected",
		slog.String("payment_id", payment.PaymentID),
		slog.String("contract_number", contract.ContractNumber),
		slog.String("kind", string(d.Kind)),
		slog.String("previous", previous.String()),
		slog.String("new", corrected.Amount.String()),
	)
	return s.recompute(ctx, contract, actor)
}

// RecomputeContract rederives the totals of one contract on demand.
func (s *reconciliationService) RecomputeContract(ctx context.Context, companyID, contractNumber, actor string) (*domain.Contract, error) {
	if actor == "" {
		actor = domain.SystemActor
	}
	contract, err := s.findContractByNumber(ctx, companyID, contractNumber)
	if err != nil {
		return nil, err
	}

	unlock, err := s.Locker.Lock(ctx, lock.ContractKey(companyID, contract.ContractID))
	if err != nil {
		return nil, apperrors.NewTransientStoreError("lock contract", err)
	}
	defer unlock()

	// Amount may have changed while we waited for the lock.
	contract, err = s.findContractByNumber(ctx, companyID, contractNumber)
	if err != nil {
		return nil, err
	}
	return s.recompute(ctx, contract, actor)
}

// recompute sets total paid to the sum of non-cancelled payments and balance due to the
// remainder. It only reads current payments, so running it twice changes nothing.
// Callers must hold the contract lock.
func (s *reconciliationService) recompute(ctx context.Context, contract *domain.Contract, actor string) (*domain.Contract, error) {
	payments, err := callStore(ctx, &s.BaseService, "list_payments_by_contract", func(ctx context.Context) ([]domain.Payment, error) {
		return s.paymentRepo.ListPaymentsByContract(ctx, contract.ContractID)
	})
	if err != nil {
		return contract, fmt.Errorf("loading payments of contract %s: %w", contract.ContractNumber, err)
	}

	totalPaid := decimal.Zero
	for _, p := range payments {
		if p.CountsTowardTotal() {
			totalPaid = totalPaid.Add(p.Amount)
		}
	}
	balanceDue := contract.ContractAmount.Sub(totalPaid)

	if err := execStore(ctx, &s.BaseService, "update_contract_totals", func(ctx context.Context) error {
		return s.contractRepo.UpdateContractTotals(ctx, contract.ContractID, totalPaid, balanceDue, actor, s.Now())
	}); err != nil {
		return contract, fmt.Errorf("updating totals of contract %s: %w", contract.ContractNumber, err)
	}

	updated := *contract
	updated.TotalPaid = totalPaid
	updated.BalanceDue = balanceDue
	s.LogDebug(ctx, "Contract totals recomputed",
		slog.String("contract_number", contract.ContractNumber),
		slog.String("total_paid", totalPaid.String()),
		slog.String("balance_due", balanceDue.String()),
	)
	return &updated, nil
}

func (s *reconciliationService) findContractByNumber(ctx context.Context, companyID, contractNumber string) (*domain.Contract, error) {
	contract, err := callStore(ctx, &s.BaseService, "find_contract_by_number", func(ctx context.Context) (*domain.Contract, error) {
		return s.contractRepo.FindContractByNumber(ctx, companyID, contractNumber)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("contract %s: %w", contractNumber, err)
		}
		return nil, err
	}
	return contract, nil
}

func (s *reconciliationService) findPayment(ctx context.Context, companyID, paymentID string) (*domain.Payment, error) {
	payment, err := callStore(ctx, &s.BaseService, "find_payment", func(ctx context.Context) (*domain.Payment, error) {
		return s.paymentRepo.FindPaymentByID(ctx, companyID, paymentID)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("payment %s: %w", paymentID, err)
		}
		return nil, err
	}
	return payment, nil
}

// appendNote adds a line to the payment's notes without touching earlier lines.
func appendNote(existing, note string) string {
	if strings.TrimSpace(existing) == "" {
		return note
	}
	return strings.TrimRight(existing, "\n") + "\n" + note
}
