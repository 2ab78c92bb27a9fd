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
	"github.com/SscSPs/fleet_finance_engine/internal/platform/lock"
	"github.com/SscSPs/fleet_finance_engine/internal/utils/accounting"
	"github.com/google/uuid"
)

// LedgerConfig holds the chart and numbering settings of the ledger poster.
// Zero values fall back to the defaults.
type LedgerConfig struct {
	AccountCodes      domain.AccountCodeMap
	EntryNumberPrefix string
	EntryNumberWidth  int
	CurrencyPrecision *int32
	// Policies overrides or extends the default posting policies.
	Policies map[domain.EventType]PostingPolicy
}

// ledgerPoster turns business events into balanced, posted journal entries.
type ledgerPoster struct {
	BaseService
	accountRepo portsrepo.AccountReader
	journalRepo portsrepo.JournalRepositoryFacade

	codes     domain.AccountCodeMap
	prefix    string
	width     int
	precision int32
	policies  map[domain.EventType]PostingPolicy
}

// NewLedgerPoster creates a new ledger poster.
func NewLedgerPoster(accountRepo portsrepo.AccountReader, journalRepo portsrepo.JournalRepositoryFacade, cfg LedgerConfig, options ...ServiceOption) portssvc.LedgerSvcFacade {
	base := newBaseService(options...)
	svc := &ledgerPoster{
		BaseService: base,
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		codes:       cfg.AccountCodes,
		prefix:      cfg.EntryNumberPrefix,
		width:       cfg.EntryNumberWidth,
		precision:   base.Precision,
		policies:    DefaultPostingPolicies(),
	}
	if svc.codes == nil {
		svc.codes = domain.DefaultAccountCodes()
	}
	if svc.width <= 0 {
		svc.width = 6
	}
	if cfg.CurrencyPrecision != nil {
		svc.precision = *cfg.CurrencyPrecision
	}
	for eventType, policy := range cfg.Policies {
		svc.policies[eventType] = policy
	}
	return svc
}

// Ensure ledgerPoster implements the LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerPoster)(nil)

// PostEvent validates the event, then posts it under the company lock:
// duplicate check, account resolution, balance check, numbering, and a draft-to-posted write.
func (s *ledgerPoster) PostEvent(ctx context.Context, companyID string, event domain.BusinessEvent, opts domain.PostOptions) (*domain.PostResult, error) {
	result, err := s.postEvent(ctx, companyID, event, opts)
	if err != nil {
		eventType := "unknown"
		if event != nil {
			eventType = string(event.EventType())
		}
		s.Metrics.PostingFailed(eventType, failureReason(err))
		return nil, err
	}
	return result, nil
}

func (s *ledgerPoster) postEvent(ctx context.Context, companyID string, event domain.BusinessEvent, opts domain.PostOptions) (*domain.PostResult, error) {
	if err := s.validateEvent(companyID, event); err != nil {
		s.LogDebug(ctx, "Rejected invalid business event", slog.String("company_id", companyID), slog.String("error", err.Error()))
		return nil, err
	}

	eventType := event.EventType()
	policy, ok := s.policies[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported event type %q", apperrors.ErrValidation, eventType)
	}
	planned, err := policy(event)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	onDuplicate := opts.OnDuplicate
	if onDuplicate == "" {
		onDuplicate = domain.DuplicateSkip
	}
	if onDuplicate != domain.DuplicateSkip && onDuplicate != domain.DuplicateSupersede {
		return nil, fmt.Errorf("%w: unknown duplicate policy %q", apperrors.ErrValidation, onDuplicate)
	}

	logger := s.GetLogger(ctx).With(
		slog.String("company_id", companyID),
		slog.String("event_type", string(eventType)),
		slog.String("source_id", event.SourceID()),
	)

	unlock, err := s.Locker.Lock(ctx, lock.CompanyKey(companyID))
	if err != nil {
		return nil, apperrors.NewTransientStoreError("lock company", err)
	}
	defer unlock()

	existing, err := callStore(ctx, &s.BaseService, "find_entries_by_reference", func(ctx context.Context) ([]domain.JournalEntry, error) {
		return s.journalRepo.FindEntriesByReference(ctx, companyID, string(eventType), event.SourceID())
	})
	if err != nil {
		return nil, fmt.Errorf("checking for an existing entry: %w", err)
	}

	// Only posted entries count as duplicates. Anything else under the lock is left over
	// from a post that failed part-way and is removed before going on.
	var posted []domain.JournalEntry
	for _, e := range existing {
		if e.Status == domain.EntryPosted {
			posted = append(posted, e)
			continue
		}
		if err := s.removeLeftover(ctx, e); err != nil {
			return nil, err
		}
	}

	if len(posted) > 0 && onDuplicate == domain.DuplicateSkip {
		lines, err := callStore(ctx, &s.BaseService, "find_lines_by_entry", func(ctx context.Context) ([]domain.JournalEntryLine, error) {
			return s.journalRepo.FindLinesByEntryID(ctx, posted[0].EntryID)
		})
		if err != nil {
			return nil, fmt.Errorf("loading existing entry %s: %w", posted[0].EntryID, err)
		}
		logger.Info("Entry already exists for source, skipping", slog.String("entry_id", posted[0].EntryID))
		s.Metrics.EntrySkipped(string(eventType))
		return &domain.PostResult{Entry: posted[0], Lines: lines, Skipped: true}, nil
	}

	lines, err := s.resolveLines(ctx, companyID, planned)
	if err != nil {
		return nil, err
	}
	if err := accounting.ValidateEntryBalance(lines); err != nil {
		logger.Error("Computed entry does not balance", slog.String("error", err.Error()))
		return nil, err
	}

	seq, err := callStore(ctx, &s.BaseService, "next_entry_sequence", func(ctx context.Context) (int64, error) {
		return s.journalRepo.NextEntrySequence(ctx, companyID)
	})
	if err != nil {
		return nil, fmt.Errorf("allocating entry number: %w", err)
	}
	entryNumber, err := accounting.FormatEntryNumber(s.prefix, seq, s.width)
	if err != nil {
		logger.Error("Entry number overflow", slog.Int64("sequence", seq), slog.Int("width", s.width))
		return nil, err
	}

	actor := opts.Actor
	if actor == "" {
		actor = domain.SystemActor
	}
	now := s.Now()
	debits, credits := accounting.SumLines(lines)
	entry := domain.JournalEntry{
		EntryID:       uuid.NewString(),
		CompanyID:     companyID,
		EntryNumber:   entryNumber,
		EntryDate:     event.EventDate(),
		Description:   event.Memo(),
		ReferenceType: string(eventType),
		ReferenceID:   event.SourceID(),
		Status:        domain.EntryDraft,
		TotalDebit:    debits,
		TotalCredit:   credits,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}
	for i := range lines {
		lines[i].LineID = uuid.NewString()
		lines[i].EntryID = entry.EntryID
		lines[i].LineNumber = i + 1
	}

	if err := execStore(ctx, &s.BaseService, "insert_entry_header", func(ctx context.Context) error {
		return s.journalRepo.InsertEntryHeader(ctx, entry)
	}); err != nil {
		return nil, s.compensateHeader(ctx, entry, err)
	}

	if err := execStore(ctx, &s.BaseService, "insert_entry_lines", func(ctx context.Context) error {
		return s.journalRepo.InsertEntryLines(ctx, lines)
	}); err != nil {
		return nil, s.compensate(ctx, entry, err)
	}

	// The replaced entries stay posted until the new one is complete.
	superseded := make([]domain.JournalEntry, 0, len(posted))
	for _, old := range posted {
		if err := execStore(ctx, &s.BaseService, "supersede_entry", func(ctx context.Context) error {
			return s.journalRepo.TransitionEntryStatus(ctx, old.EntryID, domain.EntryPosted, domain.EntrySuperseded, now, actor)
		}); err != nil {
			s.restorePosted(ctx, superseded, actor)
			return nil, s.compensate(ctx, entry, fmt.Errorf("superseding entry %s: %w", old.EntryID, err))
		}
		superseded = append(superseded, old)
	}

	if err := execStore(ctx, &s.BaseService, "mark_entry_posted", func(ctx context.Context) error {
		return s.journalRepo.MarkEntryPosted(ctx, entry.EntryID, now, actor)
	}); err != nil {
		s.restorePosted(ctx, superseded, actor)
		return nil, s.compensate(ctx, entry, err)
	}

	for _, old := range superseded {
		if err := s.deleteEntry(ctx, old.EntryID); err != nil {
			logger.Warn("Superseded entry left in place, removed on the next post of this source",
				slog.String("entry_id", old.EntryID),
				slog.String("error", err.Error()),
			)
			continue
		}
		logger.Info("Superseded existing entry", slog.String("entry_id", old.EntryID), slog.String("entry_number", old.EntryNumber))
	}

	entry.Status = domain.EntryPosted
	entry.PostedAt = &now

	s.Metrics.EntryPosted(string(eventType))
	logger.Info("Journal entry posted",
		slog.String("entry_id", entry.EntryID),
		slog.String("entry_number", entry.EntryNumber),
		slog.String("total", debits.String()),
		slog.Int("lines", len(lines)),
	)
	return &domain.PostResult{Entry: entry, Lines: lines}, nil
}

// validateEvent checks field tags, then the event's cross-field invariants.
func (s *ledgerPoster) validateEvent(companyID string, event domain.BusinessEvent) error {
	if companyID == "" {
		return fmt.Errorf("%w: company ID is required", apperrors.ErrValidation)
	}
	if event == nil {
		return fmt.Errorf("%w: event is required", apperrors.ErrValidation)
	}
	if err := validateStruct(event); err != nil {
		return fmt.Errorf("invalid %s event: %w", event.EventType(), err)
	}
	if err := event.CheckInvariants(); err != nil {
		return fmt.Errorf("%w: invalid %s event: %v", apperrors.ErrValidation, event.EventType(), err)
	}
	return nil
}

// resolveLines maps planned roles to accounts in a single lookup, rounds amounts to the
// currency precision and drops lines that end up zero.
func (s *ledgerPoster) resolveLines(ctx context.Context, companyID string, planned []PlannedLine) ([]domain.JournalEntryLine, error) {
	type roundedLine struct {
		PlannedLine
		code string
	}
	kept := make([]roundedLine, 0, len(planned))
	codeSet := make(map[string]struct{})
	for _, p := range planned {
		p.Debit = accounting.RoundAmount(p.Debit, s.precision)
		p.Credit = accounting.RoundAmount(p.Credit, s.precision)
		if p.Debit.IsZero() && p.Credit.IsZero() {
			continue
		}
		code := s.codes.Code(p.Role)
		kept = append(kept, roundedLine{PlannedLine: p, code: code})
		codeSet[code] = struct{}{}
	}

	codes := make([]string, 0, len(codeSet))
	for code := range codeSet {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	accounts, err := callStore(ctx, &s.BaseService, "find_accounts_by_codes", func(ctx context.Context) (map[string]domain.Account, error) {
		return s.accountRepo.FindAccountsByCodes(ctx, companyID, codes)
	})
	if err != nil {
		return nil, fmt.Errorf("resolving accounts: %w", err)
	}

	var missing []string
	for _, code := range codes {
		if _, ok := accounts[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		err := &apperrors.ConfigurationError{CompanyID: companyID, MissingCodes: missing}
		s.LogError(ctx, err, "Chart of accounts is missing posting accounts", slog.String("company_id", companyID))
		return nil, err
	}

	lines := make([]domain.JournalEntryLine, 0, len(kept))
	for _, k := range kept {
		lines = append(lines, domain.JournalEntryLine{
			AccountID:       accounts[k.code].AccountID,
			AccountCode:     k.code,
			LineDescription: k.Description,
			DebitAmount:     k.Debit,
			CreditAmount:    k.Credit,
		})
	}
	return lines, nil
}

// compensate removes an entry whose header was written but whose lines or posting failed.
// It runs detached from ctx cancellation so a cancelled request still cleans up.
func (s *ledgerPoster) compensate(ctx context.Context, entry domain.JournalEntry, cause error) error {
	cleanupCtx := context.WithoutCancel(ctx)
	logger := s.GetLogger(ctx).With(slog.String("entry_id", entry.EntryID), slog.String("entry_number", entry.EntryNumber))
	logger.Warn("Posting failed after header insert, compensating", slog.String("error", cause.Error()))

	if err := s.deleteEntry(cleanupCtx, entry.EntryID); err != nil {
		s.Metrics.Compensation(false)
		logger.Error("Compensation failed, orphaned draft entry remains",
			slog.String("company_id", entry.CompanyID),
			slog.String("error", err.Error()),
		)
		return &apperrors.PartialCommitError{EntryID: entry.EntryID, Cause: cause, CompensationErr: err}
	}

	s.Metrics.Compensation(true)
	return &apperrors.PartialCommitError{EntryID: entry.EntryID, Cause: cause}
}

// compensateHeader handles a failed header insert. The write may have committed before the
// error surfaced, so the entry is deleted anyway; ErrNotFound means nothing was written.
func (s *ledgerPoster) compensateHeader(ctx context.Context, entry domain.JournalEntry, cause error) error {
	err := s.deleteEntry(context.WithoutCancel(ctx), entry.EntryID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("inserting entry header: %w", cause)
	case err != nil:
		s.Metrics.Compensation(false)
		s.LogError(ctx, err, "Could not confirm header insert was rolled back",
			slog.String("entry_id", entry.EntryID),
			slog.String("company_id", entry.CompanyID),
		)
		return &apperrors.PartialCommitError{EntryID: entry.EntryID, Cause: cause, CompensationErr: err}
	}
	s.Metrics.Compensation(true)
	s.LogWarn(ctx, "Removed entry header committed before its insert failed", slog.String("entry_id", entry.EntryID))
	return &apperrors.PartialCommitError{EntryID: entry.EntryID, Cause: cause}
}

// restorePosted puts superseded entries back to posted after the replacement failed.
func (s *ledgerPoster) restorePosted(ctx context.Context, entries []domain.JournalEntry, actor string) {
	cleanupCtx := context.WithoutCancel(ctx)
	for _, old := range entries {
		if err := execStore(cleanupCtx, &s.BaseService, "restore_entry", func(ctx context.Context) error {
			return s.journalRepo.TransitionEntryStatus(ctx, old.EntryID, domain.EntrySuperseded, domain.EntryPosted, s.Now(), actor)
		}); err != nil {
			s.LogError(ctx, err, "Failed to restore superseded entry, source has no posted entry",
				slog.String("entry_id", old.EntryID),
				slog.String("company_id", old.CompanyID),
			)
		}
	}
}

// removeLeftover deletes a draft or superseded entry found under the company lock.
// Such an entry never stands for the source, and failing to remove it is a partial commit.
func (s *ledgerPoster) removeLeftover(ctx context.Context, entry domain.JournalEntry) error {
	if err := s.deleteEntry(ctx, entry.EntryID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to remove leftover entry",
			slog.String("entry_id", entry.EntryID),
			slog.String("status", string(entry.Status)),
		)
		return &apperrors.PartialCommitError{
			EntryID:         entry.EntryID,
			Cause:           fmt.Errorf("leftover %s entry from an earlier post", entry.Status),
			CompensationErr: err,
		}
	}
	s.LogInfo(ctx, "Removed leftover entry",
		slog.String("entry_id", entry.EntryID),
		slog.String("status", string(entry.Status)),
	)
	return nil
}

// deleteEntry removes lines first, then the header. Missing lines are not an error.
func (s *ledgerPoster) deleteEntry(ctx context.Context, entryID string) error {
	if err := execStore(ctx, &s.BaseService, "delete_entry_lines", func(ctx context.Context) error {
		return s.journalRepo.DeleteEntryLines(ctx, entryID)
	}); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.LogWarn(ctx, "Failed to delete entry lines", slog.String("entry_id", entryID), slog.String("error", err.Error()))
	}
	return execStore(ctx, &s.BaseService, "delete_entry", func(ctx context.Context) error {
		return s.journalRepo.DeleteEntry(ctx, entryID)
	})
}

// DeleteSourceEntries removes every entry posted for referenceID under the given reference
// types, e.g. both the payroll accrual and the payroll payment of one payroll run.
func (s *ledgerPoster) DeleteSourceEntries(ctx context.Context, companyID, referenceID string, referenceTypes ...domain.EventType) (int, error) {
	if companyID == "" || referenceID == "" {
		return 0, fmt.Errorf("%w: company ID and reference ID are required", apperrors.ErrValidation)
	}
	if len(referenceTypes) == 0 {
		for eventType := range s.policies {
			referenceTypes = append(referenceTypes, eventType)
		}
		sort.Slice(referenceTypes, func(i, j int) bool { return referenceTypes[i] < referenceTypes[j] })
	}

	unlock, err := s.Locker.Lock(ctx, lock.CompanyKey(companyID))
	if err != nil {
		return 0, apperrors.NewTransientStoreError("lock company", err)
	}
	defer unlock()

	deleted := 0
	for _, refType := range referenceTypes {
		entries, err := callStore(ctx, &s.BaseService, "find_entries_by_reference", func(ctx context.Context) ([]domain.JournalEntry, error) {
			return s.journalRepo.FindEntriesByReference(ctx, companyID, string(refType), referenceID)
		})
		if err != nil {
			return deleted, fmt.Errorf("finding %s entries for %s: %w", refType, referenceID, err)
		}
		for _, entry := range entries {
			if err := s.deleteEntry(ctx, entry.EntryID); err != nil {
				s.LogError(ctx, err, "Failed to delete source entry", slog.String("entry_id", entry.EntryID))
				return deleted, fmt.Errorf("deleting entry %s: %w", entry.EntryID, err)
			}
			deleted++
		}
	}

	s.LogInfo(ctx, "Deleted source entries",
		slog.String("company_id", companyID),
		slog.String("reference_id", referenceID),
		slog.Int("deleted", deleted),
	)
	return deleted, nil
}

// GetEntry retrieves an entry with its lines.
func (s *ledgerPoster) GetEntry(ctx context.Context, companyID, entryID string) (*domain.PostResult, error) {
	entry, err := callStore(ctx, &s.BaseService, "find_entry", func(ctx context.Context) (*domain.JournalEntry, error) {
		return s.journalRepo.FindEntryByID(ctx, companyID, entryID)
	})
	if err != nil {
		return nil, err
	}
	lines, err := callStore(ctx, &s.BaseService, "find_lines_by_entry", func(ctx context.Context) ([]domain.JournalEntryLine, error) {
		return s.journalRepo.FindLinesByEntryID(ctx, entryID)
	})
	if err != nil {
		return nil, err
	}
	return &domain.PostResult{Entry: *entry, Lines: lines}, nil
}

// PostBatch posts events one at a time. A failing (or panicking) event is recorded and the
// batch moves on; only a cancelled context stops it early.
func (s *ledgerPoster) PostBatch(ctx context.Context, companyID string, events []domain.BusinessEvent, opts domain.PostOptions) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		Results:  make([]domain.PostResult, 0, len(events)),
		Failures: []domain.BatchFailure{},
	}

	for i, event := range events {
		if ctx.Err() != nil {
			result.Failed += len(events) - i
			for j := i; j < len(events); j++ {
				result.Failures = append(result.Failures, batchFailure(j, events[j], ctx.Err()))
			}
			break
		}

		var res *domain.PostResult
		err := runIsolated(func() error {
			var postErr error
			res, postErr = s.PostEvent(ctx, companyID, event, opts)
			return postErr
		})
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, batchFailure(i, event, err))
			continue
		}
		if res.Skipped {
			result.Skipped++
		} else {
			result.Succeeded++
		}
		result.Results = append(result.Results, *res)
	}

	s.LogInfo(ctx, "Posting batch finished",
		slog.String("company_id", companyID),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

func batchFailure(index int, event domain.BusinessEvent, err error) domain.BatchFailure {
	f := domain.BatchFailure{Index: index, Error: err.Error(), Err: err}
	if event != nil {
		f.EventType = event.EventType()
		f.SourceID = event.SourceID()
	}
	return f
}

// runIsolated converts a panic in fn into an error.
func runIsolated(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: recovered from panic: %v", apperrors.ErrInternal, r)
		}
	}()
	return fn()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrConfiguration):
		return "configuration"
	case errors.Is(err, apperrors.ErrUnbalancedEntry):
		return "unbalanced"
	case errors.Is(err, apperrors.ErrEntryNumberOverflow):
		return "overflow"
	case errors.Is(err, apperrors.ErrPartialCommit):
		return "partial_commit"
	case errors.Is(err, apperrors.ErrTransientStore):
		return "transient"
	default:
		return "other"
	}
}
