// Package memory is an in-process implementation of every repository port.
// It backs service tests and the CLI's dry-run mode.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// Operation names accepted by FailOn.
const (
	OpFindAccountsByCodes     = "FindAccountsByCodes"
	OpSaveAccount             = "SaveAccount"
	OpFindEntriesByReference  = "FindEntriesByReference"
	OpNextEntrySequence       = "NextEntrySequence"
	OpInsertEntryHeader       = "InsertEntryHeader"
	OpInsertEntryLines        = "InsertEntryLines"
	OpMarkEntryPosted         = "MarkEntryPosted"
	OpTransitionEntryStatus   = "TransitionEntryStatus"
	OpDeleteEntryLines        = "DeleteEntryLines"
	OpDeleteEntry             = "DeleteEntry"
	OpUpdateContractAmount    = "UpdateContractAmount"
	OpUpdateContractTotals    = "UpdateContractTotals"
	OpFindPaymentByID         = "FindPaymentByID"
	OpUpdatePaymentCorrection = "UpdatePaymentCorrection"
	OpSetOverpaymentGuard     = "SetOverpaymentGuard"
)

type fault struct {
	err       error
	remaining int // negative means forever
	skip      int // calls that pass before the fault starts
	afterCall bool
}

// Store holds all data in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex

	accounts  map[string]map[string]domain.Account // company -> code -> account
	entries   map[string]domain.JournalEntry
	lines     map[string][]domain.JournalEntryLine
	sequences map[string]int64
	contracts map[string]domain.Contract
	payments  map[string]domain.Payment
	cases     map[string]domain.LegalCase

	overpaymentGuard bool
	guardHistory     []bool
	faults           map[string]*fault
	calls            map[string]int
}

// NewStore creates an empty store with the overpayment guard enabled.
func NewStore() *Store {
	return &Store{
		accounts:         make(map[string]map[string]domain.Account),
		entries:          make(map[string]domain.JournalEntry),
		lines:            make(map[string][]domain.JournalEntryLine),
		sequences:        make(map[string]int64),
		contracts:        make(map[string]domain.Contract),
		payments:         make(map[string]domain.Payment),
		cases:            make(map[string]domain.LegalCase),
		overpaymentGuard: true,
		faults:           make(map[string]*fault),
		calls:            make(map[string]int),
	}
}

var (
	_ portsrepo.AccountRepositoryFacade  = (*Store)(nil)
	_ portsrepo.JournalRepositoryFacade  = (*Store)(nil)
	_ portsrepo.ContractRepositoryFacade = (*Store)(nil)
	_ portsrepo.PaymentRepositoryFacade  = (*Store)(nil)
	_ portsrepo.LegalCaseReader          = (*Store)(nil)
	_ portsrepo.MaintenanceController    = (*Store)(nil)
)

// Provider exposes the store through every repository port.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:   s,
		JournalRepo:   s,
		ContractRepo:  s,
		PaymentRepo:   s,
		LegalCaseRepo: s,
		Maintenance:   s,
	}
}

// FailOn makes the next times calls of op return err. times < 0 fails every call.
func (s *Store) FailOn(op string, err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{err: err, remaining: times}
}

// FailOnCall makes only the nth call of op from now on (1-based) return err.
func (s *Store) FailOnCall(op string, err error, nth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{err: err, remaining: 1, skip: nth - 1}
}

// FailAfterCommit makes the next times calls of op apply their write and then return err,
// like a statement that committed before the connection dropped.
func (s *Store) FailAfterCommit(op string, err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{err: err, remaining: times, afterCall: true}
}

// Calls reports how many times op was invoked, failed calls included.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter records the call and returns the injected fault or the context error, if any.
// Callers must hold s.mu.
func (s *Store) enter(ctx context.Context, op string) error {
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.trip(op, false)
}

// leave returns the fault injected to fire after op's write. Callers must hold s.mu.
func (s *Store) leave(op string) error {
	return s.trip(op, true)
}

func (s *Store) trip(op string, afterCall bool) error {
	f, ok := s.faults[op]
	if !ok || f.afterCall != afterCall || f.remaining == 0 {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return f.err
}

// --- seeding ---

// AddAccount stores an account as is.
func (s *Store) AddAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accounts[a.CompanyID] == nil {
		s.accounts[a.CompanyID] = make(map[string]domain.Account)
	}
	s.accounts[a.CompanyID][a.Code] = a
}

// AddContract stores a contract as is.
func (s *Store) AddContract(c domain.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[c.ContractID] = c
}

// AddPayment stores a payment as is.
func (s *Store) AddPayment(p domain.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.PaymentID] = p
}

// AddLegalCase stores a legal case as is.
func (s *Store) AddLegalCase(c domain.LegalCase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.CaseID] = c
}

// SetSequence sets the last entry number handed out for a company.
func (s *Store) SetSequence(companyID string, last int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[companyID] = last
}

// Fixture is the JSON document LoadFixture reads.
type Fixture struct {
	Accounts   []domain.Account   `json:"accounts"`
	Contracts  []domain.Contract  `json:"contracts"`
	Payments   []domain.Payment   `json:"payments"`
	LegalCases []domain.LegalCase `json:"legalCases"`
}

// LoadFixture seeds the store from a JSON fixture.
func (s *Store) LoadFixture(r io.Reader) error {
	var f Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return fmt.Errorf("%w: decoding fixture: %v", apperrors.ErrValidation, err)
	}
	for _, a := range f.Accounts {
		s.AddAccount(a)
	}
	for _, c := range f.Contracts {
		s.AddContract(c)
	}
	for _, p := range f.Payments {
		s.AddPayment(p)
	}
	for _, c := range f.LegalCases {
		s.AddLegalCase(c)
	}
	return nil
}

// --- inspection ---

// Entries returns every entry of a company ordered by entry number.
func (s *Store) Entries(companyID string) []domain.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.JournalEntry{}
	for _, e := range s.entries {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryNumber < out[j].EntryNumber })
	return out
}

// Lines returns the stored lines of an entry.
func (s *Store) Lines(entryID string) []domain.JournalEntryLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.JournalEntryLine(nil), s.lines[entryID]...)
}

// Contract returns a stored contract by ID.
func (s *Store) Contract(contractID string) (domain.Contract, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[contractID]
	return c, ok
}

// Payment returns a stored payment by ID.
func (s *Store) Payment(paymentID string) (domain.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	return p, ok
}

// OverpaymentGuardEnabled reports the current guard state.
func (s *Store) OverpaymentGuardEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overpaymentGuard
}

// GuardHistory lists every state the guard was set to, in order.
func (s *Store) GuardHistory() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.guardHistory...)
}

// --- accounts ---

func (s *Store) FindAccountsByCodes(ctx context.Context, companyID string, codes []string) (map[string]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpFindAccountsByCodes); err != nil {
		return nil, err
	}
	out := make(map[string]domain.Account, len(codes))
	for _, code := range codes {
		if a, ok := s.accounts[companyID][code]; ok && a.IsActive {
			out[code] = a
		}
	}
	return out, nil
}

func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpSaveAccount); err != nil {
		return err
	}
	if _, exists := s.accounts[account.CompanyID][account.Code]; exists {
		return fmt.Errorf("account code %s: %w", account.Code, apperrors.ErrDuplicate)
	}
	if s.accounts[account.CompanyID] == nil {
		s.accounts[account.CompanyID] = make(map[string]domain.Account)
	}
	s.accounts[account.CompanyID][account.Code] = account
	return nil
}

// --- journal ---

func (s *Store) FindEntryByID(ctx context.Context, companyID, entryID string) (*domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := s.entries[entryID]
	if !ok || e.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	return &e, nil
}

func (s *Store) FindEntriesByReference(ctx context.Context, companyID, referenceType, referenceID string) ([]domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpFindEntriesByReference); err != nil {
		return nil, err
	}
	out := []domain.JournalEntry{}
	for _, e := range s.entries {
		if e.CompanyID == companyID && e.ReferenceType == referenceType && e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalEntryLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines := append([]domain.JournalEntryLine(nil), s.lines[entryID]...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })
	return lines, nil
}

func (s *Store) NextEntrySequence(ctx context.Context, companyID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpNextEntrySequence); err != nil {
		return 0, err
	}
	s.sequences[companyID]++
	return s.sequences[companyID], nil
}

// InsertEntryHeader enforces the entry ID and per-company entry number as unique.
// The source reference is only unique among posted entries; see postedConflict.
func (s *Store) InsertEntryHeader(ctx context.Context, entry domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpInsertEntryHeader); err != nil {
		return err
	}
	if _, exists := s.entries[entry.EntryID]; exists {
		return fmt.Errorf("entry %s: %w", entry.EntryID, apperrors.ErrDuplicate)
	}
	for _, e := range s.entries {
		if e.CompanyID == entry.CompanyID && e.EntryNumber == entry.EntryNumber {
			return fmt.Errorf("entry number %s: %w", entry.EntryNumber, apperrors.ErrDuplicate)
		}
	}
	if entry.Status == domain.EntryPosted {
		if err := s.postedConflict(entry); err != nil {
			return err
		}
	}
	s.entries[entry.EntryID] = entry
	return s.leave(OpInsertEntryHeader)
}

// postedConflict mirrors the partial unique index on the source reference of posted entries.
// Callers must hold s.mu.
func (s *Store) postedConflict(entry domain.JournalEntry) error {
	for _, e := range s.entries {
		if e.EntryID == entry.EntryID || e.Status != domain.EntryPosted {
			continue
		}
		if e.CompanyID == entry.CompanyID && e.ReferenceType == entry.ReferenceType && e.ReferenceID == entry.ReferenceID {
			return fmt.Errorf("posted entry for %s %s: %w", entry.ReferenceType, entry.ReferenceID, apperrors.ErrDuplicate)
		}
	}
	return nil
}

func (s *Store) InsertEntryLines(ctx context.Context, lines []domain.JournalEntryLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpInsertEntryLines); err != nil {
		return err
	}
	for _, l := range lines {
		if _, ok := s.entries[l.EntryID]; !ok {
			return fmt.Errorf("line %s references unknown entry %s: %w", l.LineID, l.EntryID, apperrors.ErrNotFound)
		}
	}
	for _, l := range lines {
		s.lines[l.EntryID] = append(s.lines[l.EntryID], l)
	}
	return s.leave(OpInsertEntryLines)
}

func (s *Store) MarkEntryPosted(ctx context.Context, entryID string, postedAt time.Time, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpMarkEntryPosted); err != nil {
		return err
	}
	e, ok := s.entries[entryID]
	if !ok || e.Status != domain.EntryDraft {
		return apperrors.ErrNotFound
	}
	if err := s.postedConflict(e); err != nil {
		return err
	}
	e.Status = domain.EntryPosted
	e.PostedAt = &postedAt
	e.LastUpdatedAt = postedAt
	e.LastUpdatedBy = updatedBy
	s.entries[entryID] = e
	return s.leave(OpMarkEntryPosted)
}

func (s *Store) TransitionEntryStatus(ctx context.Context, entryID string, from, to domain.EntryStatus, updatedAt time.Time, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpTransitionEntryStatus); err != nil {
		return err
	}
	e, ok := s.entries[entryID]
	if !ok || e.Status != from {
		return apperrors.ErrNotFound
	}
	e.Status = to
	if to == domain.EntryPosted {
		if err := s.postedConflict(e); err != nil {
			return err
		}
	}
	e.LastUpdatedAt = updatedAt
	e.LastUpdatedBy = updatedBy
	s.entries[entryID] = e
	return s.leave(OpTransitionEntryStatus)
}

func (s *Store) DeleteEntryLines(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpDeleteEntryLines); err != nil {
		return err
	}
	delete(s.lines, entryID)
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpDeleteEntry); err != nil {
		return err
	}
	if _, ok := s.entries[entryID]; !ok {
		return apperrors.ErrNotFound
	}
	// Lines are owned by the entry, as with ON DELETE CASCADE.
	delete(s.lines, entryID)
	delete(s.entries, entryID)
	return nil
}

// --- contracts ---

func (s *Store) FindContractByNumber(ctx context.Context, companyID, contractNumber string) (*domain.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, c := range s.contracts {
		if c.CompanyID == companyID && c.ContractNumber == contractNumber {
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) FindContractByID(ctx context.Context, companyID, contractID string) (*domain.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := s.contracts[contractID]
	if !ok || c.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListContractsByStatus(ctx context.Context, companyID string, status domain.ContractStatus) ([]domain.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []domain.Contract{}
	for _, c := range s.contracts {
		if c.CompanyID == companyID && c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContractNumber < out[j].ContractNumber })
	return out, nil
}

func (s *Store) UpdateContractAmount(ctx context.Context, contractID string, amount decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpUpdateContractAmount); err != nil {
		return err
	}
	c, ok := s.contracts[contractID]
	if !ok {
		return apperrors.ErrNotFound
	}
	c.ContractAmount = amount
	c.LastUpdatedAt = updatedAt
	c.LastUpdatedBy = updatedBy
	s.contracts[contractID] = c
	return nil
}

func (s *Store) UpdateContractTotals(ctx context.Context, contractID string, totalPaid, balanceDue decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpUpdateContractTotals); err != nil {
		return err
	}
	c, ok := s.contracts[contractID]
	if !ok {
		return apperrors.ErrNotFound
	}
	c.TotalPaid = totalPaid
	c.BalanceDue = balanceDue
	c.LastUpdatedAt = updatedAt
	c.LastUpdatedBy = updatedBy
	s.contracts[contractID] = c
	return nil
}

// --- payments ---

func (s *Store) FindPaymentByID(ctx context.Context, companyID, paymentID string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpFindPaymentByID); err != nil {
		return nil, err
	}
	p, ok := s.payments[paymentID]
	if !ok || p.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListPaymentsByContract(ctx context.Context, contractID string) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.paymentsOf(contractID), nil
}

func (s *Store) ListPaymentsByContracts(ctx context.Context, contractIDs []string) (map[string][]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string][]domain.Payment, len(contractIDs))
	for _, id := range contractIDs {
		if ps := s.paymentsOf(id); len(ps) > 0 {
			out[id] = ps
		}
	}
	return out, nil
}

// paymentsOf returns a contract's payments by date. Callers must hold s.mu.
func (s *Store) paymentsOf(contractID string) []domain.Payment {
	out := []domain.Payment{}
	for _, p := range s.payments {
		if p.ContractID == contractID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentNumber < out[j].PaymentNumber
		}
		return out[i].PaymentDate.Before(out[j].PaymentDate)
	})
	return out
}

// UpdatePaymentCorrection applies the same overpayment rule as the database trigger
// while the guard is enabled.
func (s *Store) UpdatePaymentCorrection(ctx context.Context, payment domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpUpdatePaymentCorrection); err != nil {
		return err
	}
	current, ok := s.payments[payment.PaymentID]
	if !ok {
		return apperrors.ErrNotFound
	}

	if s.overpaymentGuard && payment.CountsTowardTotal() {
		contract, ok := s.contracts[current.ContractID]
		if ok {
			total := payment.Amount
			for _, p := range s.paymentsOf(current.ContractID) {
				if p.PaymentID != payment.PaymentID && p.CountsTowardTotal() {
					total = total.Add(p.Amount)
				}
			}
			if total.GreaterThan(contract.ContractAmount) {
				return fmt.Errorf("%w: payments of contract %s would total %s, above contract amount %s",
					apperrors.ErrConflict, contract.ContractNumber, total, contract.ContractAmount)
			}
		}
	}

	current.Amount = payment.Amount
	current.Status = payment.Status
	current.Notes = payment.Notes
	current.OriginalAmount = payment.OriginalAmount
	current.LastUpdatedAt = payment.LastUpdatedAt
	current.LastUpdatedBy = payment.LastUpdatedBy
	s.payments[payment.PaymentID] = current
	return nil
}

// --- legal cases ---

func (s *Store) FindCasesByContractIDs(ctx context.Context, companyID string, contractIDs []string) (map[string]domain.LegalCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(contractIDs))
	for _, id := range contractIDs {
		wanted[id] = true
	}
	out := make(map[string]domain.LegalCase)
	for _, c := range s.cases {
		if c.CompanyID != companyID || !wanted[c.ContractID] {
			continue
		}
		if prev, ok := out[c.ContractID]; ok && !c.CreatedAt.After(prev.CreatedAt) {
			continue
		}
		out[c.ContractID] = c
	}
	return out, nil
}

// --- maintenance ---

func (s *Store) SetOverpaymentGuard(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpSetOverpaymentGuard); err != nil {
		return err
	}
	s.overpaymentGuard = enabled
	s.guardHistory = append(s.guardHistory, enabled)
	return nil
}
