package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	portssvc "github.com/SscSPs/fleet_finance_engine/internal/core/ports/services"
	"github.com/SscSPs/fleet_finance_engine/internal/core/services"
	"github.com/SscSPs/fleet_finance_engine/internal/repositories/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testCompany = "company-1"

var fixedNow = time.Date(2025, 3, 31, 9, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedChart creates an active account for every default code except the skipped ones.
func seedChart(store *memory.Store, companyID string, skip ...string) {
	skipped := make(map[string]bool, len(skip))
	for _, code := range skip {
		skipped[code] = true
	}
	for _, code := range domain.DefaultAccountCodes() {
		if skipped[code] {
			continue
		}
		store.AddAccount(domain.Account{
			AccountID: uuid.NewString(),
			CompanyID: companyID,
			Code:      code,
			Name:      "Account " + code,
			IsActive:  true,
		})
	}
}

// amountsByCode folds entry lines into code -> (debit, credit) for order independent checks.
func amountsByCode(lines []domain.JournalEntryLine) map[string][2]string {
	out := make(map[string][2]string, len(lines))
	for _, l := range lines {
		out[l.AccountCode] = [2]string{l.DebitAmount.String(), l.CreditAmount.String()}
	}
	return out
}

func assertBalanced(t *testing.T, lines []domain.JournalEntryLine) {
	t.Helper()
	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		assert.True(t, l.DebitAmount.IsZero() != l.CreditAmount.IsZero(), "line %d must have exactly one side", l.LineNumber)
		debits = debits.Add(l.DebitAmount)
		credits = credits.Add(l.CreditAmount)
	}
	assert.True(t, debits.Equal(credits), "debits %s != credits %s", debits, credits)
}

func paidPayroll(id string) domain.PayrollEvent {
	return domain.PayrollEvent{
		PayrollID:    id,
		EmployeeName: "Ahmed",
		Period:       "2025-03",
		Date:         fixedNow,
		BasicSalary:  d("3000"),
		Allowances:   d("500"),
		Deductions:   d("200"),
		Status:       domain.PayrollPaid,
	}
}

type LedgerPosterTestSuite struct {
	suite.Suite
	store  *memory.Store
	poster portssvc.LedgerSvcFacade
	ctx    context.Context
}

func (suite *LedgerPosterTestSuite) SetupTest() {
	suite.store = memory.NewStore()
	seedChart(suite.store, testCompany)
	suite.poster = suite.newPoster(services.LedgerConfig{EntryNumberPrefix: "JE-", EntryNumberWidth: 6})
	suite.ctx = context.Background()
}

func (suite *LedgerPosterTestSuite) newPoster(cfg services.LedgerConfig) portssvc.LedgerSvcFacade {
	return services.NewLedgerPoster(suite.store, suite.store, cfg,
		services.WithClock(func() time.Time { return fixedNow }),
		services.WithStoreRetry(3, time.Millisecond),
	)
}

func TestLedgerPosterTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerPosterTestSuite))
}

// --- single postings ---

func (suite *LedgerPosterTestSuite) TestPostEvent_PaidPayroll() {
	res, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{Actor: "ops"})
	suite.Require().NoError(err)

	suite.False(res.Skipped)
	suite.Equal("JE-000001", res.Entry.EntryNumber)
	suite.Equal(domain.EntryPosted, res.Entry.Status)
	suite.Require().NotNil(res.Entry.PostedAt)
	suite.Equal(string(domain.EventPayroll), res.Entry.ReferenceType)
	suite.Equal("PR-1", res.Entry.ReferenceID)
	suite.Equal("ops", res.Entry.CreatedBy)
	suite.True(res.Entry.TotalDebit.Equal(d("3500")))
	suite.True(res.Entry.TotalCredit.Equal(d("3500")))

	suite.Equal(map[string][2]string{
		"5110": {"3000", "0"},
		"5120": {"500", "0"},
		"1010": {"0", "3300"},
		"2210": {"0", "200"},
	}, amountsByCode(res.Lines))
	assertBalanced(suite.T(), res.Lines)

	stored := suite.store.Entries(testCompany)
	suite.Require().Len(stored, 1)
	suite.Equal(domain.EntryPosted, stored[0].Status)
	suite.Len(suite.store.Lines(res.Entry.EntryID), 4)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_AccruedPayrollWithoutDeductions() {
	ev := paidPayroll("PR-2")
	ev.Status = domain.PayrollAccrued
	ev.Deductions = decimal.Zero

	res, err := suite.poster.PostEvent(suite.ctx, testCompany, ev, domain.PostOptions{})
	suite.Require().NoError(err)

	suite.Equal(map[string][2]string{
		"5110": {"3000", "0"},
		"5120": {"500", "0"},
		"2200": {"0", "3500"},
	}, amountsByCode(res.Lines), "zero deduction line is dropped")
	suite.Equal(domain.SystemActor, res.Entry.CreatedBy)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_PayrollAccrualThenPayment() {
	accrual := domain.PayrollEvent{
		PayrollID:   "PR-7",
		Period:      "2025-03",
		Date:        fixedNow,
		BasicSalary: d("2000"),
		Allowances:  d("300"),
		Deductions:  d("100"),
		Status:      domain.PayrollAccrued,
	}
	accrued, err := suite.poster.PostEvent(suite.ctx, testCompany, accrual, domain.PostOptions{})
	suite.Require().NoError(err)
	suite.Equal(map[string][2]string{
		"5110": {"2000", "0"},
		"5120": {"300", "0"},
		"2200": {"0", "2200"},
		"2210": {"0", "100"},
	}, amountsByCode(accrued.Lines))

	paid, err := suite.poster.PostEvent(suite.ctx, testCompany, domain.PayrollPaymentEvent{PayrollID: "PR-7", Date: fixedNow, NetAmount: d("2200")}, domain.PostOptions{})
	suite.Require().NoError(err)

	suite.False(paid.Skipped, "accrual and payment are different sources")
	suite.Equal("JE-000002", paid.Entry.EntryNumber)
	suite.Equal(map[string][2]string{
		"2200": {"2200", "0"},
		"1010": {"0", "2200"},
	}, amountsByCode(paid.Lines))
	suite.Equal("2200", paid.Entry.TotalDebit.String())
	suite.Equal("2200", paid.Entry.TotalCredit.String())
	suite.Len(suite.store.Entries(testCompany), 2)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_InstallmentPayment() {
	ev := domain.InstallmentPaymentEvent{
		InstallmentID:   "INST-7",
		AgreementNumber: "AGR-1",
		Date:            fixedNow,
		TotalAmount:     d("1000"),
		InterestAmount:  d("150"),
	}
	res, err := suite.poster.PostEvent(suite.ctx, testCompany, ev, domain.PostOptions{})
	suite.Require().NoError(err)

	suite.Equal(map[string][2]string{
		"2300": {"850", "0"},
		"5300": {"150", "0"},
		"1010": {"0", "1000"},
	}, amountsByCode(res.Lines))
	for i, l := range res.Lines {
		suite.Equal(i+1, l.LineNumber)
	}
}

func (suite *LedgerPosterTestSuite) TestPostEvent_VehiclePurchaseOnCredit() {
	ev := domain.VehiclePurchaseEvent{
		VehicleID:     "VEH-1",
		PlateNumber:   "12345",
		Date:          fixedNow,
		PurchasePrice: d("50000"),
		DownPayment:   d("10000"),
		LoanAmount:    d("40000"),
	}
	res, err := suite.poster.PostEvent(suite.ctx, testCompany, ev, domain.PostOptions{})
	suite.Require().NoError(err)

	suite.Equal(map[string][2]string{
		"1510": {"50000", "0"},
		"1010": {"0", "10000"},
		"2300": {"0", "40000"},
	}, amountsByCode(res.Lines))
}

func (suite *LedgerPosterTestSuite) TestPostEvent_PurchaseOrderAndVendorPayment() {
	po := domain.PurchaseOrderEvent{PurchaseOrderID: "PO-1", OrderNumber: "PO-2025-1", VendorName: "Parts Co", Date: fixedNow, TotalAmount: d("740.250")}
	vp := domain.VendorPaymentEvent{VendorPaymentID: "VP-1", VendorName: "Parts Co", Date: fixedNow, Amount: d("740.250")}

	res, err := suite.poster.PostEvent(suite.ctx, testCompany, po, domain.PostOptions{})
	suite.Require().NoError(err)
	suite.Equal(map[string][2]string{"5100": {"740.25", "0"}, "2100": {"0", "740.25"}}, amountsByCode(res.Lines))

	res, err = suite.poster.PostEvent(suite.ctx, testCompany, vp, domain.PostOptions{})
	suite.Require().NoError(err)
	suite.Equal(map[string][2]string{"2100": {"740.25", "0"}, "1010": {"0", "740.25"}}, amountsByCode(res.Lines))
	suite.Equal("JE-000002", res.Entry.EntryNumber)
}

// --- validation and configuration ---

func (suite *LedgerPosterTestSuite) TestPostEvent_InvalidEventRejectedBeforeLookup() {
	cases := []domain.BusinessEvent{
		domain.VehiclePurchaseEvent{VehicleID: "V", Date: fixedNow, PurchasePrice: d("100"), DownPayment: d("10"), LoanAmount: d("80")},
		domain.InstallmentPaymentEvent{InstallmentID: "I", Date: fixedNow, TotalAmount: d("100"), InterestAmount: d("101")},
		domain.PayrollEvent{Date: fixedNow, BasicSalary: d("1"), Status: domain.PayrollPaid},
		domain.PayrollEvent{PayrollID: "P", Date: fixedNow, BasicSalary: d("100"), Deductions: d("150"), Status: domain.PayrollPaid},
		domain.VendorPaymentEvent{VendorPaymentID: "VP", Date: fixedNow, Amount: d("-5")},
		nil,
	}
	for i, ev := range cases {
		_, err := suite.poster.PostEvent(suite.ctx, testCompany, ev, domain.PostOptions{})
		suite.ErrorIs(err, apperrors.ErrValidation, "case %d", i)
	}
	suite.Equal(0, suite.store.Calls(memory.OpFindAccountsByCodes))
	suite.Empty(suite.store.Entries(testCompany))
}

func (suite *LedgerPosterTestSuite) TestPostEvent_MissingAccounts() {
	store := memory.NewStore()
	seedChart(store, testCompany, "5120", "2210")
	poster := services.NewLedgerPoster(store, store, services.LedgerConfig{})

	_, err := poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	var cfgErr *apperrors.ConfigurationError
	suite.Require().ErrorAs(err, &cfgErr)
	suite.ErrorIs(err, apperrors.ErrConfiguration)
	suite.Equal([]string{"2210", "5120"}, cfgErr.MissingCodes)
	suite.Empty(store.Entries(testCompany))
	suite.Equal(0, store.Calls(memory.OpNextEntrySequence), "no number is consumed")
}

func (suite *LedgerPosterTestSuite) TestPostEvent_ConfiguredAccountCodes() {
	store := memory.NewStore()
	seedChart(store, testCompany)
	store.AddAccount(domain.Account{AccountID: "alt-cash", CompanyID: testCompany, Code: "1020", IsActive: true})
	poster := services.NewLedgerPoster(store, store, services.LedgerConfig{
		AccountCodes: domain.AccountCodeMap{domain.RoleCash: "1020"},
	})

	res, err := poster.PostEvent(suite.ctx, testCompany, domain.VendorPaymentEvent{VendorPaymentID: "VP-9", Date: fixedNow, Amount: d("10")}, domain.PostOptions{})
	suite.Require().NoError(err)
	suite.Contains(amountsByCode(res.Lines), "1020")
	suite.NotContains(amountsByCode(res.Lines), "1010")
}

func (suite *LedgerPosterTestSuite) TestPostEvent_InactiveAccountCountsAsMissing() {
	store := memory.NewStore()
	seedChart(store, testCompany, "1010")
	store.AddAccount(domain.Account{AccountID: "old-cash", CompanyID: testCompany, Code: "1010", IsActive: false})
	poster := services.NewLedgerPoster(store, store, services.LedgerConfig{})

	_, err := poster.PostEvent(suite.ctx, testCompany, domain.VendorPaymentEvent{VendorPaymentID: "VP-1", Date: fixedNow, Amount: d("10")}, domain.PostOptions{})
	suite.ErrorIs(err, apperrors.ErrConfiguration)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_SubPrecisionAmountsAreNotCoerced() {
	ev := domain.PayrollEvent{
		PayrollID:   "PR-ROUND",
		Date:        fixedNow,
		BasicSalary: d("1.0004"),
		Allowances:  d("1.0004"),
		Status:      domain.PayrollPaid,
	}
	_, err := suite.poster.PostEvent(suite.ctx, testCompany, ev, domain.PostOptions{})

	var unbalanced *apperrors.UnbalancedEntryError
	suite.Require().ErrorAs(err, &unbalanced)
	suite.True(unbalanced.Debits.Equal(d("2")))
	suite.True(unbalanced.Credits.Equal(d("2.001")))
	suite.Empty(suite.store.Entries(testCompany))
}

// --- duplicates ---

func (suite *LedgerPosterTestSuite) TestPostEvent_DuplicateSkippedByDefault() {
	first, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)

	second, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)

	suite.True(second.Skipped)
	suite.Equal(first.Entry.EntryID, second.Entry.EntryID)
	suite.Len(second.Lines, 4)
	suite.Len(suite.store.Entries(testCompany), 1)
	suite.Equal(1, suite.store.Calls(memory.OpNextEntrySequence))
}

func (suite *LedgerPosterTestSuite) TestPostEvent_DuplicateSuperseded() {
	first, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)

	revised := paidPayroll("PR-1")
	revised.BasicSalary = d("3200")
	second, err := suite.poster.PostEvent(suite.ctx, testCompany, revised, domain.PostOptions{OnDuplicate: domain.DuplicateSupersede})
	suite.Require().NoError(err)

	suite.False(second.Skipped)
	suite.NotEqual(first.Entry.EntryID, second.Entry.EntryID)
	suite.Equal("JE-000002", second.Entry.EntryNumber)

	stored := suite.store.Entries(testCompany)
	suite.Require().Len(stored, 1)
	suite.Equal(second.Entry.EntryID, stored[0].EntryID)
	suite.Empty(suite.store.Lines(first.Entry.EntryID))
	suite.True(stored[0].TotalDebit.Equal(d("3700")))
}

func (suite *LedgerPosterTestSuite) TestPostEvent_SupersedeKeepsOldEntryWhenNewOneIsInvalid() {
	_, err := suite.poster.PostEvent(suite.ctx, testCompany, domain.VendorPaymentEvent{VendorPaymentID: "VP-1", Date: fixedNow, Amount: d("10")}, domain.PostOptions{})
	suite.Require().NoError(err)

	poster := services.NewLedgerPoster(suite.store, suite.store, services.LedgerConfig{
		AccountCodes: domain.AccountCodeMap{domain.RoleCash: "9999"},
	})
	_, err = poster.PostEvent(suite.ctx, testCompany, domain.VendorPaymentEvent{VendorPaymentID: "VP-1", Date: fixedNow, Amount: d("12")}, domain.PostOptions{OnDuplicate: domain.DuplicateSupersede})

	suite.ErrorIs(err, apperrors.ErrConfiguration)
	suite.Len(suite.store.Entries(testCompany), 1)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_UnknownDuplicatePolicy() {
	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{OnDuplicate: "merge"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- numbering ---

func (suite *LedgerPosterTestSuite) TestPostEvent_EntryNumberOverflow() {
	suite.store.SetSequence(testCompany, 999999)

	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	suite.ErrorIs(err, apperrors.ErrEntryNumberOverflow)
	suite.Empty(suite.store.Entries(testCompany))
}

func (suite *LedgerPosterTestSuite) TestPostEvent_LastNumberThatFits() {
	suite.store.SetSequence(testCompany, 999998)

	res, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	suite.Require().NoError(err)
	suite.Equal("JE-999999", res.Entry.EntryNumber)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_ConcurrentPostingsGetDistinctNumbers() {
	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll(fmt.Sprintf("PR-%d", i)), domain.PostOptions{})
			if assert.NoError(suite.T(), err) {
				numbers <- res.Entry.EntryNumber
			}
		}(i)
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		suite.False(seen[num], "entry number %s handed out twice", num)
		seen[num] = true
	}
	suite.Len(seen, n)
	suite.True(seen["JE-000001"])
	suite.True(seen[fmt.Sprintf("JE-%06d", n)])
}

// --- compensation ---

func (suite *LedgerPosterTestSuite) TestPostEvent_LineInsertFailureIsCompensated() {
	suite.store.FailOn(memory.OpInsertEntryLines, errors.New("disk full"), 1)

	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	var partial *apperrors.PartialCommitError
	suite.Require().ErrorAs(err, &partial)
	suite.ErrorIs(err, apperrors.ErrPartialCommit)
	suite.True(partial.Compensated())
	suite.Empty(suite.store.Entries(testCompany), "header removed")

	// A retry posts normally once the store recovers.
	res, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)
	suite.False(res.Skipped)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_MarkPostedFailureIsCompensated() {
	suite.store.FailOn(memory.OpMarkEntryPosted, errors.New("constraint violated"), 1)

	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	var partial *apperrors.PartialCommitError
	suite.Require().ErrorAs(err, &partial)
	suite.True(partial.Compensated())
	suite.Empty(suite.store.Entries(testCompany))
	suite.Empty(suite.store.Lines(partial.EntryID))
}

func (suite *LedgerPosterTestSuite) TestPostEvent_FailedCompensationLeavesOrphanDraft() {
	suite.store.FailOn(memory.OpInsertEntryLines, errors.New("disk full"), 1)
	suite.store.FailOn(memory.OpDeleteEntry, errors.New("connection lost"), -1)

	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	var partial *apperrors.PartialCommitError
	suite.Require().ErrorAs(err, &partial)
	suite.False(partial.Compensated())
	suite.Require().Error(partial.CompensationErr)

	stored := suite.store.Entries(testCompany)
	suite.Require().Len(stored, 1)
	suite.Equal(partial.EntryID, stored[0].EntryID)
	suite.Equal(domain.EntryDraft, stored[0].Status)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_RepostReplacesOrphanDraft() {
	suite.store.FailOn(memory.OpInsertEntryLines, errors.New("disk full"), 1)
	suite.store.FailOn(memory.OpDeleteEntry, errors.New("connection lost"), 1)
	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	var partial *apperrors.PartialCommitError
	suite.Require().ErrorAs(err, &partial)
	suite.Require().False(partial.Compensated())

	res, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	suite.Require().NoError(err)
	suite.False(res.Skipped, "a draft never counts as the posted entry for its source")
	suite.NotEqual(partial.EntryID, res.Entry.EntryID)
	suite.Len(res.Lines, 4)
	stored := suite.store.Entries(testCompany)
	suite.Require().Len(stored, 1)
	suite.Equal(res.Entry.EntryID, stored[0].EntryID)
	suite.Equal(domain.EntryPosted, stored[0].Status)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_UnremovableOrphanDraftFailsRepost() {
	suite.store.FailOn(memory.OpInsertEntryLines, errors.New("disk full"), 1)
	suite.store.FailOn(memory.OpDeleteEntry, errors.New("connection lost"), -1)
	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	var orphan *apperrors.PartialCommitError
	suite.Require().ErrorAs(err, &orphan)

	res, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	suite.Nil(res)
	suite.ErrorIs(err, apperrors.ErrPartialCommit)
	var partial *apperrors.PartialCommitError
	suite.Require().ErrorAs(err, &partial)
	suite.Equal(orphan.EntryID, partial.EntryID)
	suite.Equal(1, suite.store.Calls(memory.OpNextEntrySequence))
	stored := suite.store.Entries(testCompany)
	suite.Require().Len(stored, 1)
	suite.Equal(domain.EntryDraft, stored[0].Status)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_HeaderCommittedBeforeErrorIsRemoved() {
	suite.store.FailAfterCommit(memory.OpInsertEntryHeader, apperrors.NewTransientStoreError("insert_entry_header", errors.New("connection reset")), 1)

	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	var partial *apperrors.PartialCommitError
	suite.Require().ErrorAs(err, &partial)
	suite.True(partial.Compensated())
	suite.Empty(suite.store.Entries(testCompany))

	res, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)
	suite.False(res.Skipped)
	suite.Len(res.Lines, 4)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_HeaderInsertFailureWithNothingWritten() {
	suite.store.FailOn(memory.OpInsertEntryHeader, errors.New("permission denied"), 1)

	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	suite.Require().Error(err)
	suite.NotErrorIs(err, apperrors.ErrPartialCommit)
	suite.Empty(suite.store.Entries(testCompany))
}

// --- superseding under failure ---

func (suite *LedgerPosterTestSuite) revisedPayroll() domain.PayrollEvent {
	revised := paidPayroll("PR-1")
	revised.BasicSalary = d("3200")
	return revised
}

// assertOnlyEntry checks that entryID is the single entry stored and is posted with its lines.
func (suite *LedgerPosterTestSuite) assertOnlyEntry(entryID string) {
	stored := suite.store.Entries(testCompany)
	suite.Require().Len(stored, 1)
	suite.Equal(entryID, stored[0].EntryID)
	suite.Equal(domain.EntryPosted, stored[0].Status)
	suite.Len(suite.store.Lines(entryID), 4)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_SupersedeLineFailureKeepsOldEntry() {
	first, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)
	suite.store.FailOn(memory.OpInsertEntryLines, errors.New("disk full"), 1)

	_, err = suite.poster.PostEvent(suite.ctx, testCompany, suite.revisedPayroll(), domain.PostOptions{OnDuplicate: domain.DuplicateSupersede})

	suite.ErrorIs(err, apperrors.ErrPartialCommit)
	suite.assertOnlyEntry(first.Entry.EntryID)
	suite.Zero(suite.store.Calls(memory.OpTransitionEntryStatus))
}

func (suite *LedgerPosterTestSuite) TestPostEvent_SupersedeStatusFailureKeepsOldEntry() {
	first, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)
	suite.store.FailOn(memory.OpTransitionEntryStatus, errors.New("lock timeout"), 1)

	_, err = suite.poster.PostEvent(suite.ctx, testCompany, suite.revisedPayroll(), domain.PostOptions{OnDuplicate: domain.DuplicateSupersede})

	var partial *apperrors.PartialCommitError
	suite.Require().ErrorAs(err, &partial)
	suite.True(partial.Compensated())
	suite.assertOnlyEntry(first.Entry.EntryID)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_SupersedeMarkPostedFailureRestoresOldEntry() {
	first, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)
	suite.store.FailOn(memory.OpMarkEntryPosted, errors.New("constraint violated"), 1)

	_, err = suite.poster.PostEvent(suite.ctx, testCompany, suite.revisedPayroll(), domain.PostOptions{OnDuplicate: domain.DuplicateSupersede})

	var partial *apperrors.PartialCommitError
	suite.Require().ErrorAs(err, &partial)
	suite.True(partial.Compensated())
	suite.assertOnlyEntry(first.Entry.EntryID)
	suite.True(suite.store.Entries(testCompany)[0].TotalDebit.Equal(d("3500")))
	suite.Equal(2, suite.store.Calls(memory.OpTransitionEntryStatus), "superseded then restored")

	// The source can still be skipped against the restored entry.
	again, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)
	suite.True(again.Skipped)
	suite.Equal(first.Entry.EntryID, again.Entry.EntryID)
}

func (suite *LedgerPosterTestSuite) TestPostEvent_SupersededLeftoverRemovedOnNextPost() {
	first, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)
	suite.store.FailOn(memory.OpDeleteEntry, errors.New("connection lost"), 1)

	second, err := suite.poster.PostEvent(suite.ctx, testCompany, suite.revisedPayroll(), domain.PostOptions{OnDuplicate: domain.DuplicateSupersede})
	suite.Require().NoError(err)

	stored := suite.store.Entries(testCompany)
	suite.Require().Len(stored, 2)
	suite.Equal(first.Entry.EntryID, stored[0].EntryID)
	suite.Equal(domain.EntrySuperseded, stored[0].Status)
	suite.Equal(domain.EntryPosted, stored[1].Status)

	again, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)
	suite.True(again.Skipped)
	suite.Equal(second.Entry.EntryID, again.Entry.EntryID)
	suite.assertOnlyEntry(second.Entry.EntryID)
}

// --- transient failures ---

func (suite *LedgerPosterTestSuite) TestPostEvent_RetriesTransientStoreErrors() {
	suite.store.FailOn(memory.OpNextEntrySequence, apperrors.NewTransientStoreError("next_entry_sequence", errors.New("connection reset")), 2)

	res, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	suite.Require().NoError(err)
	suite.Equal("JE-000001", res.Entry.EntryNumber)
	suite.Equal(3, suite.store.Calls(memory.OpNextEntrySequence))
}

func (suite *LedgerPosterTestSuite) TestPostEvent_GivesUpAfterRetryBudget() {
	suite.store.FailOn(memory.OpFindEntriesByReference, apperrors.NewTransientStoreError("find", errors.New("timeout")), -1)

	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	suite.ErrorIs(err, apperrors.ErrTransientStore)
	suite.Equal(3, suite.store.Calls(memory.OpFindEntriesByReference))
}

func (suite *LedgerPosterTestSuite) TestPostEvent_PermanentErrorsAreNotRetried() {
	suite.store.FailOn(memory.OpFindEntriesByReference, errors.New("syntax error"), -1)

	_, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})

	suite.Error(err)
	suite.Equal(1, suite.store.Calls(memory.OpFindEntriesByReference))
}

// --- batches ---

func (suite *LedgerPosterTestSuite) TestPostBatch_ContinuesPastFailures() {
	exploding := domain.EventType("exploding")
	poster := suite.newPoster(services.LedgerConfig{
		Policies: map[domain.EventType]services.PostingPolicy{
			exploding: func(domain.BusinessEvent) ([]services.PlannedLine, error) { panic("boom") },
		},
	})

	events := []domain.BusinessEvent{
		paidPayroll("PR-1"),
		domain.VehiclePurchaseEvent{VehicleID: "V", Date: fixedNow, PurchasePrice: d("100"), DownPayment: d("10"), LoanAmount: d("10")},
		domain.VendorPaymentEvent{VendorPaymentID: "VP-1", Date: fixedNow, Amount: d("25")},
		explodingEvent{eventType: exploding},
		paidPayroll("PR-1"),
	}

	res, err := poster.PostBatch(suite.ctx, testCompany, events, domain.PostOptions{})
	suite.Require().NoError(err)

	suite.Equal(2, res.Succeeded)
	suite.Equal(1, res.Skipped)
	suite.Equal(2, res.Failed)
	suite.Len(res.Results, 3)
	suite.Require().Len(res.Failures, 2)
	suite.Equal(1, res.Failures[0].Index)
	suite.ErrorIs(res.Failures[0].Err, apperrors.ErrValidation)
	suite.Equal(3, res.Failures[1].Index)
	suite.ErrorIs(res.Failures[1].Err, apperrors.ErrInternal)
	suite.Len(suite.store.Entries(testCompany), 2)
}

func (suite *LedgerPosterTestSuite) TestPostBatch_CancelledContextFailsRemainingEvents() {
	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()

	res, err := suite.poster.PostBatch(ctx, testCompany, []domain.BusinessEvent{paidPayroll("PR-1"), paidPayroll("PR-2")}, domain.PostOptions{})
	suite.Require().NoError(err)

	suite.Equal(2, res.Failed)
	suite.Equal(0, res.Succeeded)
	for _, f := range res.Failures {
		suite.ErrorIs(f.Err, context.Canceled)
	}
	suite.Empty(suite.store.Entries(testCompany))
}

// --- reads and deletes ---

func (suite *LedgerPosterTestSuite) TestDeleteSourceEntries_RemovesAccrualAndPayment() {
	accrual := paidPayroll("PR-9")
	accrual.Status = domain.PayrollAccrued
	_, err := suite.poster.PostEvent(suite.ctx, testCompany, accrual, domain.PostOptions{})
	suite.Require().NoError(err)
	_, err = suite.poster.PostEvent(suite.ctx, testCompany, domain.PayrollPaymentEvent{PayrollID: "PR-9", Date: fixedNow, NetAmount: d("3300")}, domain.PostOptions{})
	suite.Require().NoError(err)
	_, err = suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-10"), domain.PostOptions{})
	suite.Require().NoError(err)

	deleted, err := suite.poster.DeleteSourceEntries(suite.ctx, testCompany, "PR-9", domain.EventPayroll, domain.EventPayrollPayment)
	suite.Require().NoError(err)
	suite.Equal(2, deleted)

	stored := suite.store.Entries(testCompany)
	suite.Require().Len(stored, 1)
	suite.Equal("PR-10", stored[0].ReferenceID)
}

func (suite *LedgerPosterTestSuite) TestDeleteSourceEntries_AllTypesByDefault() {
	_, err := suite.poster.PostEvent(suite.ctx, testCompany, domain.VendorPaymentEvent{VendorPaymentID: "SRC-1", Date: fixedNow, Amount: d("5")}, domain.PostOptions{})
	suite.Require().NoError(err)

	deleted, err := suite.poster.DeleteSourceEntries(suite.ctx, testCompany, "SRC-1")
	suite.Require().NoError(err)
	suite.Equal(1, deleted)

	deleted, err = suite.poster.DeleteSourceEntries(suite.ctx, testCompany, "SRC-1")
	suite.Require().NoError(err)
	suite.Equal(0, deleted)
}

func (suite *LedgerPosterTestSuite) TestGetEntry() {
	posted, err := suite.poster.PostEvent(suite.ctx, testCompany, paidPayroll("PR-1"), domain.PostOptions{})
	suite.Require().NoError(err)

	got, err := suite.poster.GetEntry(suite.ctx, testCompany, posted.Entry.EntryID)
	suite.Require().NoError(err)
	suite.Equal(posted.Entry.EntryNumber, got.Entry.EntryNumber)
	suite.Len(got.Lines, 4)
	assertBalanced(suite.T(), got.Lines)

	_, err = suite.poster.GetEntry(suite.ctx, "other-company", posted.Entry.EntryID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// explodingEvent is routed to a policy that panics.
type explodingEvent struct {
	eventType domain.EventType
}

func (e explodingEvent) EventType() domain.EventType { return e.eventType }
func (e explodingEvent) SourceID() string            { return "boom-1" }
func (e explodingEvent) EventDate() time.Time        { return fixedNow }
func (e explodingEvent) Memo() string                { return "boom" }
func (e explodingEvent) CheckInvariants() error      { return nil }

// --- account lookup through a mock ---

type MockAccountReader struct {
	mock.Mock
}

func (m *MockAccountReader) FindAccountsByCodes(ctx context.Context, companyID string, codes []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, companyID, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func TestPostEvent_ResolvesAllCodesInOneLookup(t *testing.T) {
	store := memory.NewStore()
	accounts := new(MockAccountReader)
	accounts.On("FindAccountsByCodes", mock.Anything, testCompany, []string{"1010", "2300", "5300"}).
		Return(map[string]domain.Account{
			"1010": {AccountID: "a-cash", Code: "1010"},
			"2300": {AccountID: "a-loan", Code: "2300"},
			"5300": {AccountID: "a-int", Code: "5300"},
		}, nil).Once()

	poster := services.NewLedgerPoster(accounts, store, services.LedgerConfig{})
	res, err := poster.PostEvent(context.Background(), testCompany, domain.InstallmentPaymentEvent{
		InstallmentID:  "INST-1",
		Date:           fixedNow,
		TotalAmount:    d("500"),
		InterestAmount: d("50"),
	}, domain.PostOptions{})

	require.NoError(t, err)
	accounts.AssertExpectations(t)
	ids := make(map[string]string)
	for _, l := range res.Lines {
		ids[l.AccountCode] = l.AccountID
	}
	assert.Equal(t, map[string]string{"1010": "a-cash", "2300": "a-loan", "5300": "a-int"}, ids)
}
