package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	EntryDraft      EntryStatus = "draft"
	EntryPosted     EntryStatus = "posted"
	EntrySuperseded EntryStatus = "superseded"
)

// JournalEntry is the header of a double-entry posting.
// A posted entry's lines always satisfy TotalDebit == TotalCredit.
type JournalEntry struct {
	EntryID       string          `json:"entryID"`
	CompanyID     string          `json:"companyID"`
	EntryNumber   string          `json:"entryNumber"`
	EntryDate     time.Time       `json:"entryDate"`
	Description   string          `json:"description"`
	ReferenceType string          `json:"referenceType"`
	ReferenceID   string          `json:"referenceID"`
	Status        EntryStatus     `json:"status"`
	TotalDebit    decimal.Decimal `json:"totalDebit"`
	TotalCredit   decimal.Decimal `json:"totalCredit"`
	PostedAt      *time.Time      `json:"postedAt,omitempty"`
	AuditFields
}

// JournalEntryLine is one side of a posting. Exactly one of DebitAmount and CreditAmount is non-zero.
type JournalEntryLine struct {
	LineID          string          `json:"lineID"`
	EntryID         string          `json:"entryID"`
	LineNumber      int             `json:"lineNumber"`
	AccountID       string          `json:"accountID"`
	AccountCode     string          `json:"accountCode,omitempty"`
	LineDescription string          `json:"lineDescription"`
	DebitAmount     decimal.Decimal `json:"debitAmount"`
	CreditAmount    decimal.Decimal `json:"creditAmount"`
}

// IsDebit reports whether the line sits on the debit side.
func (l JournalEntryLine) IsDebit() bool {
	return l.DebitAmount.IsPositive()
}

// Amount returns the non-zero side of the line.
func (l JournalEntryLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.DebitAmount
	}
	return l.CreditAmount
}
