package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of journal_entries.
type JournalEntry struct {
	EntryID       string          `db:"journal_entry_id"`
	CompanyID     string          `db:"company_id"`
	EntryNumber   string          `db:"entry_number"`
	EntryDate     time.Time       `db:"entry_date"`
	Description   string          `db:"description"`
	ReferenceType string          `db:"reference_type"`
	ReferenceID   string          `db:"reference_id"`
	Status        string          `db:"status"`
	TotalDebit    decimal.Decimal `db:"total_debit"`
	TotalCredit   decimal.Decimal `db:"total_credit"`
	PostedAt      *time.Time      `db:"posted_at"` // Nullable until posted
	AuditFields
}

// JournalEntryLine is a row of journal_entry_lines.
type JournalEntryLine struct {
	LineID          string          `db:"line_id"`
	EntryID         string          `db:"journal_entry_id"`
	LineNumber      int             `db:"line_number"`
	AccountID       string          `db:"account_id"`
	AccountCode     string          `db:"code"` // Joined from accounts
	LineDescription string          `db:"line_description"`
	DebitAmount     decimal.Decimal `db:"debit_amount"`
	CreditAmount    decimal.Decimal `db:"credit_amount"`
}
