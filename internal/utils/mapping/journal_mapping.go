package mapping

import (
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/SscSPs/fleet_finance_engine/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:       d.EntryID,
		CompanyID:     d.CompanyID,
		EntryNumber:   d.EntryNumber,
		EntryDate:     d.EntryDate,
		Description:   d.Description,
		ReferenceType: d.ReferenceType,
		ReferenceID:   d.ReferenceID,
		Status:        string(d.Status),
		TotalDebit:    d.TotalDebit,
		TotalCredit:   d.TotalCredit,
		PostedAt:      d.PostedAt,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:       m.EntryID,
		CompanyID:     m.CompanyID,
		EntryNumber:   m.EntryNumber,
		EntryDate:     m.EntryDate,
		Description:   m.Description,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Status:        domain.EntryStatus(m.Status),
		TotalDebit:    m.TotalDebit,
		TotalCredit:   m.TotalCredit,
		PostedAt:      m.PostedAt,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalEntryLine converts a domain JournalEntryLine to a model JournalEntryLine
func ToModelJournalEntryLine(d domain.JournalEntryLine) models.JournalEntryLine {
	return models.JournalEntryLine{
		LineID:          d.LineID,
		EntryID:         d.EntryID,
		LineNumber:      d.LineNumber,
		AccountID:       d.AccountID,
		AccountCode:     d.AccountCode,
		LineDescription: d.LineDescription,
		DebitAmount:     d.DebitAmount,
		CreditAmount:    d.CreditAmount,
	}
}

// ToDomainJournalEntryLine converts a model JournalEntryLine to a domain JournalEntryLine
func ToDomainJournalEntryLine(m models.JournalEntryLine) domain.JournalEntryLine {
	return domain.JournalEntryLine{
		LineID:          m.LineID,
		EntryID:         m.EntryID,
		LineNumber:      m.LineNumber,
		AccountID:       m.AccountID,
		AccountCode:     m.AccountCode,
		LineDescription: m.LineDescription,
		DebitAmount:     m.DebitAmount,
		CreditAmount:    m.CreditAmount,
	}
}
