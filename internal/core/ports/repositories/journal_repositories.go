package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
)

// JournalReader defines read operations for journal entries
type JournalReader interface {
	// FindEntryByID retrieves a journal entry header.
	FindEntryByID(ctx context.Context, companyID, entryID string) (*domain.JournalEntry, error)

	// FindEntriesByReference returns every entry recorded for a source document, oldest first.
	FindEntriesByReference(ctx context.Context, companyID, referenceType, referenceID string) ([]domain.JournalEntry, error)

	// FindLinesByEntryID returns the lines of an entry ordered by line number.
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalEntryLine, error)
}

// JournalSequencer hands out entry numbers.
type JournalSequencer interface {
	// NextEntrySequence atomically increments and returns the company's entry counter.
	NextEntrySequence(ctx context.Context, companyID string) (int64, error)
}

// JournalWriter defines the individual write steps of a posting.
// Each call is its own unit of work; the poster compensates when a later step fails.
type JournalWriter interface {
	InsertEntryHeader(ctx context.Context, entry domain.JournalEntry) error
	InsertEntryLines(ctx context.Context, lines []domain.JournalEntryLine) error
	MarkEntryPosted(ctx context.Context, entryID string, postedAt time.Time, updatedBy string) error
	// TransitionEntryStatus moves an entry from one status to another; ErrNotFound when the
	// entry is not in the from status.
	TransitionEntryStatus(ctx context.Context, entryID string, from, to domain.EntryStatus, updatedAt time.Time, updatedBy string) error
	DeleteEntryLines(ctx context.Context, entryID string) error
	DeleteEntry(ctx context.Context, entryID string) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalSequencer
	JournalWriter
}
