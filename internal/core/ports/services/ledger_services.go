package services

import (
	"context"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
)

// LedgerReaderSvc defines read operations on posted journal entries
type LedgerReaderSvc interface {
	// GetEntry retrieves an entry header with its lines.
	GetEntry(ctx context.Context, companyID, entryID string) (*domain.PostResult, error)
}

// LedgerPosterSvc turns business events into balanced journal entries
type LedgerPosterSvc interface {
	// PostEvent posts a single event. Every failure is returned to the caller.
	PostEvent(ctx context.Context, companyID string, event domain.BusinessEvent, opts domain.PostOptions) (*domain.PostResult, error)

	// PostBatch posts events one by one, recording failures without stopping.
	PostBatch(ctx context.Context, companyID string, events []domain.BusinessEvent, opts domain.PostOptions) (*domain.BatchResult, error)

	// DeleteSourceEntries removes every entry recorded for a source document and returns how many were deleted.
	DeleteSourceEntries(ctx context.Context, companyID, referenceID string, referenceTypes ...domain.EventType) (int, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerPosterSvc
}
