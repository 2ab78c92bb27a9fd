package services

import (
	"context"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
)

// LegalCollectionSvc produces aging and provisioning reports for receivables under legal procedure
type LegalCollectionSvc interface {
	Report(ctx context.Context, companyID string, asOf time.Time) (*domain.LegalCollectionReport, error)
}
