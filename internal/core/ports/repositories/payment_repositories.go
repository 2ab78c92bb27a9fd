package repositories

import (
	"context"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
)

// PaymentReader defines read operations for payment data
type PaymentReader interface {
	FindPaymentByID(ctx context.Context, companyID, paymentID string) (*domain.Payment, error)

	// ListPaymentsByContract returns all payments of a contract, cancelled ones included.
	ListPaymentsByContract(ctx context.Context, contractID string) ([]domain.Payment, error)

	// ListPaymentsByContracts returns payments grouped by contract ID.
	ListPaymentsByContracts(ctx context.Context, contractIDs []string) (map[string][]domain.Payment, error)
}

// PaymentWriter defines write operations for payment data
type PaymentWriter interface {
	// UpdatePaymentCorrection stores a corrected amount, status, notes and original amount.
	UpdatePaymentCorrection(ctx context.Context, payment domain.Payment) error
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
