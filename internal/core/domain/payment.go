package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is money received against a contract. Payments are never physically deleted;
// cancellation zeroes the amount and records why in Notes.
type Payment struct {
	PaymentID      string           `json:"paymentID"`
	CompanyID      string           `json:"companyID"`
	ContractID     string           `json:"contractID"`
	PaymentNumber  string           `json:"paymentNumber"`
	PaymentDate    time.Time        `json:"paymentDate"`
	Amount         decimal.Decimal  `json:"amount"`
	Status         PaymentStatus    `json:"status"`
	Notes          string           `json:"notes"`
	OriginalAmount *decimal.Decimal `json:"originalAmount,omitempty"`
	AuditFields
}

// CountsTowardTotal reports whether the payment contributes to a contract's total paid.
func (p Payment) CountsTowardTotal() bool {
	return p.Status != PaymentCancelled
}
