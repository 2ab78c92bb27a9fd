package domain

import "github.com/shopspring/decimal"

// DirectiveKind identifies a correction directive variant.
type DirectiveKind string

const (
	SetContractAmount DirectiveKind = "set_contract_amount"
	SetPaymentAmount  DirectiveKind = "set_payment_amount"
	CancelPayment     DirectiveKind = "cancel_payment"
)

// CorrectionDirective is one data fix applied by the reconciliation corrector.
type CorrectionDirective struct {
	Kind           DirectiveKind   `json:"kind" validate:"required,oneof=set_contract_amount set_payment_amount cancel_payment"`
	ContractNumber string          `json:"contractNumber,omitempty" validate:"required_if=Kind set_contract_amount"`
	PaymentID      string          `json:"paymentID,omitempty" validate:"required_unless=Kind set_contract_amount"`
	NewAmount      decimal.Decimal `json:"newAmount" validate:"gte=0"`
	Reason         string          `json:"reason,omitempty" validate:"required_unless=Kind set_contract_amount"`
}

// Target is the business key the directive addresses.
func (d CorrectionDirective) Target() string {
	if d.Kind == SetContractAmount {
		return d.ContractNumber
	}
	return d.PaymentID
}

// CorrectionOptions tunes a correction batch.
type CorrectionOptions struct {
	// SuspendOverpaymentGuard disables the store's overpayment trigger for the duration of the batch.
	SuspendOverpaymentGuard bool
	Actor                   string
}

// DirectiveOutcome records what happened to a single directive.
type DirectiveOutcome struct {
	Index          int              `json:"index"`
	Kind           DirectiveKind    `json:"kind"`
	Target         string           `json:"target"`
	ContractNumber string           `json:"contractNumber,omitempty"`
	Applied        bool             `json:"applied"`
	PreviousAmount *decimal.Decimal `json:"previousAmount,omitempty"`
	NewAmount      *decimal.Decimal `json:"newAmount,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// VerificationStatus classifies a contract after corrections.
type VerificationStatus string

const (
	VerificationOK        VerificationStatus = "OK"
	VerificationStillZero VerificationStatus = "STILL_ZERO"
	VerificationOverpaid  VerificationStatus = "OVERPAID"
)

// Classify reports the verification status of the contract's current figures.
func (c Contract) Classify() VerificationStatus {
	switch {
	case c.ContractAmount.IsZero():
		return VerificationStillZero
	case c.TotalPaid.GreaterThan(c.ContractAmount):
		return VerificationOverpaid
	default:
		return VerificationOK
	}
}

// ContractVerification is the re-read state of a contract touched by a batch.
type ContractVerification struct {
	ContractNumber string             `json:"contractNumber"`
	ContractAmount decimal.Decimal    `json:"contractAmount"`
	TotalPaid      decimal.Decimal    `json:"totalPaid"`
	BalanceDue     decimal.Decimal    `json:"balanceDue"`
	Status         VerificationStatus `json:"status"`
}

// CorrectionReport summarizes a correction batch.
type CorrectionReport struct {
	CompanyID         string                 `json:"companyID"`
	Applied           int                    `json:"applied"`
	Failed            int                    `json:"failed"`
	GuardSuspended    bool                   `json:"guardSuspended"`
	// GuardRestoreError is set when the guard could not be re-enabled and is still off.
	GuardRestoreError string                 `json:"guardRestoreError,omitempty"`
	Outcomes          []DirectiveOutcome     `json:"outcomes"`
	Verifications     []ContractVerification `json:"verifications"`
}
