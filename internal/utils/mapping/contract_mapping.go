package mapping

import (
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/SscSPs/fleet_finance_engine/internal/models"
	"github.com/shopspring/decimal"
)

// ToDomainContract converts a model Contract to a domain Contract
func ToDomainContract(m models.Contract) domain.Contract {
	return domain.Contract{
		ContractID:     m.ContractID,
		CompanyID:      m.CompanyID,
		ContractNumber: m.ContractNumber,
		Status:         domain.ContractStatus(m.Status),
		ContractAmount: m.ContractAmount,
		TotalPaid:      m.TotalPaid,
		BalanceDue:     m.BalanceDue,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) models.Payment {
	m := models.Payment{
		PaymentID:     d.PaymentID,
		CompanyID:     d.CompanyID,
		ContractID:    d.ContractID,
		PaymentNumber: d.PaymentNumber,
		PaymentDate:   d.PaymentDate,
		Amount:        d.Amount,
		Status:        string(d.Status),
		Notes:         d.Notes,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
	if d.OriginalAmount != nil {
		m.OriginalAmount = decimal.NewNullDecimal(*d.OriginalAmount)
	}
	return m
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) domain.Payment {
	d := domain.Payment{
		PaymentID:     m.PaymentID,
		CompanyID:     m.CompanyID,
		ContractID:    m.ContractID,
		PaymentNumber: m.PaymentNumber,
		PaymentDate:   m.PaymentDate,
		Amount:        m.Amount,
		Status:        domain.PaymentStatus(m.Status),
		Notes:         m.Notes,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
	if m.OriginalAmount.Valid {
		original := m.OriginalAmount.Decimal
		d.OriginalAmount = &original
	}
	return d
}

// ToDomainLegalCase converts a model LegalCase to a domain LegalCase
func ToDomainLegalCase(m models.LegalCase) domain.LegalCase {
	return domain.LegalCase{
		CaseID:     m.CaseID,
		CompanyID:  m.CompanyID,
		ContractID: m.ContractID,
		CaseNumber: m.CaseNumber,
		CaseStatus: m.CaseStatus,
		CaseValue:  m.CaseValue,
		FilingDate: m.FilingDate,
		LegalFees:  m.LegalFees,
		CourtFees:  m.CourtFees,
		CreatedAt:  m.CreatedAt,
	}
}
