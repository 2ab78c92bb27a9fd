package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EventEnvelope carries one business event as a type tag plus the variant's payload.
type EventEnvelope struct {
	Type    domain.EventType `json:"type" binding:"required"`
	Payload json.RawMessage  `json:"payload" binding:"required"`
}

// PostEventRequest defines the data needed to post a single business event.
type PostEventRequest struct {
	EventEnvelope
	OnDuplicate domain.DuplicatePolicy `json:"onDuplicate,omitempty" binding:"omitempty,oneof=skip supersede"`
}

// PostBatchRequest defines a best-effort batch of business events.
type PostBatchRequest struct {
	Events      []EventEnvelope        `json:"events" binding:"required,min=1,dive"`
	OnDuplicate domain.DuplicatePolicy `json:"onDuplicate,omitempty" binding:"omitempty,oneof=skip supersede"`
}

// ToDomain decodes the payload into the event variant named by Type.
// Unknown types and unknown payload fields are validation errors.
func (e EventEnvelope) ToDomain() (domain.BusinessEvent, error) {
	switch e.Type {
	case domain.EventPayroll:
		return decodePayload[domain.PayrollEvent](e)
	case domain.EventPayrollPayment:
		return decodePayload[domain.PayrollPaymentEvent](e)
	case domain.EventInstallmentPayment:
		return decodePayload[domain.InstallmentPaymentEvent](e)
	case domain.EventVehiclePurchase:
		return decodePayload[domain.VehiclePurchaseEvent](e)
	case domain.EventPurchaseOrder:
		return decodePayload[domain.PurchaseOrderEvent](e)
	case domain.EventVendorPayment:
		return decodePayload[domain.VendorPaymentEvent](e)
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", apperrors.ErrValidation, e.Type)
	}
}

func decodePayload[T domain.BusinessEvent](e EventEnvelope) (domain.BusinessEvent, error) {
	var event T
	dec := json.NewDecoder(bytes.NewReader(e.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&event); err != nil {
		return nil, fmt.Errorf("%w: invalid %s payload: %v", apperrors.ErrValidation, e.Type, err)
	}
	return event, nil
}

// DecodeEvents converts every envelope, reporting the index of the first undecodable one.
func DecodeEvents(envelopes []EventEnvelope) ([]domain.BusinessEvent, error) {
	events := make([]domain.BusinessEvent, 0, len(envelopes))
	for i, env := range envelopes {
		event, err := env.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// JournalLineResponse is one line of a journal entry.
type JournalLineResponse struct {
	LineNumber   int             `json:"lineNumber"`
	AccountID    string          `json:"accountID"`
	AccountCode  string          `json:"accountCode,omitempty"`
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
}

// JournalEntryResponse defines the data returned for a journal entry and its lines.
type JournalEntryResponse struct {
	EntryID       string                `json:"entryID"`
	EntryNumber   string                `json:"entryNumber"`
	EntryDate     time.Time             `json:"entryDate"`
	Description   string                `json:"description"`
	ReferenceType string                `json:"referenceType"`
	ReferenceID   string                `json:"referenceID"`
	Status        domain.EntryStatus    `json:"status"`
	TotalDebit    decimal.Decimal       `json:"totalDebit"`
	TotalCredit   decimal.Decimal       `json:"totalCredit"`
	PostedAt      *time.Time            `json:"postedAt,omitempty"`
	Lines         []JournalLineResponse `json:"lines"`
}

// PostEventResponse defines the result of posting one event.
type PostEventResponse struct {
	Entry   JournalEntryResponse `json:"entry"`
	Skipped bool                 `json:"skipped"`
}

// PostBatchResponse summarizes a posting batch.
type PostBatchResponse struct {
	Succeeded int                   `json:"succeeded"`
	Skipped   int                   `json:"skipped"`
	Failed    int                   `json:"failed"`
	Entries   []PostEventResponse   `json:"entries"`
	Failures  []domain.BatchFailure `json:"failures"`
}

// DeleteSourceResponse reports how many entries a source deletion removed.
type DeleteSourceResponse struct {
	ReferenceID string `json:"referenceID"`
	Deleted     int    `json:"deleted"`
}

// ToJournalEntryResponse converts a posted entry and its lines.
func ToJournalEntryResponse(entry domain.JournalEntry, lines []domain.JournalEntryLine) JournalEntryResponse {
	resp := JournalEntryResponse{
		EntryID:       entry.EntryID,
		EntryNumber:   entry.EntryNumber,
		EntryDate:     entry.EntryDate,
		Description:   entry.Description,
		ReferenceType: entry.ReferenceType,
		ReferenceID:   entry.ReferenceID,
		Status:        entry.Status,
		TotalDebit:    entry.TotalDebit,
		TotalCredit:   entry.TotalCredit,
		PostedAt:      entry.PostedAt,
		Lines:         make([]JournalLineResponse, len(lines)),
	}
	for i, line := range lines {
		resp.Lines[i] = JournalLineResponse{
			LineNumber:   line.LineNumber,
			AccountID:    line.AccountID,
			AccountCode:  line.AccountCode,
			Description:  line.LineDescription,
			DebitAmount:  line.DebitAmount,
			CreditAmount: line.CreditAmount,
		}
	}
	return resp
}

// ToPostEventResponse converts a domain.PostResult to PostEventResponse DTO.
func ToPostEventResponse(result *domain.PostResult) PostEventResponse {
	return PostEventResponse{
		Entry:   ToJournalEntryResponse(result.Entry, result.Lines),
		Skipped: result.Skipped,
	}
}

// ToPostBatchResponse converts a domain.BatchResult to PostBatchResponse DTO.
func ToPostBatchResponse(result *domain.BatchResult) PostBatchResponse {
	resp := PostBatchResponse{
		Succeeded: result.Succeeded,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		Entries:   make([]PostEventResponse, len(result.Results)),
		Failures:  result.Failures,
	}
	for i := range result.Results {
		resp.Entries[i] = ToPostEventResponse(&result.Results[i])
	}
	if resp.Failures == nil {
		resp.Failures = []domain.BatchFailure{}
	}
	return resp
}
