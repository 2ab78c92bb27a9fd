package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	portssvc "github.com/SscSPs/fleet_finance_engine/internal/core/ports/services"
	"github.com/SscSPs/fleet_finance_engine/internal/dto"
	"github.com/SscSPs/fleet_finance_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler handles HTTP requests that post and inspect journal entries.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ledgerService}
}

// RegisterLedgerRoutes registers the ledger routes on a company-scoped group.
func RegisterLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)
	ledger := rg.Group("/ledger")
	{
		ledger.POST("/events", h.postEvent)
		ledger.POST("/events/batch", h.postBatch)
		ledger.GET("/entries/:entryID", h.getEntry)
		ledger.DELETE("/sources/:referenceID", h.deleteSourceEntries)
	}
}

// postEvent godoc
// @Summary Post a business event to the ledger
// @Description Turns one event into a balanced journal entry. An event already posted for the same source is skipped unless onDuplicate is supersede.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   event body dto.PostEventRequest true "Event envelope"
// @Success 201 {object} dto.PostEventResponse
// @Success 200 {object} dto.PostEventResponse "Existing entry, posting skipped"
// @Failure 400 {object} map[string]string "Invalid event"
// @Failure 422 {object} map[string]interface{} "Missing accounts or unbalanced entry"
// @Failure 503 {object} map[string]string "Store temporarily unavailable"
// @Router /companies/{companyID}/ledger/events [post]
func (h *ledgerHandler) postEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var req dto.PostEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for postEvent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	event, err := req.ToDomain()
	if err != nil {
		respondError(c, err, "Invalid event")
		return
	}

	result, err := h.ledgerService.PostEvent(c.Request.Context(), companyID, event, domain.PostOptions{
		OnDuplicate: req.OnDuplicate,
		Actor:       actor,
	})
	if err != nil {
		respondError(c, err, "Failed to post event")
		return
	}

	status := http.StatusCreated
	if result.Skipped {
		status = http.StatusOK
	}
	logger.Info("Event posted",
		slog.String("company_id", companyID),
		slog.String("entry_number", result.Entry.EntryNumber),
		slog.Bool("skipped", result.Skipped),
	)
	c.JSON(status, dto.ToPostEventResponse(result))
}

// postBatch godoc
// @Summary Post a batch of business events
// @Description Posts events one by one. Failures are reported per event and never stop the batch.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   batch body dto.PostBatchRequest true "Events"
// @Success 200 {object} dto.PostBatchResponse
// @Failure 400 {object} map[string]string "Invalid request format"
// @Router /companies/{companyID}/ledger/events/batch [post]
func (h *ledgerHandler) postBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var req dto.PostBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for postBatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	events, err := dto.DecodeEvents(req.Events)
	if err != nil {
		respondError(c, err, "Invalid event")
		return
	}

	result, err := h.ledgerService.PostBatch(c.Request.Context(), companyID, events, domain.PostOptions{
		OnDuplicate: req.OnDuplicate,
		Actor:       actor,
	})
	if err != nil {
		respondError(c, err, "Failed to post batch")
		return
	}
	c.JSON(http.StatusOK, dto.ToPostBatchResponse(result))
}

// getEntry godoc
// @Summary Get a journal entry
// @Description Retrieves a journal entry header with its lines
// @Tags ledger
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   entryID path string true "Journal entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Router /companies/{companyID}/ledger/entries/{entryID} [get]
func (h *ledgerHandler) getEntry(c *gin.Context) {
	companyID := c.Param("companyID")
	entryID := c.Param("entryID")

	result, err := h.ledgerService.GetEntry(c.Request.Context(), companyID, entryID)
	if err != nil {
		respondError(c, err, "Failed to retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(result.Entry, result.Lines))
}

// deleteSourceEntries godoc
// @Summary Delete the entries of a source document
// @Description Deletes every entry posted for the reference ID. Restrict with one or more type query parameters; all event types are searched otherwise.
// @Tags ledger
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   referenceID path string true "Source document ID"
// @Param   type query []string false "Reference types" collectionFormat(multi)
// @Success 200 {object} dto.DeleteSourceResponse
// @Failure 400 {object} map[string]string "Unknown reference type"
// @Router /companies/{companyID}/ledger/sources/{referenceID} [delete]
func (h *ledgerHandler) deleteSourceEntries(c *gin.Context) {
	companyID := c.Param("companyID")
	referenceID := c.Param("referenceID")

	var refTypes []domain.EventType
	for _, raw := range c.QueryArray("type") {
		refType := domain.EventType(raw)
		if !domain.IsKnownEventType(refType) {
			respondError(c, fmt.Errorf("%w: unknown reference type %q", apperrors.ErrValidation, raw), "Invalid reference type")
			return
		}
		refTypes = append(refTypes, refType)
	}

	deleted, err := h.ledgerService.DeleteSourceEntries(c.Request.Context(), companyID, referenceID, refTypes...)
	if err != nil {
		respondError(c, err, "Failed to delete source entries")
		return
	}
	c.JSON(http.StatusOK, dto.DeleteSourceResponse{ReferenceID: referenceID, Deleted: deleted})
}
