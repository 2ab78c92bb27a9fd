package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	portssvc "github.com/SscSPs/fleet_finance_engine/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

const asOfLayout = "2006-01-02"

type legalCollectionHandler struct {
	legalService portssvc.LegalCollectionSvc
}

// RegisterLegalCollectionRoutes registers the legal collection report route.
func RegisterLegalCollectionRoutes(rg *gin.RouterGroup, svc portssvc.LegalCollectionSvc) {
	h := &legalCollectionHandler{legalService: svc}
	rg.GET("/legal-collection/report", h.getReport)
}

// getReport godoc
// @Summary Legal collection aging report
// @Description Ages every receivable under legal procedure and computes its doubtful-debt provision
// @Tags legal-collection
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   asOf query string false "Report date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} domain.LegalCollectionReport
// @Failure 400 {object} map[string]string "Invalid asOf"
// @Router /companies/{companyID}/legal-collection/report [get]
func (h *legalCollectionHandler) getReport(c *gin.Context) {
	companyID := c.Param("companyID")

	var asOf time.Time
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(asOfLayout, raw)
		if err != nil {
			respondError(c, fmt.Errorf("%w: asOf must be YYYY-MM-DD", apperrors.ErrValidation), "Invalid asOf")
			return
		}
		asOf = parsed
	}

	report, err := h.legalService.Report(c.Request.Context(), companyID, asOf)
	if err != nil {
		respondError(c, err, "Failed to build legal collection report")
		return
	}
	c.JSON(http.StatusOK, report)
}
