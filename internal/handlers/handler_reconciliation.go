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

type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvc
}

func newReconciliationHandler(svc portssvc.ReconciliationSvc) *reconciliationHandler {
	return &reconciliationHandler{reconciliationService: svc}
}

// RegisterReconciliationRoutes registers the correction routes on a company-scoped group.
func RegisterReconciliationRoutes(rg *gin.RouterGroup, svc portssvc.ReconciliationSvc) {
	h := newReconciliationHandler(svc)
	rec := rg.Group("/reconciliation")
	{
		rec.POST("/corrections", h.applyCorrections)
		rec.POST("/contracts/:contractNumber/recompute", h.recomputeContract)
	}
}

// applyCorrections godoc
// @Summary Apply correction directives
// @Description Applies directives one at a time, recomputes each touched contract and reports per-directive outcomes. Suspending the overpayment guard is only available to the operator CLI.
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   corrections body dto.ApplyCorrectionsRequest true "Directives"
// @Success 200 {object} domain.CorrectionReport
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 403 {object} map[string]string "Guard suspension requested"
// @Router /companies/{companyID}/reconciliation/corrections [post]
func (h *reconciliationHandler) applyCorrections(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var req dto.ApplyCorrectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for applyCorrections", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	if req.SuspendOverpaymentGuard {
		respondError(c, fmt.Errorf("%w: suspending the overpayment guard requires the operator CLI", apperrors.ErrForbidden), "Guard suspension not allowed")
		return
	}

	report, err := h.reconciliationService.ApplyCorrections(c.Request.Context(), companyID, req.Directives, domain.CorrectionOptions{Actor: actor})
	if err != nil {
		respondError(c, err, "Failed to apply corrections")
		return
	}
	c.JSON(http.StatusOK, report)
}

// recomputeContract godoc
// @Summary Recompute contract totals
// @Description Rederives total paid and balance due from the contract's current payments
// @Tags reconciliation
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   contractNumber path string true "Contract number"
// @Success 200 {object} dto.ContractResponse
// @Failure 404 {object} map[string]string "Contract not found"
// @Router /companies/{companyID}/reconciliation/contracts/{contractNumber}/recompute [post]
func (h *reconciliationHandler) recomputeContract(c *gin.Context) {
	companyID := c.Param("companyID")
	contractNumber := c.Param("contractNumber")
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	contract, err := h.reconciliationService.RecomputeContract(c.Request.Context(), companyID, contractNumber, actor)
	if err != nil {
		respondError(c, err, "Failed to recompute contract")
		return
	}
	c.JSON(http.StatusOK, dto.ToContractResponse(contract))
}
