package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/fleet_finance_engine/internal/core/ports/services"
	"github.com/SscSPs/fleet_finance_engine/internal/dto"
	"github.com/SscSPs/fleet_finance_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

type accountHandler struct {
	accountService portssvc.ChartOfAccountsSvc
}

// RegisterAccountRoutes registers the chart of accounts routes on a company-scoped group.
func RegisterAccountRoutes(rg *gin.RouterGroup, svc portssvc.ChartOfAccountsSvc) {
	h := &accountHandler{accountService: svc}
	accounts := rg.Group("/accounts")
	{
		accounts.POST("/seed", h.seedChart)
		accounts.GET("/missing", h.missingAccounts)
	}
}

// seedChart godoc
// @Summary Seed the posting accounts
// @Description Creates every account the posting policies need that the company does not have yet
// @Tags accounts
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Success 200 {object} dto.SeedChartResponse
// @Router /companies/{companyID}/accounts/seed [post]
func (h *accountHandler) seedChart(c *gin.Context) {
	companyID := c.Param("companyID")
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	created, err := h.accountService.SeedDefaultChart(c.Request.Context(), companyID, actor)
	if err != nil {
		respondError(c, err, "Failed to seed chart of accounts")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Chart of accounts seeded", slog.Int("created", len(created)))
	c.JSON(http.StatusOK, dto.SeedChartResponse{Created: dto.ToAccountResponses(created)})
}

// missingAccounts godoc
// @Summary List missing posting accounts
// @Tags accounts
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Success 200 {object} dto.MissingAccountsResponse
// @Router /companies/{companyID}/accounts/missing [get]
func (h *accountHandler) missingAccounts(c *gin.Context) {
	missing, err := h.accountService.MissingAccounts(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondError(c, err, "Failed to check chart of accounts")
		return
	}
	if missing == nil {
		missing = []string{}
	}
	c.JSON(http.StatusOK, dto.MissingAccountsResponse{MissingCodes: missing, Ready: len(missing) == 0})
}
