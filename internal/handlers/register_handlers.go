package handlers

import (
	portssvc "github.com/SscSPs/fleet_finance_engine/internal/core/ports/services"
	"github.com/SscSPs/fleet_finance_engine/internal/middleware"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/config"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	m *metrics.Metrics,
) {
	r.GET("/health", getHealth)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))
	company := v1.Group("/companies/:companyID", middleware.CompanyScope())

	RegisterLedgerRoutes(company, services.Ledger)
	RegisterReconciliationRoutes(company, services.Reconciliation)
	RegisterLegalCollectionRoutes(company, services.LegalCollection)
	RegisterAccountRoutes(company, services.Accounts)
}
