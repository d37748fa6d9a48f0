package api

import (
	"github.com/flexprice/recurring/internal/api/cron"
	v1 "github.com/flexprice/recurring/internal/api/v1"
	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/rest/middleware"
	"github.com/flexprice/recurring/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health           *v1.HealthHandler
	RecurringInvoice *v1.RecurringInvoiceHandler
	CronRecurring    *cron.RecurringInvoiceHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.SentryScopeMiddleware,
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	recurringInvoices := router.Group("/recurring-invoices")
	{
		recurringInvoices.POST("", handlers.RecurringInvoice.CreateRecurringInvoice)
		recurringInvoices.GET("", handlers.RecurringInvoice.ListRecurringInvoices)
		recurringInvoices.GET("/due", handlers.RecurringInvoice.ListDueRecurringInvoices)
		recurringInvoices.GET("/:id", handlers.RecurringInvoice.GetRecurringInvoice)
		recurringInvoices.PUT("/:id", handlers.RecurringInvoice.UpdateRecurringInvoice)
		recurringInvoices.DELETE("/:id", handlers.RecurringInvoice.DeleteRecurringInvoice)
		recurringInvoices.POST("/:id/status", handlers.RecurringInvoice.SetRecurringInvoiceStatus)
		recurringInvoices.POST("/:id/fire", handlers.RecurringInvoice.FireRecurringInvoice)
		recurringInvoices.GET("/:id/materialize", handlers.RecurringInvoice.MaterializeRecurringInvoice)
		recurringInvoices.GET("/:id/invoices", handlers.RecurringInvoice.ListGeneratedInvoices)
	}

	cronGroup := router.Group("/cron")
	{
		cronRecurring := cronGroup.Group("/recurring-invoices")
		cronRecurring.POST("/generate", handlers.CronRecurring.GenerateDueInvoices)
		cronRecurring.POST("/reminders", handlers.CronRecurring.SendReminders)
	}
}
