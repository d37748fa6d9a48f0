package cron

import (
	"net/http"
	"time"

	"github.com/flexprice/recurring/internal/api/dto"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/service"
	"github.com/gin-gonic/gin"
)

// RecurringInvoiceHandler exposes the scheduler sweeps to external cron triggers
type RecurringInvoiceHandler struct {
	scheduler service.SchedulerService
	logger    *logger.Logger
	now       func() time.Time
}

func NewRecurringInvoiceHandler(scheduler service.SchedulerService, logger *logger.Logger) *RecurringInvoiceHandler {
	return &RecurringInvoiceHandler{
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// SweepRequest optionally pins the evaluation date of a sweep
type SweepRequest struct {
	AsOf string `json:"as_of,omitempty"`
}

func (h *RecurringInvoiceHandler) asOf(c *gin.Context) (time.Time, error) {
	var req SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			return time.Time{}, ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation)
		}
	}
	if req.AsOf == "" {
		req.AsOf = c.Query("as_of")
	}
	return dto.AsOfDate(req.AsOf, h.now())
}

// GenerateDueInvoices fires every recurring invoice due on the evaluation date
func (h *RecurringInvoiceHandler) GenerateDueInvoices(c *gin.Context) {
	h.logger.Infow("starting recurring invoice generation cron", "time", h.now().UTC().Format(time.RFC3339))

	asOf, err := h.asOf(c)
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.scheduler.ProcessDueSeries(c.Request.Context(), asOf)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SendReminders dispatches pre-generation reminders whose window opens on the evaluation date
func (h *RecurringInvoiceHandler) SendReminders(c *gin.Context) {
	h.logger.Infow("starting recurring invoice reminder cron", "time", h.now().UTC().Format(time.RFC3339))

	asOf, err := h.asOf(c)
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.scheduler.ProcessReminders(c.Request.Context(), asOf)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
