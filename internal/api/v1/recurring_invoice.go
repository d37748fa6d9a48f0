package v1

import (
	"net/http"
	"time"

	"github.com/flexprice/recurring/internal/api/dto"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/service"
	"github.com/flexprice/recurring/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type RecurringInvoiceHandler struct {
	service service.RecurringInvoiceService
	logger  *logger.Logger
	now     func() time.Time
}

func NewRecurringInvoiceHandler(service service.RecurringInvoiceService, logger *logger.Logger) *RecurringInvoiceHandler {
	return &RecurringInvoiceHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateRecurringInvoice godoc
// @Summary Create a recurring invoice
// @Description Create a recurring invoice series. The first generation date is derived from the start date and day of month.
// @Tags Recurring Invoices
// @Accept json
// @Produce json
// @Param recurring_invoice body dto.CreateRecurringInvoiceRequest true "Recurring invoice"
// @Success 201 {object} dto.RecurringInvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /recurring-invoices [post]
func (h *RecurringInvoiceHandler) CreateRecurringInvoice(c *gin.Context) {
	var req dto.CreateRecurringInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateRecurringInvoice(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetRecurringInvoice godoc
// @Summary Get a recurring invoice
// @Tags Recurring Invoices
// @Produce json
// @Param id path string true "Recurring invoice ID"
// @Success 200 {object} dto.RecurringInvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /recurring-invoices/{id} [get]
func (h *RecurringInvoiceHandler) GetRecurringInvoice(c *gin.Context) {
	resp, err := h.service.GetRecurringInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListRecurringInvoices godoc
// @Summary List recurring invoices
// @Tags Recurring Invoices
// @Produce json
// @Param filter query types.RecurringInvoiceFilter false "Filter"
// @Success 200 {object} dto.ListRecurringInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /recurring-invoices [get]
func (h *RecurringInvoiceHandler) ListRecurringInvoices(c *gin.Context) {
	filter := types.NewRecurringInvoiceFilter()
	if err := c.ShouldBindQuery(filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if filter.GetLimit() == 0 {
		filter.Limit = lo.ToPtr(types.FILTER_DEFAULT_LIMIT)
	}

	resp, err := h.service.ListRecurringInvoices(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListDueRecurringInvoices godoc
// @Summary List recurring invoices due for generation
// @Tags Recurring Invoices
// @Produce json
// @Param as_of query string false "Evaluation date (YYYY-MM-DD), today when omitted"
// @Success 200 {object} dto.ListRecurringInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /recurring-invoices/due [get]
func (h *RecurringInvoiceHandler) ListDueRecurringInvoices(c *gin.Context) {
	asOf, err := dto.AsOfDate(c.Query("as_of"), h.now())
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.ListDueRecurringInvoices(c.Request.Context(), asOf)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateRecurringInvoice godoc
// @Summary Update a recurring invoice
// @Description Partially update a recurring invoice. Frequency and start date are frozen after the first generation.
// @Tags Recurring Invoices
// @Accept json
// @Produce json
// @Param id path string true "Recurring invoice ID"
// @Param recurring_invoice body dto.UpdateRecurringInvoiceRequest true "Fields to update"
// @Success 200 {object} dto.RecurringInvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /recurring-invoices/{id} [put]
func (h *RecurringInvoiceHandler) UpdateRecurringInvoice(c *gin.Context) {
	var req dto.UpdateRecurringInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateRecurringInvoice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteRecurringInvoice godoc
// @Summary Delete a recurring invoice
// @Tags Recurring Invoices
// @Produce json
// @Param id path string true "Recurring invoice ID"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /recurring-invoices/{id} [delete]
func (h *RecurringInvoiceHandler) DeleteRecurringInvoice(c *gin.Context) {
	if err := h.service.DeleteRecurringInvoice(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "recurring invoice deleted successfully"})
}

// SetRecurringInvoiceStatus godoc
// @Summary Change the status of a recurring invoice
// @Description Pause, resume or cancel a series. Completed and cancelled series reject every change.
// @Tags Recurring Invoices
// @Accept json
// @Produce json
// @Param id path string true "Recurring invoice ID"
// @Param status body dto.UpdateRecurringInvoiceStatusRequest true "Target status"
// @Success 200 {object} dto.RecurringInvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /recurring-invoices/{id}/status [post]
func (h *RecurringInvoiceHandler) SetRecurringInvoiceStatus(c *gin.Context) {
	var req dto.UpdateRecurringInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// FireRecurringInvoice godoc
// @Summary Generate the pending invoice of a recurring invoice
// @Description Generate the invoice due on the next generation date and advance the schedule by one period
// @Tags Recurring Invoices
// @Accept json
// @Produce json
// @Param id path string true "Recurring invoice ID"
// @Param request body dto.FireRecurringInvoiceRequest false "Evaluation date"
// @Success 200 {object} dto.GenerationResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /recurring-invoices/{id}/fire [post]
func (h *RecurringInvoiceHandler) FireRecurringInvoice(c *gin.Context) {
	var req dto.FireRecurringInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	asOf, err := dto.AsOfDate(req.AsOf, h.now())
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.Fire(c.Request.Context(), c.Param("id"), asOf)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MaterializeRecurringInvoice godoc
// @Summary Preview the line items of the next generation
// @Tags Recurring Invoices
// @Produce json
// @Param id path string true "Recurring invoice ID"
// @Success 200 {object} dto.MaterializeResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /recurring-invoices/{id}/materialize [get]
func (h *RecurringInvoiceHandler) MaterializeRecurringInvoice(c *gin.Context) {
	resp, err := h.service.Materialize(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListGeneratedInvoices godoc
// @Summary List invoices generated by a recurring invoice
// @Tags Recurring Invoices
// @Produce json
// @Param id path string true "Recurring invoice ID"
// @Success 200 {object} dto.ListGeneratedInvoicesResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /recurring-invoices/{id}/invoices [get]
func (h *RecurringInvoiceHandler) ListGeneratedInvoices(c *gin.Context) {
	resp, err := h.service.ListGeneratedInvoices(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
