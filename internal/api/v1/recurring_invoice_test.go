package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexprice/recurring/internal/api/dto"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/rest/middleware"
	"github.com/flexprice/recurring/internal/service"
	"github.com/flexprice/recurring/internal/testutil"
	"github.com/flexprice/recurring/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type RecurringInvoiceHandlerSuite struct {
	testutil.BaseServiceTestSuite
	router *gin.Engine
}

func TestRecurringInvoiceHandler(t *testing.T) {
	suite.Run(t, new(RecurringInvoiceHandlerSuite))
}

func (s *RecurringInvoiceHandlerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	gin.SetMode(gin.TestMode)

	stores := s.GetStores()
	collaborators := s.GetCollaborators()
	params := service.NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetCache(),
		s.GetSentry(),
		stores.RecurringInvoiceRepo,
		stores.GeneratedInvoiceRepo,
		collaborators.Catalog,
		collaborators.InvoiceCreator,
		collaborators.ReminderSender,
		s.GetWebhookPublisher(),
	)

	handler := NewRecurringInvoiceHandler(service.NewRecurringInvoiceService(params), s.GetLogger())
	handler.now = func() time.Time { return time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC) }

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware, middleware.ErrorHandler(s.GetLogger()))
	group := router.Group("/v1/recurring-invoices")
	group.POST("", handler.CreateRecurringInvoice)
	group.GET("", handler.ListRecurringInvoices)
	group.GET("/due", handler.ListDueRecurringInvoices)
	group.GET("/:id", handler.GetRecurringInvoice)
	group.PUT("/:id", handler.UpdateRecurringInvoice)
	group.DELETE("/:id", handler.DeleteRecurringInvoice)
	group.POST("/:id/status", handler.SetRecurringInvoiceStatus)
	group.POST("/:id/fire", handler.FireRecurringInvoice)
	group.GET("/:id/materialize", handler.MaterializeRecurringInvoice)
	group.GET("/:id/invoices", handler.ListGeneratedInvoices)
	s.router = router
}

func (s *RecurringInvoiceHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](s *RecurringInvoiceHandlerSuite, rec *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createBody() map[string]any {
	return map[string]any{
		"client_id":    "client_1",
		"frequency":    "monthly",
		"start_date":   "2024-01-31",
		"day_of_month": 31,
		"items": []map[string]any{
			{"description": "Service", "quantity": "2", "unit_price": "50.00"},
		},
	}
}

func (s *RecurringInvoiceHandlerSuite) createSeries() dto.RecurringInvoiceResponse {
	rec := s.do(http.MethodPost, "/v1/recurring-invoices", createBody())
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.RecurringInvoiceResponse](s, rec)
}

func (s *RecurringInvoiceHandlerSuite) TestCreate() {
	created := s.createSeries()
	s.Equal("2024-01-31", created.NextGenerationDate)
	s.Equal(types.RecurringSeriesStatusActive, created.Status)
	s.NotEmpty(created.ID)
}

func (s *RecurringInvoiceHandlerSuite) TestCreateValidationError() {
	body := createBody()
	body["day_of_month"] = 40

	rec := s.do(http.MethodPost, "/v1/recurring-invoices", body)
	s.Equal(http.StatusBadRequest, rec.Code)

	resp := decode[ierr.ErrorResponse](s, rec)
	s.False(resp.Success)
	s.Equal(ierr.ErrCodeValidation, resp.Error.InternalError)
	s.NotEmpty(resp.Error.Display)
	s.Equal(rec.Header().Get(types.HeaderRequestID), resp.RequestID)
	s.NotEmpty(resp.RequestID)
}

func (s *RecurringInvoiceHandlerSuite) TestCreateMalformedJSON() {
	req := httptest.NewRequest(http.MethodPost, "/v1/recurring-invoices", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RecurringInvoiceHandlerSuite) TestGetNotFound() {
	rec := s.do(http.MethodGet, "/v1/recurring-invoices/rinv_missing", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RecurringInvoiceHandlerSuite) TestFireUsesTodayByDefault() {
	created := s.createSeries()

	rec := s.do(http.MethodPost, "/v1/recurring-invoices/"+created.ID+"/fire", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[dto.GenerationResponse](s, rec)
	s.Equal("2024-01-31", resp.GenerationDate)
	s.Equal("100.00", resp.Total)
	s.Equal("2024-02-29", resp.RecurringInvoice.NextGenerationDate)

	// not due anymore on the same day
	rec = s.do(http.MethodPost, "/v1/recurring-invoices/"+created.ID+"/fire", nil)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(ierr.ErrCodeNotDue, decode[ierr.ErrorResponse](s, rec).Error.InternalError)

	rec = s.do(http.MethodGet, "/v1/recurring-invoices/"+created.ID+"/invoices", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decode[dto.ListGeneratedInvoicesResponse](s, rec).Items, 1)
}

func (s *RecurringInvoiceHandlerSuite) TestFireWithExplicitDate() {
	created := s.createSeries()

	rec := s.do(http.MethodPost, "/v1/recurring-invoices/"+created.ID+"/fire",
		map[string]string{"as_of": "2024-01-15"})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/v1/recurring-invoices/"+created.ID+"/fire",
		map[string]string{"as_of": "15-01-2024"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RecurringInvoiceHandlerSuite) TestStatusTransitions() {
	created := s.createSeries()
	path := "/v1/recurring-invoices/" + created.ID + "/status"

	rec := s.do(http.MethodPost, path, map[string]string{"status": "paused"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(types.RecurringSeriesStatusPaused, decode[dto.RecurringInvoiceResponse](s, rec).Status)

	rec = s.do(http.MethodPost, path, map[string]string{"status": "completed"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, path, map[string]string{"status": "bogus"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, path, map[string]string{"status": "cancelled"})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, path, map[string]string{"status": "active"})
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(ierr.ErrCodeTerminalState, decode[ierr.ErrorResponse](s, rec).Error.InternalError)
}

func (s *RecurringInvoiceHandlerSuite) TestUpdateAndDelete() {
	created := s.createSeries()
	path := "/v1/recurring-invoices/" + created.ID

	rec := s.do(http.MethodPut, path, map[string]any{"name": "Renamed", "day_of_month": 15})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[dto.RecurringInvoiceResponse](s, rec)
	s.Equal("Renamed", updated.Name)
	s.Equal("2024-02-15", updated.NextGenerationDate)

	rec = s.do(http.MethodDelete, path, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, path, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RecurringInvoiceHandlerSuite) TestListAndDue() {
	s.createSeries()
	later := createBody()
	later["start_date"] = "2024-03-01"
	later["day_of_month"] = 1
	rec := s.do(http.MethodPost, "/v1/recurring-invoices", later)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/v1/recurring-invoices?limit=10", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decode[dto.ListRecurringInvoicesResponse](s, rec).Items, 2)

	rec = s.do(http.MethodGet, "/v1/recurring-invoices/due?as_of=2024-02-01", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decode[dto.ListRecurringInvoicesResponse](s, rec).Items, 1)

	rec = s.do(http.MethodGet, "/v1/recurring-invoices/due?as_of=yesterday", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RecurringInvoiceHandlerSuite) TestMaterialize() {
	created := s.createSeries()

	rec := s.do(http.MethodGet, "/v1/recurring-invoices/"+created.ID+"/materialize", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	resp := decode[dto.MaterializeResponse](s, rec)
	s.Equal("100.00", resp.Total)
	s.Require().Len(resp.LineItems, 1)
	s.Equal("50.00", resp.LineItems[0].UnitPrice)
}
