package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/cleaning-api/internal/model"
	quoteService "github.com/jwalitptl/cleaning-api/internal/service/quote"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/validator"
)

type stubService struct {
	quoteService.QuoteServicer
	accepted map[uuid.UUID]bool
	filters  model.QuoteFilters
}

func (s *stubService) CreateQuote(_ context.Context, req *model.CreateQuoteRequest) (*model.Quote, error) {
	return &model.Quote{ID: uuid.New(), CustomerID: req.CustomerID, Status: model.QuoteStatusOpen}, nil
}

func (s *stubService) ListQuotes(_ context.Context, filters model.QuoteFilters) ([]*model.Quote, int, error) {
	s.filters = filters
	return []*model.Quote{}, 0, nil
}

func (s *stubService) AcceptQuote(_ context.Context, id uuid.UUID, req *model.AcceptQuoteRequest) (*model.Booking, error) {
	if s.accepted[id] {
		return nil, apperrors.Conflict("quote can no longer be accepted", nil)
	}
	s.accepted[id] = true
	quoteID := id
	return &model.Booking{ID: uuid.New(), QuoteID: &quoteID, ScheduledAt: req.ScheduledAt, Status: model.BookingStatusPending}, nil
}

func setupRouter(svc quoteService.QuoteServicer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, validator.New()).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateQuote(t *testing.T) {
	r := setupRouter(&stubService{})

	w := do(r, http.MethodPost, "/api/v1/quotes", `{"service_id":2,"square_meters":120,"customer_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/quotes", `{"service_id":2,"square_meters":-5,"customer_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAcceptQuoteTwice(t *testing.T) {
	r := setupRouter(&stubService{accepted: map[uuid.UUID]bool{}})
	id := uuid.New()
	at := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	body := `{"scheduled_at":"` + at + `","address":"Flat 4"}`

	w := do(r, http.MethodPost, "/api/v1/quotes/"+id.String()+"/accept", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/quotes/"+id.String()+"/accept", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListQuotes(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := do(r, http.MethodGet, "/api/v1/quotes?status=open", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.QuoteStatusOpen, svc.filters.Status)
	assert.Equal(t, model.DefaultPageSize, svc.filters.Limit)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/quotes?status=draft", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/quotes?customer_id=42", "").Code)
}
