package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/cleaning-api/internal/model"
	catalogService "github.com/jwalitptl/cleaning-api/internal/service/catalog"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/validator"
)

// stubService implements only what the tests call; anything else panics via
// the nil embedded interface.
type stubService struct {
	catalogService.CatalogServicer
	created     *model.CreateServiceRequest
	activeOnly  *bool
	deactivated int64
}

func (s *stubService) CreateService(_ context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	s.created = req
	return &model.Service{ID: 7, Name: req.Name, PricingType: req.PricingType, Currency: "EGP", IsActive: true}, nil
}

func (s *stubService) ListServices(_ context.Context, activeOnly bool) ([]*model.Service, error) {
	s.activeOnly = &activeOnly
	return []*model.Service{{ID: 1, Name: "Deep Cleaning"}}, nil
}

func (s *stubService) GetServiceDetail(_ context.Context, id int64) (*catalogService.ServiceDetail, error) {
	if id != 1 {
		return nil, apperrors.NotFound("service", nil)
	}
	return &catalogService.ServiceDetail{
		Service: &model.Service{ID: 1, Name: "Service Apartments", PricingType: "BEDROOM_BASED"},
		Tiers:   []*model.PricingTier{{ServiceID: 1, Bedrooms: 2, Price: 200000}},
	}, nil
}

func (s *stubService) UpsertTier(_ context.Context, serviceID int64, req *model.UpsertTierRequest) (*model.PricingTier, error) {
	if serviceID == 2 {
		return nil, apperrors.BadRequest("service 2 is SQM_BASED, not BEDROOM_BASED", nil)
	}
	return &model.PricingTier{ServiceID: serviceID, Bedrooms: req.Bedrooms, Price: req.Price}, nil
}

func (s *stubService) SetItemMinimum(_ context.Context, serviceID int64, req *model.SetItemMinimumRequest) ([]*model.PricingItem, error) {
	return []*model.PricingItem{
		{ServiceID: serviceID, Name: "Chair", Price: 15000, MinimumCharge: req.MinimumCharge},
		{ServiceID: serviceID, Name: "Sofa", Price: 30000, MinimumCharge: req.MinimumCharge},
	}, nil
}

func (s *stubService) DeactivateSpecialOffer(_ context.Context, id int64) error {
	s.deactivated = id
	return nil
}

func setupRouter(svc catalogService.CatalogServicer) *gin.Engine {
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

func TestCreateService(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := do(r, http.MethodPost, "/api/v1/services", `{"name":"Deep Cleaning","pricing_type":"SQM_BASED"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, svc.created)
	assert.Equal(t, "SQM_BASED", svc.created.PricingType)

	w = do(r, http.MethodPost, "/api/v1/services", `{"name":"Hourly","pricing_type":"HOURLY"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "pricing_type")
}

func TestListServicesActiveFilter(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := do(r, http.MethodGet, "/api/v1/services", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.activeOnly)
	assert.True(t, *svc.activeOnly)

	w = do(r, http.MethodGet, "/api/v1/services?active=false", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, *svc.activeOnly)

	w = do(r, http.MethodGet, "/api/v1/services?active=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetService(t *testing.T) {
	r := setupRouter(&stubService{})

	w := do(r, http.MethodGet, "/api/v1/services/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Name  string              `json:"name"`
			Tiers []model.PricingTier `json:"tiers"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Service Apartments", resp.Data.Name)
	assert.Len(t, resp.Data.Tiers, 1)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/services/5", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/services/abc", "").Code)
}

func TestUpsertTier(t *testing.T) {
	r := setupRouter(&stubService{})

	w := do(r, http.MethodPost, "/api/v1/services/1/tiers", `{"bedrooms":3,"price":250000}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/v1/services/1/tiers", `{"bedrooms":-1,"price":250000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/services/2/tiers", `{"bedrooms":3,"price":250000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "SQM_BASED")
}

func TestDeactivateSpecialOffer(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := do(r, http.MethodDelete, "/api/v1/offers/4", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), svc.deactivated)
}

func TestSetItemMinimum(t *testing.T) {
	r := setupRouter(&stubService{})

	w := do(r, http.MethodPut, "/api/v1/services/3/items/minimum", `{"minimum_charge":60000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data []model.PricingItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(60000), resp.Data[1].MinimumCharge)

	w = do(r, http.MethodPut, "/api/v1/services/3/items/minimum", `{"minimum_charge":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
