package loyalty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/cleaning-api/internal/model"
	loyaltyService "github.com/jwalitptl/cleaning-api/internal/service/loyalty"
)

type stubService struct {
	loyaltyService.LoyaltyServicer
}

func (stubService) Summary(_ context.Context, customerID uuid.UUID) (*model.LoyaltySummary, error) {
	return &model.LoyaltySummary{
		CustomerID: customerID,
		Balance:    297,
		History:    []model.LoyaltyEntry{{CustomerID: customerID, Points: 297, Reason: "booking_completed"}},
	}, nil
}

func TestGetSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(stubService{}).RegisterRoutes(r.Group("/api/v1"))
	customer := uuid.New()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/"+customer.String()+"/loyalty", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data model.LoyaltySummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(297), resp.Data.Balance)
	assert.Equal(t, customer, resp.Data.CustomerID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/nope/loyalty", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
