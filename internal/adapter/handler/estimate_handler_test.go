package handler

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmarch/car-config/internal/estimate"
	"github.com/rmarch/car-config/internal/pkg/logger"
	"github.com/rmarch/car-config/internal/token"
)

const testSecret = "test-secret"

func newEstimateRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewEstimateHandler(
		token.NewIssuer(testSecret, time.Minute),
		estimate.New(rand.New(rand.NewSource(1))),
		logger.NewNop(),
	)
	r := gin.New()
	h.Register(r)
	return r
}

func postEstimate(r *gin.Engine, authHeader, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEstimate_ValidToken(t *testing.T) {
	r := newEstimateRouter(t)
	signed, err := token.NewIssuer(testSecret, time.Minute).Sign(1, false)
	require.NoError(t, err)

	body := `{"model":"city","accessories":[{"name":"Radio"},{"name":"Bluetooth"}]}`
	w := postEstimate(r, "Bearer "+signed, body)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ManufacturingTime int `json:"manufacturingTime"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// Base weight 42 plus the bounded offset.
	assert.GreaterOrEqual(t, resp.ManufacturingTime, 43)
	assert.LessOrEqual(t, resp.ManufacturingTime, 132)
}

func TestEstimate_MissingToken(t *testing.T) {
	w := postEstimate(newEstimateRouter(t), "", `{"model":"city"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authorization error")
}

func TestEstimate_ExpiredToken(t *testing.T) {
	signed, err := token.NewIssuer(testSecret, -time.Minute).Sign(1, false)
	require.NoError(t, err)

	w := postEstimate(newEstimateRouter(t), "Bearer "+signed, `{"model":"city"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEstimate_ForeignSignature(t *testing.T) {
	signed, err := token.NewIssuer("other-secret", time.Minute).Sign(1, false)
	require.NoError(t, err)

	w := postEstimate(newEstimateRouter(t), "Bearer "+signed, `{"model":"city"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEstimate_MalformedBody(t *testing.T) {
	signed, err := token.NewIssuer(testSecret, time.Minute).Sign(1, false)
	require.NoError(t, err)

	w := postEstimate(newEstimateRouter(t), "Bearer "+signed, `{"accessories":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
