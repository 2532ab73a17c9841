package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rmarch/car-config/internal/estimate"
	"github.com/rmarch/car-config/internal/pkg/logger"
	"github.com/rmarch/car-config/internal/token"
)

const claimsContextKey = "capability-claims"

// EstimateHandler is the whole surface of the secondary estimation
// service. It trusts nothing but a verifiable capability token.
type EstimateHandler struct {
	verifier  *token.Issuer
	estimator *estimate.Estimator
	log       *logger.Logger
}

func NewEstimateHandler(verifier *token.Issuer, estimator *estimate.Estimator, log *logger.Logger) *EstimateHandler {
	return &EstimateHandler{
		verifier:  verifier,
		estimator: estimator,
		log:       log.With("handler", "estimate"),
	}
}

func (h *EstimateHandler) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(h.RequireCapability())
	api.POST("/estimate", h.Estimate)
}

// RequireCapability verifies the token signature and expiry. Anything
// short of a valid token fails closed with an authorization fault.
func (h *EstimateHandler) RequireCapability() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": []string{"authorization error"}})
			return
		}
		claims, err := h.verifier.Verify(tokenString)
		if err != nil {
			h.log.Debug("capability rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": []string{"authorization error"}})
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

type estimateRequest struct {
	Model       string `json:"model" binding:"required"`
	Accessories []struct {
		Name string `json:"name" binding:"required"`
	} `json:"accessories"`
}

// Estimate computes the manufacturing-time figure for a saved
// configuration. The qualification flag comes from the verified token, so
// the client cannot claim it; it only scales the number, it gates nothing.
func (h *EstimateHandler) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"invalid configuration payload"}})
		return
	}

	v, _ := c.Get(claimsContextKey)
	claims, ok := v.(*token.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"errors": []string{"authorization error"}})
		return
	}

	names := make([]string, len(req.Accessories))
	for i, a := range req.Accessories {
		names[i] = a.Name
	}
	c.JSON(http.StatusOK, gin.H{
		"manufacturingTime": h.estimator.ManufacturingTime(names, claims.Qualified),
	})
}
