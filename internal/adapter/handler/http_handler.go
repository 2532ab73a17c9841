package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rmarch/car-config/internal/auth"
	"github.com/rmarch/car-config/internal/core/domain"
	"github.com/rmarch/car-config/internal/core/service"
	"github.com/rmarch/car-config/internal/pkg/logger"
	"github.com/rmarch/car-config/internal/token"
)

// HTTPHandler exposes the configurator's REST surface.
type HTTPHandler struct {
	svc          *service.ConfigService
	auth         *auth.Service
	capabilities *token.Issuer
	log          *logger.Logger
}

func NewHTTPHandler(svc *service.ConfigService, authService *auth.Service, capabilities *token.Issuer, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:          svc,
		auth:         authService,
		capabilities: capabilities,
		log:          log.With("handler", "http"),
	}
}

// Register wires every route. Catalog reads stay open; everything touching
// a configuration requires a session.
func (h *HTTPHandler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/models", h.Models)
	api.GET("/accessories", h.Accessories)
	api.POST("/sessions", h.Login)

	protected := api.Group("/")
	protected.Use(RequireSession(h.auth))
	protected.GET("/sessions/current", h.CurrentSession)
	protected.GET("/configuration", h.GetConfiguration)
	protected.POST("/configuration", h.CreateConfiguration)
	protected.POST("/configuration/modifications", h.EditConfiguration)
	protected.POST("/configuration/validate", h.ValidateChange)
	protected.DELETE("/configuration", h.DeleteConfiguration)
	protected.GET("/auth-token", h.CapabilityToken)
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type modelResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Power          int     `json:"power"`
	Price          float64 `json:"price"`
	MaxAccessories int     `json:"maxAccessories"`
}

func (h *HTTPHandler) Models(c *gin.Context) {
	models := h.svc.Catalog().Models()
	out := make([]modelResponse, 0, len(models))
	for _, m := range models {
		out = append(out, modelResponse{m.ID, m.Name, m.Power, m.Price, m.MaxAccessories})
	}
	c.JSON(http.StatusOK, out)
}

type accessoryResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Capacity    int      `json:"capacity"`
	Mandatory   string   `json:"mandatory,omitempty"`
	Incompat    []string `json:"incompat"`
}

// Accessories serves the catalog, or the remaining availability per
// accessory when called with ?filter=available.
func (h *HTTPHandler) Accessories(c *gin.Context) {
	if c.Query("filter") == "available" {
		avail, err := h.svc.Availability(c.Request.Context())
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, avail)
		return
	}

	cat := h.svc.Catalog()
	accessories := cat.Accessories()
	out := make([]accessoryResponse, 0, len(accessories))
	for _, a := range accessories {
		incompat := cat.IncompatibleWith(a.ID)
		if incompat == nil {
			incompat = []string{}
		}
		out = append(out, accessoryResponse{a.ID, a.Name, a.Description, a.Price, a.Capacity, a.Mandatory, incompat})
	}
	c.JSON(http.StatusOK, out)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token         string                 `json:"token,omitempty"`
	Username      string                 `json:"username"`
	Qualified     bool                   `json:"qualified"`
	Configuration *configurationResponse `json:"configuration,omitempty"`
}

type configurationResponse struct {
	Model       string   `json:"model"`
	Accessories []string `json:"accessories"`
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"username and password must be non-empty strings"}})
		return
	}

	tok, user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"errors": []string{"incorrect username or password"}})
			return
		}
		h.writeError(c, err)
		return
	}

	resp := sessionResponse{Token: tok, Username: user.Username, Qualified: user.Qualified}
	cfg, err := h.svc.Configuration(c.Request.Context(), user.ID)
	switch {
	case err != nil:
		// The session is still usable without the hydrated configuration;
		// degrade rather than fail the login.
		h.log.Warn("configuration lookup failed during login", "username", user.Username, "error", err)
	case cfg != nil:
		resp.Configuration = toConfigurationResponse(cfg)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) CurrentSession(c *gin.Context) {
	user := currentUser(c)
	resp := sessionResponse{Username: user.Username, Qualified: user.Qualified}

	cfg, err := h.svc.Configuration(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if cfg != nil {
		resp.Configuration = toConfigurationResponse(cfg)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) GetConfiguration(c *gin.Context) {
	user := currentUser(c)
	cfg, err := h.svc.Configuration(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": []string{"no car configuration present"}})
		return
	}
	c.JSON(http.StatusOK, toConfigurationResponse(cfg))
}

type createRequest struct {
	RequestID   string   `json:"request_id"`
	Model       string   `json:"model" binding:"required"`
	Accessories []string `json:"accessories"`
}

func (h *HTTPHandler) CreateConfiguration(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"no car configuration model specified"}})
		return
	}

	user := currentUser(c)
	if err := h.svc.Create(c.Request.Context(), user.ID, req.RequestID, req.Model, req.Accessories); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type editRequest struct {
	RequestID string   `json:"request_id"`
	Add       []string `json:"add"`
	Remove    []string `json:"remove"`
}

func (h *HTTPHandler) EditConfiguration(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"add and remove must be lists of accessory ids"}})
		return
	}

	user := currentUser(c)
	if err := h.svc.Edit(c.Request.Context(), user.ID, req.RequestID, req.Add, req.Remove); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type validateRequest struct {
	Accessory string `json:"accessory" binding:"required"`
	Removal   bool   `json:"removal"`
}

// ValidateChange is the optimistic pre-submit check: the identical engine
// the commit runs, against the advisory snapshot, with no write.
func (h *HTTPHandler) ValidateChange(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"no accessory specified"}})
		return
	}

	user := currentUser(c)
	violations, err := h.svc.Advise(c.Request.Context(), user.ID, req.Accessory, req.Removal)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": len(violations) == 0, "violations": violations})
}

func (h *HTTPHandler) DeleteConfiguration(c *gin.Context) {
	user := currentUser(c)
	if err := h.svc.Delete(c.Request.Context(), user.ID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// CapabilityToken reissues the short-lived estimation token carrying only
// the subject identity and the qualification flag, read fresh from the
// store rather than from the session.
func (h *HTTPHandler) CapabilityToken(c *gin.Context) {
	user := currentUser(c)
	tok, err := h.capabilities.Sign(user.ID, user.Qualified)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok})
}

func toConfigurationResponse(cfg *domain.Configuration) *configurationResponse {
	accessories := cfg.Accessories
	if accessories == nil {
		accessories = []string{}
	}
	return &configurationResponse{Model: cfg.ModelID, Accessories: accessories}
}

// writeError maps the error taxonomy onto statuses: violations and
// conflicts are unprocessable but recoverable, integrity faults are
// internal and never worded as validation messages.
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		reasons := make([]string, len(vErr.Violations))
		for i, v := range vErr.Violations {
			reasons[i] = v.Reason
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": reasons})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{"the inventory changed while saving, please retry"}})
	case errors.Is(err, domain.ErrConfigurationExists):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{"car configuration already present"}})
	case errors.Is(err, domain.ErrNoConfiguration):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{"user doesn't currently have a car configuration"}})
	case errors.Is(err, domain.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"errors": []string{"duplicate request"}})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"errors": []string{"authorization error"}})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"errors": []string{"internal error"}})
	}
}
