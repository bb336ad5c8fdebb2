package api

import (
	"net/http"
	"strconv"
	"time"

	"storefront-service/config"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog  *service.CatalogService
	checkout *service.CheckoutService
	payments *service.PaymentService
	cfg      *config.Config
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	checkout *service.CheckoutService,
	payments *service.PaymentService,
	cfg *config.Config,
) *Handler {
	return &Handler{
		catalog:  catalog,
		checkout: checkout,
		payments: payments,
		cfg:      cfg,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.HandleMethodNotAllowed = true

	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(prometheusMiddleware())

	router.NoMethod(methodNotAllowed)

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	for _, path := range []string{"/catalog", "/square-catalog"} {
		api.GET(path, h.getCatalog)
		api.OPTIONS(path, preflight)
	}
	for _, path := range []string{"/checkout", "/create-checkout"} {
		api.POST(path, h.createCheckout)
		api.OPTIONS(path, preflight)
	}
	for _, path := range []string{"/payments", "/process-payment"} {
		api.POST(path, h.processPayment)
		api.OPTIONS(path, preflight)
	}
}

// NewRouter builds a gin engine with the storefront routes installed.
func NewRouter(h *Handler, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if env != "production" {
		router.Use(gin.Logger())
	}
	h.SetupRoutes(router)
	return router
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports whether provider credentials are present.
func (h *Handler) readinessCheck(c *gin.Context) {
	if err := h.cfg.Square.Validate(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_configured",
			"error":  err.Error(),
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// getCatalog handles GET /api/catalog[?detail=full][&debug=true][&refresh=true]
func (h *Handler) getCatalog(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	opts := service.CatalogOptions{
		FullDetail: c.Query("detail") == "full",
		Refresh:    refresh,
	}

	result, err := h.catalog.GetCatalog(c.Request.Context(), opts)
	if err != nil {
		h.respondError(c, err, "Failed to fetch products from Square")
		return
	}

	resp := catalogResponse{
		Success:    true,
		Products:   result.Products,
		TotalItems: len(result.Products),
	}

	if debug, _ := strconv.ParseBool(c.Query("debug")); debug {
		filtered := []filteredItem{}
		for _, p := range result.FilteredOut() {
			filtered = append(filtered, filteredItem{Name: p.Name, Reason: "deleted or not available online"})
		}
		resp.Debug = &catalogDebug{
			Environment:   h.cfg.Square.Environment,
			IsProduction:  h.cfg.Square.IsProduction(),
			LocationID:    h.cfg.Square.LocationID,
			TotalObjects:  result.TotalObjects,
			RawItemsCount: len(result.RawItems),
			RawItems:      result.RawItems,
			FilteredOut:   filtered,
			FromCache:     result.FromCache,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// createCheckout handles POST /api/checkout
func (h *Handler) createCheckout(c *gin.Context) {
	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.checkout.CreateCheckout(c.Request.Context(), &service.CheckoutRequest{
		Items:           body.Items,
		FulfillmentType: body.FulfillmentType,
		Email:           body.Email,
		Note:            body.Note,
		Origin:          c.GetHeader("Origin"),
	})
	if err != nil {
		h.respondError(c, err, "Failed to create checkout")
		return
	}

	c.JSON(http.StatusOK, checkoutResponse{
		Success:     true,
		CheckoutURL: result.CheckoutURL,
		OrderID:     result.OrderID,
		Total:       result.Total,
		Mode:        result.Mode,
	})
}

// processPayment handles POST /api/payments
func (h *Handler) processPayment(c *gin.Context) {
	var body paymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.payments.ProcessPayment(c.Request.Context(), &service.PaymentRequest{
		SourceID: body.SourceID,
		Amount:   int64(body.Amount),
		ItemName: body.ItemName,
		Currency: body.Currency,
	})
	if err != nil {
		h.respondError(c, err, "Payment processing failed. Please try again.")
		return
	}

	c.JSON(http.StatusOK, paymentResponse{
		Success: true,
		Payment: paymentPayload{
			ID:         result.ID,
			Status:     result.Status,
			Amount:     result.Amount,
			Currency:   result.Currency,
			ReceiptURL: result.ReceiptURL,
		},
	})
}
