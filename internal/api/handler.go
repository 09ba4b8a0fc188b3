package api

import (
	"net/http"
	"strconv"
	"time"

	"bookstore-service/internal/service"
	"bookstore-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService *service.OrderService
}

// NewHandler creates a new HTTP handler
func NewHandler(orderService *service.OrderService) *Handler {
	return &Handler{
		orderService: orderService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.placeOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/users/:id/orders", h.getUserOrders)
		v1.GET("/books", h.listBooks)
		v1.GET("/books/:id", h.getBook)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// placeOrder handles order placement
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	summary, err := h.orderService.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		h.renderPlacementError(c, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// renderPlacementError maps the engine's closed error taxonomy to HTTP
// status codes. The engine itself never decides status codes.
func (h *Handler) renderPlacementError(c *gin.Context, err error) {
	placementErr, ok := service.AsPlacementError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		return
	}

	body := gin.H{
		"code":  placementErr.Code,
		"error": placementErr.Message,
	}

	var status int
	switch placementErr.Code {
	case service.CodeValidation:
		status = http.StatusBadRequest
	case service.CodeUserNotFound, service.CodeBookNotFound:
		status = http.StatusNotFound
	case service.CodeInsufficientStock:
		status = http.StatusConflict
		body["book_title"] = placementErr.BookTitle
		body["available"] = placementErr.Available
		body["requested"] = placementErr.Requested
	default:
		status = http.StatusInternalServerError
	}

	c.JSON(status, body)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID := c.Param("id")

	order, items, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Order not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// getUserOrders handles listing a user's orders
func (h *Handler) getUserOrders(c *gin.Context) {
	userID := c.Param("id")

	orders, err := h.orderService.GetUserOrders(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// listBooks handles listing the catalog
func (h *Handler) listBooks(c *gin.Context) {
	books, err := h.orderService.ListBooks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list books",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": books})
}

// getBook handles get book by ID
func (h *Handler) getBook(c *gin.Context) {
	bookID := c.Param("id")

	book, err := h.orderService.GetBook(c.Request.Context(), bookID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Book not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"book": book})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
