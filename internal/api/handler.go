package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stocktake-service/internal/service"
	"stocktake-service/internal/store"
	"stocktake-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	inventory *service.InventoryService
	reports   *service.ReportService
	files     ReportFiles
}

// ReportFiles lists and locates generated workbooks.
type ReportFiles interface {
	ListFiles() ([]string, error)
	Dir() string
}

// NewHandler creates a new HTTP handler
func NewHandler(inventory *service.InventoryService, reports *service.ReportService, files ReportFiles) *Handler {
	return &Handler{
		inventory: inventory,
		reports:   reports,
		files:     files,
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
		v1.GET("/inventory", h.getInventory)
		v1.POST("/barcode/check", h.checkBarcode)
		v1.POST("/products", h.addProduct)
		v1.GET("/products", h.getProducts)
		v1.GET("/products/:id/price-history", h.getPriceHistory)
		v1.POST("/quantity", h.addQuantity)
		v1.POST("/reports", h.generateReport)
		v1.GET("/reports", h.listReports)
		v1.GET("/reports/:filename", h.downloadReport)
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

// getInventory handles the full inventory listing
func (h *Handler) getInventory(c *gin.Context) {
	rows, err := h.inventory.GetInventory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get inventory",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inventory": rows})
}

type checkBarcodeRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

// checkBarcode resolves a scan code, falling back to the remote catalog
func (h *Handler) checkBarcode(c *gin.Context) {
	var req checkBarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.inventory.CheckBarcode(c.Request.Context(), req.Barcode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to check barcode",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

type addProductRequest struct {
	Barcode string `json:"barcode" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

// addProduct registers a newly scanned product
func (h *Handler) addProduct(c *gin.Context) {
	var req addProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.inventory.AddProduct(c.Request.Context(), req.Barcode, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to add product",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "added", "product": product})
}

// getProducts handles the local catalog listing
func (h *Handler) getProducts(c *gin.Context) {
	products, err := h.inventory.GetProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getPriceHistory returns the recorded price drift for a product
func (h *Handler) getPriceHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	changes, err := h.inventory.GetPriceHistory(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Failed to get price history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"changes": changes})
}

type addQuantityRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// addQuantity adds counted units to a product
func (h *Handler) addQuantity(c *gin.Context) {
	var req addQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.inventory.AddQuantity(c.Request.Context(), req.ProductID, req.Quantity); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Failed to add quantity",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "quantity added"})
}

// generateReport builds the ledger and writes the stocktake workbook
func (h *Handler) generateReport(c *gin.Context) {
	result, err := h.reports.Generate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate report",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// listReports lists generated workbooks
func (h *Handler) listReports(c *gin.Context) {
	files, err := h.files.ListFiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list reports",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// downloadReport serves a generated workbook as an attachment
func (h *Handler) downloadReport(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	if !strings.HasSuffix(filename, ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report filename"})
		return
	}

	c.FileAttachment(filepath.Join(h.files.Dir(), filename), filename)
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
