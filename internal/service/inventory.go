package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stocktake-service/internal/models"
	"stocktake-service/internal/store"
	"stocktake-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryStore is the persistence surface the inventory service needs.
type InventoryStore interface {
	GetProductByScanCode(ctx context.Context, code string) (*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	InsertProduct(ctx context.Context, scanCode, name string) (*models.Product, error)
	AddOrSetQuantity(ctx context.Context, productID int64, delta int) error
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	GetInventory(ctx context.Context) ([]models.InventoryRow, error)
	GetPriceChanges(ctx context.Context, productID int64) ([]models.PriceChange, error)
}

// CatalogSearcher resolves unknown scan codes against the remote catalog.
type CatalogSearcher interface {
	Lookup(ctx context.Context, scanCode string) (string, bool)
}

// LookupCache caches remote lookup results per scan code.
type LookupCache interface {
	CacheLookup(ctx context.Context, scanCode, name string, ttl time.Duration) error
	GetCachedLookup(ctx context.Context, scanCode string) (string, bool, error)
}

// ProductPublisher publishes product lifecycle events.
type ProductPublisher interface {
	PublishProductAdded(ctx context.Context, event *models.ProductAddedEvent) error
}

// InventoryService handles the scan/count workflow: barcode checks,
// product registration and additive quantity updates.
type InventoryService struct {
	store     InventoryStore
	catalog   CatalogSearcher
	cache     LookupCache
	publisher ProductPublisher
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	st InventoryStore,
	catalog CatalogSearcher,
	cache LookupCache,
	publisher ProductPublisher,
	cacheTTL time.Duration,
) *InventoryService {
	return &InventoryService{
		store:     st,
		catalog:   catalog,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		logger:    util.GetLogger(),
	}
}

// BarcodeCheckResult is the outcome of a barcode check. On a local miss
// Name carries the remote lookup suggestion, empty when the remote
// catalog had nothing either.
type BarcodeCheckResult struct {
	Exists    bool   `json:"exists"`
	ProductID int64  `json:"product_id,omitempty"`
	Name      string `json:"name,omitempty"`
}

// CheckBarcode resolves a scan code locally, falling back to the remote
// catalog on a miss. Remote failure never fails the check.
func (s *InventoryService) CheckBarcode(ctx context.Context, scanCode string) (*BarcodeCheckResult, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.CheckBarcode")
	defer span.End()

	product, err := s.store.GetProductByScanCode(ctx, scanCode)
	if err == nil {
		util.BarcodeChecksTotal.WithLabelValues("hit").Inc()
		return &BarcodeCheckResult{
			Exists:    true,
			ProductID: product.ID,
			Name:      product.Name,
		}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check scan code: %w", err)
	}

	util.BarcodeChecksTotal.WithLabelValues("miss").Inc()

	if name, cached, cacheErr := s.cache.GetCachedLookup(ctx, scanCode); cacheErr != nil {
		s.logger.Warn("Lookup cache read failed", zap.Error(cacheErr))
	} else if cached {
		return &BarcodeCheckResult{Exists: false, Name: name}, nil
	}

	name, ok := s.catalog.Lookup(ctx, scanCode)
	if !ok {
		return &BarcodeCheckResult{Exists: false}, nil
	}

	if err := s.cache.CacheLookup(ctx, scanCode, name, s.cacheTTL); err != nil {
		s.logger.Warn("Lookup cache write failed", zap.Error(err))
	}

	return &BarcodeCheckResult{Exists: false, Name: name}, nil
}

// AddProduct registers a newly scanned product. The first scan counts as
// one unit, so the stock row starts at quantity 1.
func (s *InventoryService) AddProduct(ctx context.Context, scanCode, name string) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.AddProduct")
	defer span.End()

	product, err := s.store.InsertProduct(ctx, scanCode, name)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddOrSetQuantity(ctx, product.ID, 1); err != nil {
		return nil, fmt.Errorf("failed to initialize stock count: %w", err)
	}

	util.ProductsAddedTotal.Inc()
	s.logger.Info("Product added",
		zap.Int64("product_id", product.ID),
		zap.String("scan_code", scanCode))

	event := &models.ProductAddedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProductAdded,
			Timestamp: time.Now(),
		},
		ProductID: product.ID,
		ScanCode:  scanCode,
		Name:      name,
	}
	if err := s.publisher.PublishProductAdded(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProductAdded event", zap.Error(err))
	}

	return product, nil
}

// AddQuantity adds delta units to a product's count
func (s *InventoryService) AddQuantity(ctx context.Context, productID int64, delta int) error {
	ctx, span := util.StartSpan(ctx, "InventoryService.AddQuantity")
	defer span.End()

	if delta < 1 {
		return fmt.Errorf("delta must be positive, got %d", delta)
	}

	if _, err := s.store.GetProductByID(ctx, productID); err != nil {
		return err
	}

	return s.store.AddOrSetQuantity(ctx, productID, delta)
}

// GetInventory retrieves the full inventory listing
func (s *InventoryService) GetInventory(ctx context.Context) ([]models.InventoryRow, error) {
	return s.store.GetInventory(ctx)
}

// GetProducts retrieves the local catalog
func (s *InventoryService) GetProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.GetAllProducts(ctx)
}

// GetPriceHistory retrieves the recorded price drift for a product
func (s *InventoryService) GetPriceHistory(ctx context.Context, productID int64) ([]models.PriceChange, error) {
	if _, err := s.store.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.GetPriceChanges(ctx, productID)
}
