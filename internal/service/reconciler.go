package service

import (
	"context"
	"fmt"
	"time"

	"stocktake-service/internal/models"
	"stocktake-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const reconcileLockTTL = 10 * time.Second

// PriceSource fetches the authoritative price for a product name.
type PriceSource interface {
	FetchAuthoritativePrice(ctx context.Context, name string) (decimal.Decimal, bool)
}

// PriceStore persists reconciled prices.
type PriceStore interface {
	UpdateProductPriceCAS(ctx context.Context, id int64, price decimal.Decimal, expected decimal.NullDecimal) (bool, error)
}

// LockManager scopes a reconcile to one holder per product.
type LockManager interface {
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// PricePublisher publishes price drift events.
type PricePublisher interface {
	PublishPriceUpdated(ctx context.Context, event *models.PriceUpdatedEvent) error
}

// PriceReconciler compares a matched product's stored price against the
// external source of truth and persists the authoritative value when
// they drift apart.
type PriceReconciler struct {
	store     PriceStore
	source    PriceSource
	locks     LockManager
	publisher PricePublisher
	logger    *zap.Logger
}

// NewPriceReconciler creates a new price reconciler
func NewPriceReconciler(
	st PriceStore,
	source PriceSource,
	locks LockManager,
	publisher PricePublisher,
) *PriceReconciler {
	return &PriceReconciler{
		store:     st,
		source:    source,
		locks:     locks,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Reconcile returns the effective price for an already-matched product.
// With no authoritative data the stored price stands and nothing is
// written. On drift the store is updated with a conditional write keyed
// on the previously stored value; if a concurrent reconcile wins the
// write, the fetched price is still returned and nothing is clobbered.
// Only a store failure propagates as an error.
func (r *PriceReconciler) Reconcile(ctx context.Context, product *models.Product) (decimal.Decimal, error) {
	ctx, span := util.StartSpan(ctx, "PriceReconciler.Reconcile")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ReconcileLatency.Observe(time.Since(start).Seconds())
	}()

	fetched, ok := r.source.FetchAuthoritativePrice(ctx, product.Name)
	if !ok {
		return product.StoredPrice(), nil
	}

	if product.Price.Valid && fetched.Equal(product.Price.Decimal) {
		return fetched, nil
	}

	lockKey := fmt.Sprintf("reconcile:%d", product.ID)
	token := uuid.New().String()
	locked, err := r.locks.AcquireLock(ctx, lockKey, token, reconcileLockTTL)
	if err != nil {
		r.logger.Warn("Reconcile lock unavailable, proceeding unguarded",
			zap.Int64("product_id", product.ID),
			zap.Error(err))
	}
	if locked {
		defer func() {
			if err := r.locks.ReleaseLock(ctx, lockKey, token); err != nil {
				r.logger.Warn("Failed to release reconcile lock", zap.Error(err))
			}
		}()
	}

	updated, err := r.store.UpdateProductPriceCAS(ctx, product.ID, fetched, product.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to persist price for product %d: %w", product.ID, err)
	}

	if !updated {
		r.logger.Warn("Concurrent reconcile won the price write",
			zap.Int64("product_id", product.ID),
			zap.String("fetched", fetched.String()))
		return fetched, nil
	}

	util.PriceDriftTotal.Inc()
	r.logger.Info("Price drift persisted",
		zap.Int64("product_id", product.ID),
		zap.String("old", product.Price.Decimal.String()),
		zap.Bool("had_price", product.Price.Valid),
		zap.String("new", fetched.String()))

	event := &models.PriceUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePriceUpdated,
			Timestamp: time.Now(),
		},
		ProductID: product.ID,
		Name:      product.Name,
		OldPrice:  product.Price,
		NewPrice:  fetched,
	}
	if err := r.publisher.PublishPriceUpdated(ctx, event); err != nil {
		r.logger.Error("Failed to publish PriceUpdated event", zap.Error(err))
	}

	product.Price = decimal.NullDecimal{Decimal: fetched, Valid: true}
	return fetched, nil
}
