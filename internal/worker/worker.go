package worker

import (
	"context"
	"fmt"
	"log"

	"stocktake-service/internal/broker"
	"stocktake-service/internal/models"
	"stocktake-service/internal/store"
)

// AuditWorker consumes PriceUpdated events and appends them to the
// price drift history.
type AuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, st *store.Store) *AuditWorker {
	w := &AuditWorker{
		consumer: consumer,
		store:    st,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPriceUpdated(w.handlePriceUpdated)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	log.Println("Starting price audit worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	log.Println("Stopping price audit worker...")
	return w.consumer.Close()
}

// handlePriceUpdated records one drift, once. Redelivered events are
// skipped via the processed-events table.
func (w *AuditWorker) handlePriceUpdated(ctx context.Context, event *models.PriceUpdatedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		log.Printf("Event already processed: %s", event.EventID)
		return nil
	}

	if err := w.store.RecordPriceChange(ctx, event.ProductID, event.OldPrice, event.NewPrice); err != nil {
		return fmt.Errorf("failed to record price change: %w", err)
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		log.Printf("Failed to mark event processed: %v", err)
	}

	log.Printf("Recorded price change for product %d: %s", event.ProductID, event.NewPrice.String())
	return nil
}
