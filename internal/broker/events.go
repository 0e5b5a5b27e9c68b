package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"stocktake-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishProductAdded publishes ProductAdded event
func (ep *EventPublisher) PublishProductAdded(ctx context.Context, event *models.ProductAddedEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPriceUpdated publishes PriceUpdated event
func (ep *EventPublisher) PublishPriceUpdated(ctx context.Context, event *models.PriceUpdatedEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishReportGenerated publishes ReportGenerated event
func (ep *EventPublisher) PublishReportGenerated(ctx context.Context, event *models.ReportGeneratedEvent) error {
	return ep.producer.PublishEvent(ctx, event.Filename, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onPriceUpdated func(context.Context, *models.PriceUpdatedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPriceUpdated registers a handler for PriceUpdated events
func (eh *EventHandler) OnPriceUpdated(handler func(context.Context, *models.PriceUpdatedEvent) error) {
	eh.onPriceUpdated = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypePriceUpdated:
		if eh.onPriceUpdated != nil {
			var event models.PriceUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PriceUpdated event: %w", err)
			}
			return eh.onPriceUpdated(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
