package worker

import (
	"context"

	"bookstore-service/internal/broker"
	"bookstore-service/internal/models"
	"bookstore-service/internal/util"

	"go.uber.org/zap"
)

// EventStore is the slice of the store the worker needs to dedupe events.
type EventStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// OrderEventWorker records placed orders from the order-events topic.
// Orders are already DELIVERED when their event is published, so the
// worker only keeps an audit trail; it performs no fulfillment step.
type OrderEventWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        EventStore
	logger       *zap.Logger
}

// NewOrderEventWorker creates a new order event worker
func NewOrderEventWorker(consumer *broker.Consumer, store EventStore) *OrderEventWorker {
	w := &OrderEventWorker{
		consumer: consumer,
		store:    store,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *OrderEventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting order event worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderEventWorker) Stop() error {
	w.logger.Info("Stopping order event worker")
	return w.consumer.Close()
}

// handleOrderPlaced records one placement, skipping redelivered events.
func (w *OrderEventWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		util.OrderEventsDuplicateTotal.Inc()
		return nil
	}

	w.logger.Info("Order placed",
		zap.String("event_id", event.EventID),
		zap.String("order_id", event.OrderID),
		zap.String("user_id", event.UserID),
		zap.Int64("total_amount", event.TotalAmount),
		zap.Int("items", len(event.Items)))

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return err
	}

	util.OrderEventsAuditedTotal.Inc()
	return nil
}
