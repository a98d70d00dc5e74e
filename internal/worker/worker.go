package worker

import (
	"context"
	"log"
	"time"

	"catalog-service/internal/broker"
	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockAlertWorker watches product events and raises an alert when a
// product is at or below its low-stock threshold. Alerts are deduplicated
// through the processed_events table so redelivered messages do not fire
// twice.
type StockAlertWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	publisher    *broker.EventPublisher
	logger       *zap.Logger
}

// NewStockAlertWorker creates a new stock alert worker
func NewStockAlertWorker(consumer *broker.Consumer, store *store.Store, publisher *broker.EventPublisher) *StockAlertWorker {
	w := &StockAlertWorker{
		consumer:  consumer,
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnProductChanged(w.handleProductChanged)
	eventHandler.OnReviewSubmitted(w.handleReviewSubmitted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *StockAlertWorker) Start(ctx context.Context) error {
	log.Println("Starting stock alert worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockAlertWorker) Stop() error {
	log.Println("Stopping stock alert worker...")
	return w.consumer.Close()
}

func (w *StockAlertWorker) handleProductChanged(ctx context.Context, event *models.ProductEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	if event.Quantity > 0 && event.Quantity <= event.LowStockThreshold {
		util.LowStockAlertsTotal.Inc()
		w.logger.Warn("Product low on stock",
			zap.Int64("product_id", event.ProductID),
			zap.String("slug", event.Slug),
			zap.Int("quantity", event.Quantity),
			zap.Int("threshold", event.LowStockThreshold))

		alert := &models.StockLowEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeStockLow,
				Timestamp: time.Now(),
			},
			ProductID: event.ProductID,
			Slug:      event.Slug,
			Quantity:  event.Quantity,
			Threshold: event.LowStockThreshold,
		}
		if err := w.publisher.PublishStockLow(ctx, alert); err != nil {
			w.logger.Error("Failed to publish stock low alert", zap.Error(err))
		}
	}

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *StockAlertWorker) handleReviewSubmitted(ctx context.Context, event *models.ReviewSubmittedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	util.ReviewsQueuedForModeration.Inc()
	w.logger.Info("Review awaiting moderation",
		zap.Int64("review_id", event.ReviewID),
		zap.Int64("product_id", event.ProductID))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
