package broker

import (
	"context"

	"order-management/internal/domain"
	"order-management/internal/util"

	"go.uber.org/zap"
)

// EventPublisher delivers committed domain events to Kafka. It is called only
// after the producing transaction has committed; a delivery failure is logged
// and counted, never propagated back into the financial write.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
}

var _ domain.EventSink = (*EventPublisher)(nil)

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		logger:   util.GetLogger(),
	}
}

// Publish writes the batch of events in order, keyed by aggregate.
func (ep *EventPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	var firstErr error
	for _, event := range events {
		if err := ep.producer.WriteJSON(ctx, event.Key(), event); err != nil {
			util.EventPublishFailuresTotal.Inc()
			ep.logger.Error("Failed to publish domain event",
				zap.String("type", event.Type()),
				zap.String("key", event.Key()),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		util.EventsPublishedTotal.WithLabelValues(event.Type()).Inc()
		ep.logger.Info("Published domain event",
			zap.String("type", event.Type()),
			zap.String("key", event.Key()))
	}
	return firstErr
}
