package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"security-service/internal/client"
	"security-service/internal/models"
)

// EventPublisher mirrors security events onto the Kafka analytics
// topic. Callers treat publishing as best-effort.
type EventPublisher struct {
	producer *client.KafkaProducer
	logger   *zap.Logger
}

func NewEventPublisher(producer *client.KafkaProducer, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		logger:   logger,
	}
}

// Publish writes one event keyed by its type so consumers can partition
// by attack class.
func (p *EventPublisher) Publish(ctx context.Context, event models.SecurityEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode security event: %w", err)
	}
	return p.producer.WriteMessage(ctx, []byte(event.EventType), payload)
}
