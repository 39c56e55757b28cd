package elastic

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"security-service/internal/client"
	"security-service/internal/models"
)

// EventIndexer writes security events into the search index backing the
// admin dashboard. Indexing is best-effort.
type EventIndexer struct {
	es     *client.ESClient
	logger *zap.Logger
}

func NewEventIndexer(es *client.ESClient, logger *zap.Logger) *EventIndexer {
	return &EventIndexer{
		es:     es,
		logger: logger,
	}
}

// Index stores one event document keyed by event id.
func (i *EventIndexer) Index(ctx context.Context, event models.SecurityEvent) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode security event: %w", err)
	}
	return i.es.IndexDocument(ctx, event.ID, doc)
}
