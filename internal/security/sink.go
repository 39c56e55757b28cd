package security

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"security-service/internal/models"
	"security-service/internal/util"
)

// EventStore persists security events durably. Implemented by the
// ClickHouse repository.
type EventStore interface {
	Append(ctx context.Context, event models.SecurityEvent) error
}

// EventPublisher mirrors events onto a stream for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.SecurityEvent) error
}

// EventIndexer makes events searchable for the admin dashboard.
type EventIndexer interface {
	Index(ctx context.Context, event models.SecurityEvent) error
}

// Bucketer assigns partition buckets for event storage.
type Bucketer interface {
	EventBucket(id string) int
}

// Sink is the best-effort security event pipeline. Events are queued and
// written off the caller's path; a full queue or a failing backend never
// surfaces to the code that detected the event.
type Sink struct {
	store     EventStore
	publisher EventPublisher
	indexer   EventIndexer
	buckets   Bucketer
	logger    *zap.Logger

	queue chan models.SecurityEvent
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

const sinkQueueSize = 256

// NewSink starts the background writer. publisher, indexer and buckets
// may be nil; the sink degrades to durable-store-only.
func NewSink(store EventStore, publisher EventPublisher, indexer EventIndexer, buckets Bucketer, logger *zap.Logger) *Sink {
	s := &Sink{
		store:     store,
		publisher: publisher,
		indexer:   indexer,
		buckets:   buckets,
		logger:    logger,
		queue:     make(chan models.SecurityEvent, sinkQueueSize),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Log enqueues a security event. It never blocks and never fails; when
// the queue is full the event is dropped with a warning.
func (s *Sink) Log(ctx context.Context, eventType string, details map[string]interface{}, ipAddress, userAgent string) {
	if ipAddress == "" {
		ipAddress = "internal"
	}
	now := time.Now().UTC()
	event := models.SecurityEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Details:   details,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Timestamp: now,
		CreatedAt: now,
	}
	if s.buckets != nil {
		event.EventBucket = s.buckets.EventBucket(event.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- event:
	default:
		s.logger.Warn("security event queue full, dropping event",
			util.String("event_type", eventType))
	}
}

func (s *Sink) run() {
	defer s.wg.Done()
	for event := range s.queue {
		s.write(event)
	}
}

func (s *Sink) write(event models.SecurityEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.store != nil {
		if err := s.store.Append(ctx, event); err != nil {
			s.logger.Warn("failed to log security event",
				util.String("event_type", event.EventType),
				util.ErrorField(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish security event",
				util.String("event_type", event.EventType),
				util.ErrorField(err))
		}
	}
	if s.indexer != nil {
		if err := s.indexer.Index(ctx, event); err != nil {
			s.logger.Warn("failed to index security event",
				util.String("event_type", event.EventType),
				util.ErrorField(err))
		}
	}
}

// Close stops accepting events and drains the queue.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
}
