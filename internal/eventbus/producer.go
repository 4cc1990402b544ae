package eventbus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
)

// Producer publishes catalog events to the stream.
type Producer struct {
	client StreamClient
	stream string
	maxLen int64
}

// NewProducer builds a producer; maxLen caps the stream length approximately.
func NewProducer(client StreamClient, stream string, maxLen int64) *Producer {
	return &Producer{client: client, stream: stream, maxLen: maxLen}
}

// Publish appends one event and returns its stream ID.
func (p *Producer) Publish(ctx context.Context, meta events.Metadata, data *events.CourseCatalogData) (string, error) {
	values, err := Encode(meta, data)
	if err != nil {
		return "", err
	}
	args := &redis.XAddArgs{Stream: p.stream, Values: values}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", meta.EventType, err)
	}
	return id, nil
}

// Emitter sends catalog changes to local receivers and, when a producer is
// set, forwards them to the stream under the same event ID.
type Emitter struct {
	signal   *events.Signal[*events.CourseCatalogData]
	producer *Producer
	logger   *zap.Logger
}

// NewEmitter builds an emitter. producer may be nil.
func NewEmitter(catalog *events.Catalog, producer *Producer, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{signal: catalog.CourseCatalogInfoChanged, producer: producer, logger: logger}
}

// Emit returns the metadata stamped on the event.
func (e *Emitter) Emit(ctx context.Context, data *events.CourseCatalogData) (events.Metadata, error) {
	meta := e.signal.NewMetadata()
	if err := e.signal.SendWithMetadata(ctx, meta, data); err != nil {
		return meta, err
	}
	if e.producer == nil {
		return meta, nil
	}
	id, err := e.producer.Publish(ctx, meta, data)
	if err != nil {
		return meta, err
	}
	e.logger.Debug("published catalog event", zap.String("event_id", meta.ID.String()), zap.String("stream_id", id))
	return meta, nil
}
