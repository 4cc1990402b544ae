package eventbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
	"github.com/noah-isme/openedx-sample-plugin/pkg/jobs"
)

// StreamClient is the subset of the Redis client the bus uses.
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Config names the stream and consumer group.
type Config struct {
	Stream     string
	Group      string
	Consumer   string
	Block      time.Duration
	Count      int64
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// Consumer replays catalog events from the stream onto the local signal.
type Consumer struct {
	client StreamClient
	signal *events.Signal[*events.CourseCatalogData]
	queue  *jobs.Queue[Message]
	cfg    Config
	logger *zap.Logger
}

// NewConsumer wires a consumer for catalog.CourseCatalogInfoChanged.
func NewConsumer(client StreamClient, catalog *events.Catalog, cfg Config, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.Count <= 0 {
		cfg.Count = 10
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	c := &Consumer{client: client, signal: catalog.CourseCatalogInfoChanged, cfg: cfg, logger: logger}
	c.queue = jobs.NewQueue[Message]("eventbus:"+cfg.Stream, c.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	c.queue.OnDeadLetter(c.deadLetter)
	return c
}

// Run reads the stream until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "$").Err(); err != nil && !isBusyGroup(err) {
		return fmt.Errorf("create consumer group %s: %w", c.cfg.Group, err)
	}

	c.queue.Start(ctx)
	defer c.queue.Stop()

	c.logger.Info("event bus consumer started",
		zap.String("stream", c.cfg.Stream),
		zap.String("group", c.cfg.Group),
		zap.String("consumer", c.cfg.Consumer),
	)
	for {
		if ctx.Err() != nil {
			return nil
		}
		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			Streams:  []string{c.cfg.Stream, ">"},
			Count:    c.cfg.Count,
			Block:    c.cfg.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("read event stream", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.cfg.RetryDelay):
			}
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.dispatch(ctx, msg)
			}
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, raw redis.XMessage) {
	msg, err := Decode(raw)
	if err != nil {
		c.logger.Error("dropping undecodable event", zap.String("stream_id", raw.ID), zap.Error(err))
		c.ack(ctx, raw.ID)
		return
	}
	if msg.Meta.EventType != c.signal.EventType() {
		c.logger.Debug("skipping foreign event type", zap.String("event_type", msg.Meta.EventType))
		c.ack(ctx, raw.ID)
		return
	}
	if err := c.queue.Enqueue(jobs.Job[Message]{ID: raw.ID, Payload: msg}); err != nil {
		c.logger.Warn("enqueue event", zap.String("stream_id", raw.ID), zap.Error(err))
	}
}

func (c *Consumer) handle(ctx context.Context, job jobs.Job[Message]) error {
	if err := c.signal.SendWithMetadata(ctx, job.Payload.Meta, job.Payload.Data); err != nil {
		return err
	}
	c.ack(ctx, job.ID)
	return nil
}

func (c *Consumer) deadLetter(job jobs.Job[Message], err error) {
	c.logger.Error("event handling failed permanently",
		zap.String("stream_id", job.ID),
		zap.String("event_id", job.Payload.Meta.ID.String()),
		zap.Error(err),
	)
	c.ack(context.Background(), job.ID)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, id).Err(); err != nil {
		c.logger.Warn("ack event", zap.String("stream_id", id), zap.Error(err))
	}
}

func isBusyGroup(err error) bool {
	return strings.HasPrefix(err.Error(), "BUSYGROUP")
}
