package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/config"
)

// submittedHandler handles image submission messages.
type submittedHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// Consumer reads image submissions from Kafka and passes them to a handler.
type Consumer struct {
	Client   *wbfkafka.Consumer
	handler  submittedHandler
	cfg      *config.Kafka
	strategy retry.Strategy
}

// New creates a new Consumer for the submissions topic.
func New(cfg *config.Kafka, s retry.Strategy, h submittedHandler) *Consumer {
	return &Consumer{
		Client:   wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID),
		handler:  h,
		cfg:      cfg,
		strategy: s,
	}
}

// Consume fetches messages until ctx is canceled. A message is committed
// once its image has been accepted for processing; malformed messages are
// committed too so they do not block the partition.
func (c *Consumer) Consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	zlog.Logger.Info().
		Str("topic", c.cfg.Topic).
		Msg("starting consumer")

	for {
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("shutdown signal received, stopping consumer")
			return
		}

		var msg kafka.Message
		err := retry.Do(func() error {
			var fetchErr error
			msg, fetchErr = c.Client.Fetch(ctx)
			return fetchErr
		}, c.strategy)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}

			zlog.Logger.Err(err).Msg("failed to fetch message")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := c.handler.Handle(ctx, msg); err != nil {
			zlog.Logger.Err(err).
				Str("message", string(msg.Value)).
				Msg("failed to accept submission")
		}

		err = retry.Do(func() error {
			return c.Client.Commit(ctx, msg)
		}, c.strategy)
		if err != nil {
			zlog.Logger.Err(err).Msg("failed to commit message after retries")
			continue
		}

		zlog.Logger.Debug().
			Int64("offset", msg.Offset).
			Msg("message committed")
	}
}
