package producer

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/image-compressor/internal/config"
	"github.com/aliskhannn/image-compressor/internal/model"
)

// Producer publishes processed image events to Kafka.
type Producer struct {
	Client   *wbfkafka.Producer
	strategy retry.Strategy
}

// New creates a new Producer writing to the events topic.
func New(cfg *config.Kafka, s retry.Strategy) *Producer {
	return &Producer{
		Client:   wbfkafka.NewProducer(cfg.Brokers, cfg.EventsTopic),
		strategy: s,
	}
}

// Publish serializes the event to JSON and sends it with retries.
// The image ID is used as the message key so events of one image stay ordered.
func (p *Producer) Publish(ctx context.Context, ev model.ProcessedEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.Client.SendWithRetry(ctx, p.strategy, []byte(ev.ID.String()), data); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	return nil
}
