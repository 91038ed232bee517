package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"attribune/internal/platform/config"
)

// Client wraps a franz-go producer used by the settlement ledger.
type Client struct {
	*kgo.Client
	topic string
}

// New creates a Kafka client and ensures the ledger topic exists.
// Returns nil if no brokers are configured (ledger falls back to the store
// sink alone).
func New(ctx context.Context, cfg config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.LedgerTopic),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}

	if err := ensureTopic(ctx, client, cfg.LedgerTopic); err != nil {
		client.Close()
		return nil, err
	}

	return &Client{Client: client, topic: cfg.LedgerTopic}, nil
}

// Topic returns the ledger topic name.
func (c *Client) Topic() string {
	return c.topic
}

// ensureTopic creates the ledger topic if it does not already exist.
// A TOPIC_ALREADY_EXISTS response is not an error.
func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create ledger topic: %w", err)
	}
	for _, ctr := range resp.Sorted() {
		if ctr.Err != nil && !errors.Is(ctr.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create ledger topic %s: %w", ctr.Topic, ctr.Err)
		}
	}
	return nil
}
