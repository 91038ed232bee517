package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"attribune/internal/platform/metrics"
)

// Producer is the subset of the Kafka client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher records pipeline facts into the ledger store and, when
// configured, a Kafka topic. Ledger failures are logged and counted but
// never propagate: the pipeline write that triggered the entry has already
// happened, and losing a mirror entry must not fail the request.
type Publisher struct {
	store    Store
	producer Producer
	topic    string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewPublisher constructs a ledger publisher. producer may be nil.
func NewPublisher(store Store, producer Producer, topic string, logger *slog.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{store: store, producer: producer, topic: topic, logger: logger, metrics: m}
}

// Emit appends one entry. Safe to call from any pipeline service.
func (p *Publisher) Emit(ctx context.Context, kind Kind, subject string, detail map[string]string) {
	entry := Entry{
		ID:        uuid.New(),
		Kind:      kind,
		Subject:   subject,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}

	if err := p.store.Append(ctx, entry); err != nil {
		p.fail(ctx, entry, "ledger store append failed", err)
	}

	if p.producer == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		p.fail(ctx, entry, "ledger entry marshal failed", err)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.Subject),
		Value: payload,
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.fail(ctx, entry, "ledger kafka produce failed", err)
	}
}

func (p *Publisher) fail(ctx context.Context, entry Entry, msg string, err error) {
	if p.metrics != nil {
		p.metrics.LedgerPublishFailed.Inc()
	}
	p.logger.ErrorContext(ctx, msg,
		"kind", string(entry.Kind),
		"subject", entry.Subject,
		"error", err,
	)
}
