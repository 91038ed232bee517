package ledger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type capturingProducer struct {
	records []*kgo.Record
}

func (p *capturingProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.records = append(p.records, rs...)
	return kgo.ProduceResults{}
}

func TestEmitAppendsToStoreAndTopic(t *testing.T) {
	store := NewInMemoryStore()
	producer := &capturingProducer{}
	pub := NewPublisher(store, producer, "attribune.ledger", slog.Default(), nil)

	pub.Emit(context.Background(), KindClaimCreated, "claim-1", map[string]string{"result_id": "r-1"})

	entries, err := store.ListByKind(context.Background(), KindClaimCreated)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "claim-1", entries[0].Subject)
	assert.Equal(t, "r-1", entries[0].Detail["result_id"])
	assert.False(t, entries[0].Timestamp.IsZero())

	require.Len(t, producer.records, 1)
	assert.Equal(t, "attribune.ledger", producer.records[0].Topic)
	assert.Equal(t, []byte("claim-1"), producer.records[0].Key)
}

func TestEmitWithoutProducerOnlyStores(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, nil, "", slog.Default(), nil)

	pub.Emit(context.Background(), KindEventIngested, "event-1", nil)

	entries, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
