package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	platformredis "attribune/internal/platform/redis"
	id "attribune/pkg/domain"
)

// idempotencyTTL bounds how long a token reservation lives in redis. The
// event store's unique index remains the durable guard after expiry.
const idempotencyTTL = 24 * time.Hour

// RedisIdempotencyIndex is a fast-path lookup for repeated submissions.
// It is advisory: a miss (or redis being down) just falls through to the
// store's unique index.
type RedisIdempotencyIndex struct {
	client *platformredis.Client
}

func NewRedisIdempotencyIndex(client *platformredis.Client) *RedisIdempotencyIndex {
	return &RedisIdempotencyIndex{client: client}
}

func key(source id.PartnerID, token string) string {
	return fmt.Sprintf("ingest:idem:%s:%s", source.String(), token)
}

// Reserve attempts to claim the token for eventID. It returns the event id
// that owns the token and whether this call created the reservation.
func (i *RedisIdempotencyIndex) Reserve(ctx context.Context, source id.PartnerID, token string, eventID id.EventID) (id.EventID, bool, error) {
	created, err := i.client.SetNX(ctx, key(source, token), eventID.String(), idempotencyTTL).Result()
	if err != nil {
		return id.EventID{}, false, fmt.Errorf("reserve idempotency token: %w", err)
	}
	if created {
		return eventID, true, nil
	}

	existing, err := i.client.Get(ctx, key(source, token)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			// Reservation expired between SetNX and Get; treat as a miss.
			return id.EventID{}, false, nil
		}
		return id.EventID{}, false, fmt.Errorf("load idempotency token: %w", err)
	}
	existingID, err := id.ParseEventID(existing)
	if err != nil {
		return id.EventID{}, false, fmt.Errorf("corrupt idempotency entry: %w", err)
	}
	return existingID, false, nil
}

// Release drops a reservation after a failed create so a retry can claim it.
func (i *RedisIdempotencyIndex) Release(ctx context.Context, source id.PartnerID, token string) {
	_ = i.client.Del(ctx, key(source, token)).Err()
}
