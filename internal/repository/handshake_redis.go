package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maheshrc27/social-link-api/internal/models"
)

const handshakeKeyPrefix = "handshake:state:"

// KEYS[1] state key, ARGV[1] payload, ARGV[2] ttl in milliseconds.
var createHandshakeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'payload', ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// KEYS[1] state key, ARGV[1] consumed_at in unix milliseconds.
// Returns {0} when missing, {1} when already consumed, {2, payload} on claim.
var claimHandshakeScript = redis.NewScript(`
local payload = redis.call('HGET', KEYS[1], 'payload')
if not payload then
	return {0}
end
if redis.call('HSETNX', KEYS[1], 'consumed_at', ARGV[1]) == 0 then
	return {1}
end
return {2, payload}
`)

type redisHandshakeRepository struct {
	client *redis.Client
}

// NewRedisHandshakeRepository stores handshakes as hashes that expire with
// the handshake TTL. Consumed records stay until they expire so replays are
// reported as consumed.
func NewRedisHandshakeRepository(client *redis.Client) HandshakeRepository {
	return &redisHandshakeRepository{client: client}
}

func (r *redisHandshakeRepository) Create(ctx context.Context, rec *models.HandshakeRecord) error {
	stored := *rec
	stored.ConsumedAt = nil

	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	ttl := rec.ExpiresAt.Sub(rec.CreatedAt)
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	created, err := createHandshakeScript.Run(ctx, r.client,
		[]string{handshakeKeyPrefix + rec.StateToken},
		raw, ttl.Milliseconds(),
	).Int()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if created == 0 {
		return ErrHandshakeExists
	}
	return nil
}

func (r *redisHandshakeRepository) Claim(ctx context.Context, stateToken string, now time.Time) (*models.HandshakeRecord, error) {
	res, err := claimHandshakeScript.Run(ctx, r.client,
		[]string{handshakeKeyPrefix + stateToken},
		now.UnixMilli(),
	).Slice()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("repository: unexpected claim reply %v", res)
	}

	status, _ := res[0].(int64)
	switch status {
	case 0:
		return nil, ErrHandshakeNotFound
	case 1:
		return nil, ErrHandshakeConsumed
	}

	if len(res) < 2 {
		return nil, fmt.Errorf("repository: claim reply missing payload")
	}
	payload, _ := res[1].(string)

	var rec models.HandshakeRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	// Redis expiry has millisecond granularity; the record's own deadline wins.
	if rec.Expired(now) {
		return nil, ErrHandshakeNotFound
	}

	consumedAt := now
	rec.ConsumedAt = &consumedAt
	return &rec, nil
}

// DeleteExpired is a no-op; Redis evicts expired handshakes itself.
func (r *redisHandshakeRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
