package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClaimState is what a request learns when it presents an Idempotency-Key.
type ClaimState int

const (
	// ClaimAcquired means the caller owns the key and must run the request.
	ClaimAcquired ClaimState = iota
	// ClaimPending means an earlier request with the key is still running.
	ClaimPending
	// ClaimReplay means the response is saved and must be sent again.
	ClaimReplay
	// ClaimMismatch means the key was first used with a different payload.
	ClaimMismatch
)

type Claim struct {
	State  ClaimState
	Status int
	Body   []byte
}

// luaClaim reads or takes an idempotency record.
//
// KEYS[1] record hash: fp, state, status, body
// ARGV[1] request fingerprint
// ARGV[2] lock ttl, ms
const luaClaim = `
local fp = redis.call('HGET', KEYS[1], 'fp')
if not fp then
  redis.call('HSET', KEYS[1], 'fp', ARGV[1], 'state', 'pending')
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  return {0, 0, ''}
end
if fp ~= ARGV[1] then
  return {3, 0, ''}
end
local rec = redis.call('HMGET', KEYS[1], 'state', 'status', 'body')
if rec[1] == 'done' then
  return {2, tonumber(rec[2]) or 200, rec[3] or ''}
end
return {1, 0, ''}
`

// IdempotencyStore remembers booking responses per Idempotency-Key. A
// record is bound to the fingerprint of the request that created it.
type IdempotencyStore struct {
	rdb    *redis.Client
	script *redis.Script
	ttl    time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, script: redis.NewScript(luaClaim), ttl: ttl}
}

// Claim takes key for a request with the given fingerprint, or reports why
// it cannot. A taken key expires after lockTTL unless completed.
func (s *IdempotencyStore) Claim(ctx context.Context, key, fingerprint string, lockTTL time.Duration) (Claim, error) {
	const op = "redis.IdempotencyStore.Claim"

	reply, err := s.script.Run(ctx, s.rdb, []string{key}, fingerprint, lockTTL.Milliseconds()).Slice()
	if err != nil {
		return Claim{}, fmt.Errorf("%s:%w", op, err)
	}
	if len(reply) != 3 {
		return Claim{}, fmt.Errorf("%s: unexpected script reply %v", op, reply)
	}

	state, _ := reply[0].(int64)
	status, _ := reply[1].(int64)
	body, _ := reply[2].(string)

	return Claim{State: ClaimState(state), Status: int(status), Body: []byte(body)}, nil
}

// Complete saves the response of a claimed key for the store's TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, status int, body []byte) error {
	const op = "redis.IdempotencyStore.Complete"

	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "state", "done", "status", strconv.Itoa(status), "body", body)
		p.PExpire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Abandon frees key so the request can be retried.
func (s *IdempotencyStore) Abandon(ctx context.Context, key string) error {
	return s.rdb.Unlink(ctx, key).Err()
}
