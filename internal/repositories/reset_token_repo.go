package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/redis/go-redis/v9"
)

const resetKeyPrefix = "password-reset:"

// ResetTokenRepo keeps pending password resets in Redis with a TTL.
type ResetTokenRepo struct {
	Client *redis.Client
}

func (r ResetTokenRepo) Save(ctx context.Context, token models.ResetToken, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis not configured")
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, resetKeyPrefix+token.ID, payload, ttl).Err()
}

func (r ResetTokenRepo) Get(ctx context.Context, id string) (models.ResetToken, error) {
	var out models.ResetToken
	if r.Client == nil {
		return out, fmt.Errorf("redis not configured")
	}
	raw, err := r.Client.Get(ctx, resetKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return out, intdb.ErrNotFound
	}
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (r ResetTokenRepo) Delete(ctx context.Context, id string) error {
	if r.Client == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.Client.Del(ctx, resetKeyPrefix+id, resetFailuresKey(id)).Err()
}

// Fail increments the failure counter, which expires with the token.
func (r ResetTokenRepo) Fail(ctx context.Context, id string) (int, error) {
	if r.Client == nil {
		return 0, fmt.Errorf("redis not configured")
	}
	ttl, err := r.Client.PTTL(ctx, resetKeyPrefix+id).Result()
	if err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return 0, intdb.ErrNotFound
	}
	var incr *redis.IntCmd
	_, err = r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, resetFailuresKey(id))
		pipe.PExpire(ctx, resetFailuresKey(id), ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func resetFailuresKey(id string) string {
	return resetKeyPrefix + id + ":failures"
}
