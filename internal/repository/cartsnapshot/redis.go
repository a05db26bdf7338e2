package cartsnapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"vereau-cart/internal/domain"
)

type redisRepo struct {
	client *redis.Client
}

// NewRedis returns a Repository backed by Redis. Snapshots carry no TTL: the
// slot survives until checkout clears it or the owner empties the cart.
func NewRedis(client *redis.Client) Repository {
	return &redisRepo{client: client}
}

func (r *redisRepo) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, snapshotKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return &cart, nil
}

func (r *redisRepo) Set(ctx context.Context, ownerID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey(ownerID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *redisRepo) Delete(ctx context.Context, ownerID string) error {
	if err := r.client.Del(ctx, snapshotKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func snapshotKey(ownerID string) string {
	return fmt.Sprintf("cart:%s", ownerID)
}
