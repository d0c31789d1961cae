package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-storefront/cart"
	"go-storefront/models"
)

// RedisStore keeps each visitor's cart in Redis under session:<sid>.
// Saves are last-write-wins; concurrent requests of one session are not serialized.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store whose sessions expire ttl after their last save
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Load returns the cart of session sid, or an empty cart for an unknown session.
func (r *RedisStore) Load(ctx context.Context, sid string) (cart.State, error) {
	data, err := r.client.Get(ctx, sessionKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var payload models.Cart
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return cart.FromCart(payload), nil
}

// Save stores state as the cart of session sid and refreshes the expiry.
func (r *RedisStore) Save(ctx context.Context, sid string, state cart.State) error {
	payload := state.Cart()
	payload.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(sid), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete drops session sid.
func (r *RedisStore) Delete(ctx context.Context, sid string) error {
	if err := r.client.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(sid string) string {
	return fmt.Sprintf("session:%s", sid)
}
