// Package repo – Redis chat state
//
// RedisChatState stores the last Telegram chat id under a single string key.
// It lets several replicas share the captured chat without a shared SQLite
// file. A missing key means nothing was captured yet.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChatKey is used when no key is configured.
const DefaultRedisChatKey = "notify:last_chat_id"

// RedisChatState is the Redis-backed chat-state gateway.
type RedisChatState struct {
	Client redis.UniversalClient
	Key    string
}

// NewRedisChatState returns a gateway storing the chat id under key.
func NewRedisChatState(client redis.UniversalClient, key string) *RedisChatState {
	if key == "" {
		key = DefaultRedisChatKey
	}
	return &RedisChatState{Client: client, Key: key}
}

// LastChatID returns the stored chat id, or ok=false when the key is absent.
func (r *RedisChatState) LastChatID(ctx context.Context) (int64, bool, error) {
	raw, err := r.Client.Get(ctx, r.Key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis key %q holds non-integer chat id: %w", r.Key, err)
	}
	return id, true, nil
}

// SetLastChatID stores id without expiry.
func (r *RedisChatState) SetLastChatID(ctx context.Context, id int64) error {
	return r.Client.Set(ctx, r.Key, strconv.FormatInt(id, 10), 0).Err()
}

// Ping checks connectivity; used at startup to fail fast.
func (r *RedisChatState) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
