// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	stdctx "context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token,
// so an expired holder never releases a lock taken over by another replica.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker takes short-lived exclusive locks with SET NX PX.
type Locker struct {
	client *redis.Client
	script *redis.Script
}

// NewLocker builds a [Locker] on an existing client.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{
		client: client,
		script: redis.NewScript(releaseScript),
	}
}

/*
TryLock attempts to acquire key for ttl.

Parameters:
  - context: context.Context
  - key: string (Lock name)
  - ttl: time.Duration (Automatic expiry if the holder dies)

Returns:
  - string: Ownership token to pass to Release
  - bool: Whether the lock was acquired
  - error: Connectivity failures
*/
func (locker *Locker) TryLock(context stdctx.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("redis: lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("redis: lock ttl must be positive")
	}

	token := uuid.NewString()
	acquired, err := locker.client.SetNX(context, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis_lock_acquire_failed: %w", err)
	}

	return token, acquired, nil
}

// Release frees key if it is still held under token.
func (locker *Locker) Release(context stdctx.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}

	if err := locker.script.Run(context, locker.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis_lock_release_failed: %w", err)
	}

	return nil
}
