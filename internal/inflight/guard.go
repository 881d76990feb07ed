// Package inflight はブラウザ単位で同時に1件だけフォーム送信を許可するロックを提供します。
package inflight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "submit:"
)

// Guard は送信中フラグをキー単位で管理します。
type Guard interface {
	// Acquire はロックを取得できた場合に、解放に使うトークンと true を返します。
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	// Release は token で取得したロックを解放します。別の取得者が保持しているロックは消しません。
	Release(ctx context.Context, key, token string) error
}

// 保持者のトークンが一致する場合だけキーを削除する
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard は Redis の SETNX でロックを保持します。複数インスタンス構成でも有効です。
type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisGuard は RedisGuard を作成します。ttl はプロセス停止時にロックが残り続けないための上限です。
func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		rdb: rdb,
		ttl: ttl,
	}
}

// NewRedisClient は URL から Redis クライアントを作成し、疎通を確認します。
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// Acquire はロックを取得します。ttl を過ぎたロックは自動的に失効します。
func (g *RedisGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key is required")
	}
	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, lockKey(key), token, g.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release はロックを解放します。失効後に別の送信が取得したロックは残します。
func (g *RedisGuard) Release(ctx context.Context, key, token string) error {
	if key == "" {
		return errors.New("key is required")
	}
	return releaseScript.Run(ctx, g.rdb, []string{lockKey(key)}, token).Err()
}

// MemoryGuard はプロセス内でロックを保持します。Redis を使わない開発環境向けです。
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]string
}

// NewMemoryGuard は MemoryGuard を作成します。
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]string)}
}

// Acquire はロックを取得します。
func (g *MemoryGuard) Acquire(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key is required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	g.held[key] = token
	return token, true, nil
}

// Release はロックを解放します。
func (g *MemoryGuard) Release(_ context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[key] == token {
		delete(g.held, key)
	}
	return nil
}

func lockKey(key string) string {
	return keyPrefix + key
}
