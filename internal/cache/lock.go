package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript 仅在持有者匹配时释放锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock 分布式互斥锁句柄
type Lock struct {
	key   string
	owner string
}

// TryLock 尝试获取锁。Redis 未启用时视为单实例部署，直接返回成功
func TryLock(ctx context.Context, key string, ttl time.Duration) (*Lock, bool, error) {
	lock := &Lock{key: BuildKey(key), owner: uuid.NewString()}
	if !Enabled() {
		return lock, true, nil
	}
	ok, err := redisClient.SetNX(ctx, lock.key, lock.owner, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return lock, true, nil
}

// Release 释放锁
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || !Enabled() {
		return nil
	}
	return unlockScript.Run(ctx, redisClient, []string{l.key}, l.owner).Err()
}
