package geocode

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kotihoito/kotihoito/pkg/logger"
)

// RedisCache Redis 解析结果缓存
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache 创建 Redis 缓存
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get 读取缓存的解析结果
//
// 缓存故障按未命中处理，不能阻塞地理编码链路。
func (c *RedisCache) Get(ctx context.Context, address string) (*Result, bool) {
	data, err := c.client.Get(ctx, cacheKey(address)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn().Err(err).Msg("读取地理编码缓存失败")
		return nil, false
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// Set 写入解析结果
func (c *RedisCache) Set(ctx context.Context, address string, result *Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(address), data, c.ttl).Err(); err != nil {
		logger.Warn().Err(err).Msg("写入地理编码缓存失败")
	}
}

// cacheKey 地址归一化后哈希为缓存键
func cacheKey(address string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(address), " "))
	sum := sha1.Sum([]byte(normalized))
	return "geocode:" + hex.EncodeToString(sum[:])
}
