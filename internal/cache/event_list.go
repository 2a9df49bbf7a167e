// Package cache 基于 Redis 的缓存层：活动列表（cache-aside）与 JWT 黑名单。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/pkg/logger"
)

const eventListPrefix = "events:list:"

// EventPage 一页活动列表及总数
type EventPage struct {
	Count  int64         `json:"count"`
	Events []model.Event `json:"events"`
}

// EventListKey 由规范化后的查询参数拼出缓存键
func EventListKey(query string, category model.Category, ordering string, limit, offset int) string {
	return fmt.Sprintf("%sq=%s|t=%s|o=%s|l=%d|off=%d",
		eventListPrefix, strings.ToLower(strings.TrimSpace(query)), category, ordering, limit, offset)
}

// EventListCache 活动列表的 cache-aside 缓存，只靠 TTL 过期，不做主动失效
type EventListCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewEventListCache client 为 nil 时每次都直接回源
func NewEventListCache(client *redis.Client, ttl time.Duration) *EventListCache {
	return &EventListCache{client: client, ttl: ttl}
}

// Fetch 命中缓存直接返回；未命中调用 load 并回写。
// Redis 不可用时降级为直接回源，只打日志。
func (c *EventListCache) Fetch(ctx context.Context, key string, load func(context.Context) (*EventPage, error)) (*EventPage, error) {
	if c.client == nil || c.ttl <= 0 {
		return load(ctx)
	}

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var page EventPage
		if uErr := json.Unmarshal(data, &page); uErr == nil {
			c.hits.Add(1)
			return &page, nil
		}
		logger.Warn("discard undecodable event list cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		logger.Warn("event list cache read failed", zap.String("key", key), zap.Error(err))
	}

	c.misses.Add(1)
	page, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if payload, mErr := json.Marshal(page); mErr == nil {
		if sErr := c.client.Set(ctx, key, payload, c.ttl).Err(); sErr != nil {
			logger.Warn("event list cache write failed", zap.String("key", key), zap.Error(sErr))
		}
	}
	return page, nil
}

// Counters 返回命中/未命中次数
func (c *EventListCache) Counters() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
