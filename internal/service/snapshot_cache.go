package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-venue/internal/dto"
	"campus-venue/pkg/redis"
)

// AI 上下文快照缓存
//
// 快照按代际分键存放。场地或已批准预约发生写入时切换到新代际；
// 与写入并发的重建只会回写到旧代际的键上，之后不会再被读取，随 TTL 过期。
const (
	assistantContextCacheKey = "assistant:context"
	assistantContextGenKey   = "assistant:context:gen"
	initialGeneration        = "0"
)

type contextSnapshots struct {
	cache  SnapshotCache
	ttl    time.Duration
	logger *zap.Logger
}

// newContextSnapshots cache 为 nil 时返回的实例所有操作均为空操作
func newContextSnapshots(cache SnapshotCache, ttl time.Duration, logger *zap.Logger) *contextSnapshots {
	return &contextSnapshots{cache: cache, ttl: ttl, logger: logger}
}

func snapshotKey(gen string) string {
	return assistantContextCacheKey + ":" + gen
}

func (s *contextSnapshots) enabled() bool {
	return s != nil && s.cache != nil
}

// generation 读取当前代际；读取失败时返回 false，调用方应绕过缓存
func (s *contextSnapshots) generation(ctx context.Context) (string, bool) {
	var gen string
	err := s.cache.GetJSON(ctx, assistantContextGenKey, &gen)
	switch {
	case err == nil && gen != "":
		return gen, true
	case err == nil, errors.Is(err, redis.ErrCacheMiss):
		return initialGeneration, true
	default:
		s.logger.Warn("读取 AI 上下文缓存代际失败", zap.Error(err))
		return "", false
	}
}

// load 读取当前代际的快照，返回的代际用于未命中时回写
func (s *contextSnapshots) load(ctx context.Context, dst *dto.AssistantContext) (string, bool) {
	if !s.enabled() {
		return "", false
	}
	gen, ok := s.generation(ctx)
	if !ok {
		return "", false
	}

	err := s.cache.GetJSON(ctx, snapshotKey(gen), dst)
	if err == nil {
		return gen, true
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		s.logger.Warn("读取 AI 上下文缓存失败", zap.Error(err))
	}
	return gen, false
}

// store 将快照写入构建前读取到的代际
func (s *contextSnapshots) store(ctx context.Context, gen string, snapshot *dto.AssistantContext) {
	if !s.enabled() || gen == "" || s.ttl <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, snapshotKey(gen), snapshot, s.ttl); err != nil {
		s.logger.Warn("写入 AI 上下文缓存失败", zap.Error(err))
	}
}

// invalidate 切换到新代际并清理旧代际的快照；须在数据库写入成功后调用
func (s *contextSnapshots) invalidate(ctx context.Context) {
	if !s.enabled() {
		return
	}
	old, known := s.generation(ctx)

	// 代际键不设过期时间
	if err := s.cache.SetJSON(ctx, assistantContextGenKey, uuid.NewString(), 0); err != nil {
		s.logger.Warn("切换 AI 上下文缓存代际失败", zap.Error(err))
	}
	if known {
		if err := s.cache.Delete(ctx, snapshotKey(old)); err != nil {
			s.logger.Warn("清除 AI 上下文缓存失败", zap.Error(err))
		}
	}
}
