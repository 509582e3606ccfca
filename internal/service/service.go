package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"campus-venue/config"
	"campus-venue/internal/repository"
	"campus-venue/pkg/jwt"
	"campus-venue/pkg/redis"
)

// ── 外部协作方能力接口 ──

// BlobStore 文档存储：保存二进制内容并通过不透明引用读取或删除
type BlobStore interface {
	Store(ctx context.Context, data []byte, declaredExt string) (string, error)
	Open(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

// AssistantClient AI 协作方
type AssistantClient interface {
	Ask(ctx context.Context, systemInstruction string, contextJSON []byte, prompt string) (string, error)
}

// SnapshotCache AI 上下文快照缓存
type SnapshotCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// TokenBlacklist 登出时吊销 Token
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	Room        RoomService
	Reservation ReservationService
	Assistant   AssistantService
	Export      ExportService
	Seed        SeedService
}

// NewService 创建 Service 聚合
// rdb 为 nil 时 Token 黑名单与上下文缓存降级为不可用
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blobs BlobStore,
	ai AssistantClient,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var (
		cache     SnapshotCache
		blacklist TokenBlacklist
	)
	if rdb != nil {
		cache = rdb
		blacklist = rdb
	}

	return &Service{
		Auth:        NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Room:        NewRoomService(repo, cache, logger),
		Reservation: NewReservationService(repo, blobs, cache, logger),
		Assistant:   NewAssistantService(repo, ai, cache, cfg.Assistant.CacheTTL, logger),
		Export:      NewExportService(repo, logger),
		Seed:        NewSeedService(cfg.Seed, repo, logger),
	}
}
