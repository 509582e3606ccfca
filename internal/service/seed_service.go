package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"campus-venue/config"
	"campus-venue/internal/model"
	"campus-venue/internal/repository"
)

// ── 初始数据 ──

type seedUser struct {
	username   string
	role       string
	department string
}

var defaultUsers = []seedUser{
	{username: "admin", role: model.RoleAdmin, department: "Administration"},
	{username: "CCS", role: model.RoleRequester, department: "College of Computer Studies"},
}

var defaultRooms = []model.Room{
	{Code: "PAT", Name: "Performing Arts Theatre", Capacity: 500, UsualActivity: "Concerts, plays and recitals"},
	{Code: "MUA", Name: "Medical University Auditorium", Capacity: 300, UsualActivity: "Lectures, symposia and seminars"},
	{Code: "QUAD", Name: "Quadrangle", Capacity: 1000, UsualActivity: "Outdoor assemblies and fairs"},
	{Code: "APARK", Name: "Achievers Park", Capacity: 200, UsualActivity: "Small outdoor gatherings"},
	{Code: "CHAPEL", Name: "Campus Chapel", Capacity: 100, UsualActivity: "Masses and recollections"},
	{Code: "OVAL", Name: "Oval", Capacity: 2000, UsualActivity: "Athletic meets and large outdoor events"},
	{Code: "GYM", Name: "GYM and Sports Center", Capacity: 800, UsualActivity: "Indoor sports and convocations"},
	{Code: "POOL", Name: "Swimming Pool", Capacity: 50, UsualActivity: "Swimming classes and meets"},
	{Code: "MINI", Name: "Mini Auditorium", Capacity: 150, UsualActivity: "Orientations and workshops"},
}

// SeedService 初始数据写入
type SeedService interface {
	// Seed 写入默认账号与场地，已存在的记录跳过
	Seed(ctx context.Context) error
}

type seedService struct {
	cfg    config.SeedConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSeedService 创建 SeedService 实例
func NewSeedService(cfg config.SeedConfig, repo *repository.Repository, logger *zap.Logger) SeedService {
	return &seedService{cfg: cfg, repo: repo, logger: logger}
}

func (s *seedService) Seed(ctx context.Context) error {
	if err := s.seedUsers(ctx); err != nil {
		return err
	}
	return s.seedRooms(ctx)
}

func (s *seedService) seedUsers(ctx context.Context) error {
	for _, u := range defaultUsers {
		_, err := s.repo.User.GetByUsername(ctx, u.username)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询用户 %s 失败: %w", u.username, err)
		}

		password := s.cfg.RequesterPassword
		if u.role == model.RoleAdmin {
			password = s.cfg.AdminPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("生成密码哈希失败: %w", err)
		}

		user := &model.User{
			Username:     u.username,
			PasswordHash: string(hash),
			Role:         u.role,
			Department:   u.department,
		}
		if err := s.repo.User.Create(ctx, user); err != nil {
			return fmt.Errorf("创建用户 %s 失败: %w", u.username, err)
		}
		s.logger.Info("已创建初始用户", zap.String("username", u.username), zap.String("role", u.role))
	}
	return nil
}

func (s *seedService) seedRooms(ctx context.Context) error {
	created := 0
	for _, tpl := range defaultRooms {
		_, err := s.repo.Room.GetByCode(ctx, tpl.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询场地 %s 失败: %w", tpl.Code, err)
		}

		room := tpl
		if err := s.repo.Room.Create(ctx, &room); err != nil {
			return fmt.Errorf("创建场地 %s 失败: %w", tpl.Code, err)
		}
		created++
	}
	if created > 0 {
		s.logger.Info("已写入默认场地", zap.Int("count", created))
	}
	return nil
}
