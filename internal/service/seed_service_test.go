package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"campus-venue/config"
	"campus-venue/internal/model"
)

func TestSeedService_Seed_Idempotent(t *testing.T) {
	repo, repos := newTestRepos()
	svc := NewSeedService(config.SeedConfig{AdminPassword: "admin123", RequesterPassword: "user123"}, repo, zap.NewNop())
	ctx := context.Background()

	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("首次 Seed 应成功: %v", err)
	}
	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("重复 Seed 应成功: %v", err)
	}

	if len(repos.users.users) != 2 {
		t.Errorf("期望 2 个初始用户，实际=%d", len(repos.users.users))
	}
	if len(repos.rooms.rooms) != len(defaultRooms) {
		t.Errorf("期望 %d 个场地，实际=%d", len(defaultRooms), len(repos.rooms.rooms))
	}

	admin, err := repos.users.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("admin 应存在: %v", err)
	}
	if admin.Role != model.RoleAdmin || admin.Department != "Administration" {
		t.Errorf("admin 属性不符: %+v", admin)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")) != nil {
		t.Error("admin 密码哈希不符")
	}

	oval, err := repos.rooms.GetByCode(ctx, "OVAL")
	if err != nil {
		t.Fatalf("OVAL 应存在: %v", err)
	}
	if oval.Capacity != 2000 {
		t.Errorf("Oval 容量期望 2000，实际=%d", oval.Capacity)
	}
}
