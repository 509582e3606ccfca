package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"campus-venue/config"
	"campus-venue/internal/dto"
	"campus-venue/internal/model"
	"campus-venue/pkg/jwt"
)

// ── 测试辅助 ──

func setupTestAuthService() (AuthService, *testRepos, *jwt.Manager, *mockBlacklist) {
	repo, repos := newTestRepos()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-for-unit-tests",
			AccessTokenTTL: time.Hour,
		},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	blacklist := newMockBlacklist()
	svc := NewAuthService(cfg, repo, jwtMgr, blacklist, zap.NewNop())
	return svc, repos, jwtMgr, blacklist
}

func createTestUser(t *testing.T, repos *testRepos, username, password, role, department string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成密码哈希失败: %v", err)
	}
	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Department:   department,
	}
	_ = repos.users.Create(context.Background(), user)
	return user
}

// ── Login 测试 ──

func TestAuthService_Login_Success(t *testing.T) {
	svc, repos, jwtMgr, _ := setupTestAuthService()
	user := createTestUser(t, repos, "CCS", "user123", model.RoleRequester, "College of Computer Studies")

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "CCS", Password: "user123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("期望 expires_in=3600，实际=%d", resp.ExpiresIn)
	}
	if resp.User.Department != "College of Computer Studies" {
		t.Errorf("部门不符: %s", resp.User.Department)
	}

	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("签发的 Token 应可解析: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != model.RoleRequester {
		t.Errorf("Claims 不符: %+v", claims)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, repos, _, _ := setupTestAuthService()
	createTestUser(t, repos, "admin", "admin123", model.RoleAdmin, "Administration")

	tests := []struct {
		name string
		req  dto.LoginRequest
	}{
		{"密码错误", dto.LoginRequest{Username: "admin", Password: "wrong"}},
		{"用户不存在", dto.LoginRequest{Username: "ghost", Password: "admin123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), &tt.req)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
			}
		})
	}
}

// ── Logout / GetCurrentUser 测试 ──

func TestAuthService_Logout_BlacklistsToken(t *testing.T) {
	svc, _, _, blacklist := setupTestAuthService()

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(30*time.Minute)); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	ttl, ok := blacklist.entries["jti-1"]
	if !ok {
		t.Fatal("期望 jti 写入黑名单")
	}
	if ttl <= 0 || ttl > 30*time.Minute {
		t.Errorf("黑名单 TTL 不符: %s", ttl)
	}
}

func TestAuthService_Logout_WithoutBlacklist(t *testing.T) {
	repo, _ := newTestRepos()
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret-key-for-unit-tests", AccessTokenTTL: time.Hour}}
	svc := NewAuthService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, zap.NewNop())

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Errorf("未配置 Redis 时 Logout 应降级为成功: %v", err)
	}
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	svc, repos, _, _ := setupTestAuthService()
	user := createTestUser(t, repos, "CCS", "user123", model.RoleRequester, "College of Computer Studies")

	resp, err := svc.GetCurrentUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetCurrentUser 应成功: %v", err)
	}
	if resp.Username != "CCS" {
		t.Errorf("用户名不符: %s", resp.Username)
	}

	_, err = svc.GetCurrentUser(context.Background(), 999)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
