package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: "0123456789abcdef-secret"
server:
  port: 9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望 port=9090，实际=%d", cfg.Server.Port)
	}
	if cfg.Storage.MaxUploadBytes != 10<<20 {
		t.Errorf("期望默认上传上限 10MB，实际=%d", cfg.Storage.MaxUploadBytes)
	}
	if cfg.Assistant.Timeout != 30*time.Second {
		t.Errorf("期望默认 assistant.timeout=30s，实际=%s", cfg.Assistant.Timeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: "0123456789abcdef-secret"
`)
	t.Setenv("VENUE_SERVER_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("期望环境变量覆盖 port=7070，实际=%d", cfg.Server.Port)
	}
}

func TestLoad_ShortSecretRejected(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: "short"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("期望 jwt_secret 过短时返回错误")
	}
}

func TestValidate_UploadCeiling(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080},
		Auth:    AuthConfig{JWTSecret: "0123456789abcdef"},
		Storage: StorageConfig{RootDir: "./uploads", MaxUploadBytes: 0},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("期望 max_upload_bytes=0 时校验失败")
	}
}
