package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-venue/config"
)

var (
	ErrEmptyFile       = errors.New("文件内容为空")
	ErrFileTooLarge    = errors.New("文件超过大小上限")
	ErrUnsupportedType = errors.New("仅支持 PDF 文件")
	ErrInvalidRef      = errors.New("无效的文件引用")
	ErrBlobNotFound    = errors.New("文件不存在")
)

// acceptedTypes 允许的扩展名 → 内容嗅探得到的 MIME
var acceptedTypes = map[string]string{
	"pdf": "application/pdf",
}

// LocalStore 基于本地目录的文档存储
//
// 引用格式为 "<uuid>.<ext>"，对调用方不透明。
type LocalStore struct {
	root     string
	maxBytes int64
	logger   *zap.Logger
}

// NewLocalStore 创建本地存储并确保根目录存在
func NewLocalStore(cfg *config.StorageConfig, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.RootDir, 0o750); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalStore{root: cfg.RootDir, maxBytes: cfg.MaxUploadBytes, logger: logger}, nil
}

// Store 校验并保存文件，返回引用
func (s *LocalStore) Store(_ context.Context, data []byte, declaredExt string) (string, error) {
	ext := normalizeExt(declaredExt)
	wantMIME, ok := acceptedTypes[ext]
	if !ok {
		return "", ErrUnsupportedType
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrFileTooLarge
	}
	if !mimetype.Detect(data).Is(wantMIME) {
		return "", ErrUnsupportedType
	}

	ref := uuid.NewString() + "." + ext

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.root, ref)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("保存文件失败: %w", err)
	}

	s.logger.Debug("文件已保存", zap.String("ref", ref), zap.Int("size", len(data)))
	return ref, nil
}

// Open 读取文件全部内容
func (s *LocalStore) Open(_ context.Context, ref string) ([]byte, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return data, nil
}

// Delete 删除文件
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

// resolve 校验引用格式，防止路径穿越
func (s *LocalStore) resolve(ref string) (string, error) {
	name, ext, ok := strings.Cut(ref, ".")
	if !ok {
		return "", ErrInvalidRef
	}
	if _, known := acceptedTypes[ext]; !known {
		return "", ErrInvalidRef
	}
	if _, err := uuid.Parse(name); err != nil {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.root, ref), nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
