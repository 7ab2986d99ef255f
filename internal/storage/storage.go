// Package storage 保存帖子图片，返回写入 posts.image 的相对路径
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/d60-Lab/yatube/config"
)

// UploadDir 图片统一存放的前缀目录
const UploadDir = "posts"

type Storage interface {
	// Save 写入文件，返回形如 posts/<name> 的路径
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Key 取上传文件名的 base 部分，丢弃客户端带来的目录
func Key(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" || base == "" {
		return "", fmt.Errorf("invalid upload name %q", name)
	}
	return path.Join(UploadDir, base), nil
}

// New 按 storage.driver 选择实现
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.MediaRoot), nil
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
