// Package image 管理故事图片：选择校验、上传与展示 URL 的解析
package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wagamachi/meiten/internal/apperr"
	"github.com/wagamachi/meiten/storage"
	"github.com/wagamachi/meiten/utils/generator"
)

// DefaultSignedURLTTL 签名 URL 默认有效期 5 年
const DefaultSignedURLTTL = 5 * 365 * 24 * time.Hour

// Config 图片管理器配置
type Config struct {
	Bucket       string
	SignedURLTTL time.Duration
	MaxSize      int64
	Workers      int
}

// Manager 图片生命周期管理
type Manager struct {
	provider storage.Provider
	paths    *generator.PathGenerator
	cfg      Config
}

// NewManager 创建图片管理器
func NewManager(provider storage.Provider, paths *generator.PathGenerator, cfg Config) *Manager {
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = DefaultSignedURLTTL
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if paths == nil {
		paths = generator.NewPathGenerator()
	}
	return &Manager{provider: provider, paths: paths, cfg: cfg}
}

// MaxSize 单张图片上限
func (m *Manager) MaxSize() int64 {
	return m.cfg.MaxSize
}

// NewAttachment 按管理器配置创建附件
func (m *Manager) NewAttachment(existingURL string) *Attachment {
	return NewAttachment(existingURL, m.cfg.MaxSize)
}

// Resolve 保存时确定最终的图片 URL
// 有新文件时上传并使用新 URL；否则标记删除则为空；否则保持原值
// 返回 nil 表示故事没有图片
func (m *Manager) Resolve(ctx context.Context, ownerID string, a *Attachment) (*string, error) {
	switch {
	case a.state == StateLocallySelected && a.selected != nil:
		a.beginUpload()
		url, err := m.Upload(ctx, ownerID, a.selected)
		if err != nil {
			a.abortUpload()
			return nil, err
		}
		a.completeUpload(url)
		return &url, nil
	case a.markedForRemoval:
		return nil, nil
	case a.existingURL != "":
		url := a.existingURL
		return &url, nil
	}
	return nil, nil
}

// Upload 上传图片并返回需要持久化的 URL
func (m *Manager) Upload(ctx context.Context, ownerID string, f *File) (string, error) {
	if err := ValidateSelection(f, m.cfg.MaxSize); err != nil {
		return "", err
	}

	objectPath, err := m.paths.ObjectPath(ownerID, ExtensionFor(f.Name, f.ContentType))
	if err != nil {
		return "", fmt.Errorf("failed to build object path: %w", err)
	}

	if err := m.provider.Upload(ctx, m.cfg.Bucket, objectPath, f.Reader, f.Size, f.ContentType); err != nil {
		return "", apperr.Upstream("upload image", err)
	}

	zap.L().Info("Story image uploaded",
		zap.String("bucket", m.cfg.Bucket),
		zap.String("path", objectPath),
		zap.Int64("size", f.Size))

	return m.persistableURL(ctx, objectPath), nil
}

// persistableURL 优先保存长期签名 URL，无法签名时使用公开 URL
// 签名有效期受限的存储（SigV4 最长 7 天）保存公开 URL，展示时再签名
func (m *Manager) persistableURL(ctx context.Context, objectPath string) string {
	publicURL := m.provider.PublicURL(m.cfg.Bucket, objectPath)

	if max := m.provider.MaxSignedURLTTL(); max > 0 && m.cfg.SignedURLTTL > max {
		return publicURL
	}

	signed, err := m.provider.SignedURL(ctx, m.cfg.Bucket, objectPath, m.cfg.SignedURLTTL)
	if err != nil {
		if !errors.Is(err, storage.ErrSigningUnsupported) {
			zap.L().Warn("Failed to sign uploaded image, falling back to public url",
				zap.String("path", objectPath), zap.Error(err))
		}
		return publicURL
	}
	return signed
}

// displayTTL 展示时签名使用的有效期
func (m *Manager) displayTTL() time.Duration {
	ttl := m.cfg.SignedURLTTL
	if max := m.provider.MaxSignedURLTTL(); max > 0 && ttl > max {
		ttl = max
	}
	return ttl
}

// EnsureDisplayURL 将保存的 URL 转为浏览器可直接使用的 URL，不会失败
//
//  1. 空值原样返回
//  2. 已签名，或不属于当前存储的 URL 原样返回
//  3. 公开 URL 解析出 bucket 与路径后重新签名，失败时返回原值
//  4. 其余原样返回
func (m *Manager) EnsureDisplayURL(ctx context.Context, stored string) string {
	if stored == "" {
		return ""
	}

	layout := m.provider.Layout()
	if layout.IsSigned(stored) || !layout.Owns(stored) {
		return stored
	}

	bucket, objectPath, ok := layout.ParsePublic(stored)
	if !ok {
		return stored
	}

	signed, err := m.provider.SignedURL(ctx, bucket, objectPath, m.displayTTL())
	if err != nil {
		if !errors.Is(err, storage.ErrSigningUnsupported) {
			zap.L().Warn("Failed to sign display url",
				zap.String("bucket", bucket), zap.String("path", objectPath), zap.Error(err))
		}
		return stored
	}
	return signed
}

// EnsureDisplayURLPtr 可空版本
func (m *Manager) EnsureDisplayURLPtr(ctx context.Context, stored *string) string {
	if stored == nil {
		return ""
	}
	return m.EnsureDisplayURL(ctx, *stored)
}

// EnsureDisplayURLs 并发解析一批 URL，结果与输入顺序一致
func (m *Manager) EnsureDisplayURLs(ctx context.Context, urls []string) []string {
	results := make([]string, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)

	for i, u := range urls {
		g.Go(func() error {
			results[i] = m.EnsureDisplayURL(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
