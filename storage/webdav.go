package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	// PublicBaseURL 浏览器访问对象时使用的地址，为空时使用 URL + RootPath
	PublicBaseURL string
	Timeout       time.Duration
}

// WebDAVStorage WebDAV 存储实现
// bucket 映射为根目录下的一级目录；WebDAV 没有签名 URL，所有对象按公开处理
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
	layout   Layout
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath := cfg.RootPath
	if rootPath != "" {
		rootPath = strings.Trim(rootPath, "/")
		if rootPath != "" {
			rootPath = "/" + rootPath
		}
	}

	// 创建 WebDAV 客户端
	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	// 验证连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := runWithContext(ctx, func() error {
		_, err := client.ReadDir(rootPath)
		return err
	}); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	baseURL := strings.TrimRight(cfg.URL, "/")
	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = baseURL + rootPath
	}

	return &WebDAVStorage{
		client:   client,
		baseURL:  baseURL,
		rootPath: rootPath,
		layout:   PathStyleLayout(publicBase),
	}, nil
}

// runWithContext 在 goroutine 中执行不支持 context 的调用
func runWithContext(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(bucket, objectPath string) string {
	p := bucket + "/" + strings.TrimLeft(objectPath, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + p
	}
	return "/" + p
}

// ensureParentDir 递归创建父目录
func (s *WebDAVStorage) ensureParentDir(ctx context.Context, fullPath string) error {
	parentDir := path.Dir(fullPath)

	// 根目录无需创建
	if parentDir == "/" || parentDir == "." {
		return nil
	}

	// 逐级分解路径
	parts := strings.Split(strings.Trim(parentDir, "/"), "/")
	currentPath := ""

	for _, part := range parts {
		if part == "" {
			continue
		}
		currentPath = currentPath + "/" + part

		p := currentPath
		err := runWithContext(ctx, func() error {
			return s.client.Mkdir(p, os.FileMode(0755))
		})
		if err != nil && !isCollectionExistsError(err) {
			return fmt.Errorf("failed to create directory %s: %w", currentPath, err)
		}
	}

	return nil
}

// isCollectionExistsError 判断是否为目录已存在的错误
func isCollectionExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// 常见 WebDAV 服务器的 "目录已存在" 错误信息
	for _, s := range []string{"already exists", "Conflict", "409", "Method Not Allowed", "405"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// Upload 保存文件到 WebDAV，目标已存在时返回 ErrObjectExists
func (s *WebDAVStorage) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, size int64, contentType string) error {
	if !IsValidBucketName(bucket) || !IsValidStoragePath(objectPath) {
		return fmt.Errorf("invalid storage path: %s/%s", bucket, objectPath)
	}
	fullPath := s.fullPath(bucket, objectPath)

	exists, err := s.exists(ctx, fullPath)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s/%s", ErrObjectExists, bucket, objectPath)
	}

	if err := s.ensureParentDir(ctx, fullPath); err != nil {
		return fmt.Errorf("failed to ensure parent directory for %s: %w", objectPath, err)
	}

	err = runWithContext(ctx, func() error {
		return s.client.WriteStream(fullPath, r, 0644)
	})
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", objectPath, err)
	}
	return nil
}

// exists 检查文件是否存在
func (s *WebDAVStorage) exists(ctx context.Context, fullPath string) (bool, error) {
	var found bool
	err := runWithContext(ctx, func() error {
		_, err := s.client.Stat(fullPath)
		if err == nil {
			found = true
			return nil
		}
		if gowebdav.IsErrNotFound(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", fullPath, err)
	}
	return found, nil
}

// SignedURL WebDAV 不支持签名
func (s *WebDAVStorage) SignedURL(ctx context.Context, bucket, objectPath string, ttl time.Duration) (string, error) {
	return "", ErrSigningUnsupported
}

// PublicURL 返回公开 URL
func (s *WebDAVStorage) PublicURL(bucket, objectPath string) string {
	return s.layout.PublicURL(bucket, objectPath)
}

// MaxSignedURLTTL 无签名能力
func (s *WebDAVStorage) MaxSignedURLTTL() time.Duration {
	return 0
}

// Layout 返回 URL 结构
func (s *WebDAVStorage) Layout() Layout {
	return s.layout
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	// 如果 client 为 nil（测试场景），直接返回
	if s.client == nil {
		return nil
	}
	return runWithContext(ctx, func() error {
		_, err := s.client.ReadDir(s.rootPath)
		return err
	})
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	if s.baseURL == "" {
		return "webdav"
	}
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}
