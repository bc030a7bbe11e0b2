package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectExists 目标路径已存在对象，上传从不覆盖
	ErrObjectExists = errors.New("storage: object already exists")
	// ErrObjectNotFound 对象不存在
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrSigningUnsupported 当前存储无法签发临时 URL（公开桶或后端不支持）
	ErrSigningUnsupported = errors.New("storage: signed urls are not supported")
)

// Provider 存储提供者接口 - 依赖倒置的核心抽象
// 所有对象都位于某个 bucket 下，objectPath 为 bucket 内的相对路径
type Provider interface {
	// Upload 上传对象，路径已存在时返回 ErrObjectExists
	Upload(ctx context.Context, bucket, objectPath string, r io.Reader, size int64, contentType string) error

	// SignedURL 生成限时访问 URL
	SignedURL(ctx context.Context, bucket, objectPath string, ttl time.Duration) (string, error)

	// PublicURL 返回对象的公开 URL，不做任何网络请求
	PublicURL(bucket, objectPath string) string

	// MaxSignedURLTTL 签名 URL 的最长有效期，0 表示不限制
	MaxSignedURLTTL() time.Duration

	// Layout 返回该存储对外 URL 的结构，用于识别自有 URL
	Layout() Layout

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
