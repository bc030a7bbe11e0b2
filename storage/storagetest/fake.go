// Package storagetest 提供内存存储实现，供上层测试使用
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/wagamachi/meiten/storage"
)

// Provider 内存存储，签名 URL 形如 {signedBase}?token=ttl-{seconds}
type Provider struct {
	mu      sync.Mutex
	layout  storage.Layout
	objects map[string][]byte
	types   map[string]string

	// MaxTTL 模拟签名有效期上限
	MaxTTL time.Duration
	// UploadErr 非空时所有上传失败
	UploadErr error
	// SignErr 非空时所有签名失败
	SignErr error

	signCalls int
}

// New 创建使用 Supabase 风格 URL 的内存存储
func New(baseURL string) *Provider {
	return &Provider{
		layout:  storage.SupabaseStyleLayout(baseURL),
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func key(bucket, objectPath string) string {
	return bucket + "/" + objectPath
}

func (p *Provider) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, size int64, contentType string) error {
	if p.UploadErr != nil {
		return p.UploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	k := key(bucket, objectPath)
	if _, ok := p.objects[k]; ok {
		return storage.ErrObjectExists
	}
	p.objects[k] = data
	p.types[k] = contentType
	return nil
}

func (p *Provider) SignedURL(ctx context.Context, bucket, objectPath string, ttl time.Duration) (string, error) {
	p.mu.Lock()
	p.signCalls++
	p.mu.Unlock()

	if p.SignErr != nil {
		return "", p.SignErr
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		return "", errors.New("storagetest: ttl exceeds maximum")
	}
	return fmt.Sprintf("%s?token=ttl-%d", p.layout.SignedBase(bucket, objectPath), int64(ttl.Seconds())), nil
}

func (p *Provider) PublicURL(bucket, objectPath string) string {
	return p.layout.PublicURL(bucket, objectPath)
}

func (p *Provider) MaxSignedURLTTL() time.Duration { return p.MaxTTL }

func (p *Provider) Layout() storage.Layout { return p.layout }

func (p *Provider) Health(ctx context.Context) error { return nil }

func (p *Provider) Name() string { return "memory" }

// Object 读取已上传对象
func (p *Provider) Object(bucket, objectPath string) ([]byte, string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := key(bucket, objectPath)
	data, ok := p.objects[k]
	return data, p.types[k], ok
}

// Count 已上传对象数量
func (p *Provider) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.objects)
}

// SignCalls 签名调用次数
func (p *Provider) SignCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signCalls
}

var _ storage.Provider = (*Provider)(nil)
