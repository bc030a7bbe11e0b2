package storage

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// sigV4MaxExpiry S3 SigV4 预签名的最长有效期
const sigV4MaxExpiry = 7 * 24 * time.Hour

// MinioConfig MinIO 存储配置
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string
	Bucket          string
	Public          bool
}

// MinioStorage MinIO 存储实现
type MinioStorage struct {
	client *minio.Client
	layout Layout
	public bool
}

// mustGetSystemCertPool 获取系统证书池
func mustGetSystemCertPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		zap.L().Warn("Failed to load system cert pool", zap.Error(err))
		return x509.NewCertPool()
	}
	return pool
}

// NewMinioStorage 创建 MinIO 存储并确保 bucket 存在
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		DisableCompression:    true,
	}

	// SSL
	if cfg.UseSSL {
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		if f := os.Getenv("SSL_CERT_FILE"); f != "" {
			rootCAs := mustGetSystemCertPool()
			data, err := os.ReadFile(f)
			if err == nil {
				rootCAs.AppendCertsFromPEM(data)
			}
			transport.TLSClientConfig.RootCAs = rootCAs
		}
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket '%s' exists: %w", cfg.Bucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", cfg.Bucket, err)
		}
		zap.L().Info("Successfully created bucket", zap.String("bucket", cfg.Bucket))
	}

	return &MinioStorage{
		client: client,
		layout: PathStyleLayout(client.EndpointURL().String()),
		public: cfg.Public,
	}, nil
}

// Upload 将文件上传到 MinIO，对象已存在时返回 ErrObjectExists
func (s *MinioStorage) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.StatObject(ctx, bucket, objectPath, minio.StatObjectOptions{})
	if err == nil {
		return fmt.Errorf("%w: %s/%s", ErrObjectExists, bucket, objectPath)
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to stat object '%s' in minio: %w", objectPath, err)
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "max-age=3600",
	})
	if err != nil {
		return fmt.Errorf("failed to upload object '%s' to minio: %w", objectPath, err)
	}

	return nil
}

// SignedURL 生成预签名 GET URL
func (s *MinioStorage) SignedURL(ctx context.Context, bucket, objectPath string, ttl time.Duration) (string, error) {
	if s.public {
		return "", ErrSigningUnsupported
	}
	u, err := s.client.PresignedGetObject(ctx, bucket, objectPath, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object '%s': %w", objectPath, err)
	}
	return u.String(), nil
}

// PublicURL 返回 path-style 公开 URL
func (s *MinioStorage) PublicURL(bucket, objectPath string) string {
	return s.layout.PublicURL(bucket, objectPath)
}

// MaxSignedURLTTL SigV4 限制
func (s *MinioStorage) MaxSignedURLTTL() time.Duration {
	return sigV4MaxExpiry
}

// Layout 返回 URL 结构
func (s *MinioStorage) Layout() Layout {
	return s.layout
}

// Health 检查存储健康状态
func (s *MinioStorage) Health(ctx context.Context) error {
	_, err := s.client.ListBuckets(ctx)
	return err
}

// Name 返回存储名称
func (s *MinioStorage) Name() string {
	return "minio"
}
