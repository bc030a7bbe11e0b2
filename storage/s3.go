package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config AWS S3 存储配置
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Public          bool
}

// S3Storage AWS S3 (或兼容服务) 存储实现
// 始终使用 path-style 寻址，公开 URL 形如 {endpoint}/{bucket}/{key}
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	layout  Layout
	bucket  string
	public  bool
}

// NewS3Storage 创建 S3 存储提供者
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		layout:  PathStyleLayout(endpoint),
		bucket:  cfg.Bucket,
		public:  cfg.Public,
	}, nil
}

// Upload 上传对象，使用 If-None-Match 防止覆盖
func (s *S3Storage) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectPath),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("max-age=3600"),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return fmt.Errorf("%w: %s/%s", ErrObjectExists, bucket, objectPath)
		}
		return fmt.Errorf("failed to upload object '%s' to s3: %w", objectPath, err)
	}
	return nil
}

// SignedURL 生成预签名 GET URL
func (s *S3Storage) SignedURL(ctx context.Context, bucket, objectPath string, ttl time.Duration) (string, error) {
	if s.public {
		return "", ErrSigningUnsupported
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectPath),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign object '%s': %w", objectPath, err)
	}
	return req.URL, nil
}

// PublicURL 返回 path-style 公开 URL
func (s *S3Storage) PublicURL(bucket, objectPath string) string {
	return s.layout.PublicURL(bucket, objectPath)
}

// MaxSignedURLTTL SigV4 限制
func (s *S3Storage) MaxSignedURLTTL() time.Duration {
	return sigV4MaxExpiry
}

// Layout 返回 URL 结构
func (s *S3Storage) Layout() Layout {
	return s.layout
}

// Health 检查 bucket 是否可访问
func (s *S3Storage) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

// Name 返回存储名称
func (s *S3Storage) Name() string {
	return "s3"
}
