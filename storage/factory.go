package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wagamachi/meiten/config"
)

// NewProvider 根据配置创建存储提供者
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	zap.L().Info("Initializing storage provider", zap.String("type", cfg.StorageType))

	var (
		provider Provider
		err      error
	)

	switch cfg.StorageType {
	case "local":
		secret := cfg.StorageSigningSecret
		if secret == "" {
			secret = cfg.JWTSecret
		}
		provider, err = NewLocalStorage(LocalConfig{
			BasePath:      cfg.StorageLocalPath,
			BaseURL:       cfg.StorageBaseURL(),
			Public:        cfg.StoragePublic,
			SigningSecret: []byte(secret),
		})
	case "minio":
		provider, err = NewMinioStorage(MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKeyID,
			SecretAccessKey: cfg.MinioSecretAccessKey,
			UseSSL:          cfg.MinioUseSSL,
			Region:          cfg.MinioRegion,
			Bucket:          cfg.StorageBucket,
			Public:          cfg.StoragePublic,
		})
	case "s3":
		provider, err = NewS3Storage(ctx, S3Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.StorageBucket,
			Public:          cfg.StoragePublic,
		})
	case "webdav":
		provider, err = NewWebDAVStorage(WebDAVConfig{
			URL:           cfg.WebDAVURL,
			Username:      cfg.WebDAVUsername,
			Password:      cfg.WebDAVPassword,
			PublicBaseURL: cfg.StoragePublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.StorageType, err)
	}

	zap.L().Info("Storage provider ready", zap.String("name", provider.Name()))
	return provider, nil
}
