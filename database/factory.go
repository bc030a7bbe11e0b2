package database

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wagamachi/meiten/config"
	"github.com/wagamachi/meiten/database/models"
)

// Factory 数据库工厂 - 负责创建数据库提供者并执行迁移
type Factory struct {
	provider Provider
}

// NewFactory 创建新的数据库工厂
func NewFactory(cfg *config.Config) (*Factory, error) {
	zap.L().Info("Initializing database provider...")

	provider, err := NewGormProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database provider: %w", err)
	}

	zap.L().Info("Database provider initialized", zap.String("name", provider.Name()))

	return &Factory{provider: provider}, nil
}

// GetProvider 获取数据库提供者
func (f *Factory) GetProvider() Provider {
	return f.provider
}

// Close 关闭数据库连接
func (f *Factory) Close() error {
	if f.provider != nil {
		return f.provider.Close()
	}
	return nil
}

// AutoMigrate 自动迁移数据库结构
func (f *Factory) AutoMigrate() error {
	if f.provider == nil {
		return fmt.Errorf("database provider not initialized")
	}
	return Migrate(f.provider)
}

// Migrate 迁移全部模型
func Migrate(p Provider) error {
	zap.L().Info("Running database auto migration...")
	if err := p.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}
	zap.L().Info("Database auto migration completed.")
	return nil
}
