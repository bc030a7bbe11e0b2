package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wagamachi/meiten/config"
	"github.com/wagamachi/meiten/database"
	"github.com/wagamachi/meiten/internal/auth"
	"github.com/wagamachi/meiten/internal/image"
	"github.com/wagamachi/meiten/internal/repositories"
	"github.com/wagamachi/meiten/internal/story"
	"github.com/wagamachi/meiten/storage"
	cryptopackage "github.com/wagamachi/meiten/utils/crypto"
	"github.com/wagamachi/meiten/utils/generator"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	storage         storage.Provider
	repositories    *repositories.Repositories

	images       *image.Manager
	stories      *story.Service
	jwtService   *auth.JWTService
	loginService *auth.LoginService
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init 初始化所有服务
func (c *Container) Init(ctx context.Context) error {
	zap.L().Info("Initializing DI container...")

	if err := c.InitDatabase(); err != nil {
		return err
	}

	provider, err := storage.NewProvider(ctx, c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.storage = provider

	return c.wire()
}

// InitDatabase 仅初始化数据库，供迁移与管理命令使用
func (c *Container) InitDatabase() error {
	if c.databaseFactory != nil {
		return nil
	}
	factory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = factory
	c.repositories = repositories.NewRepositories(factory.GetProvider())
	return nil
}

// wire 组装业务服务
func (c *Container) wire() error {
	c.images = image.NewManager(c.storage, generator.NewPathGenerator(), image.Config{
		Bucket:       c.config.StorageBucket,
		SignedURLTTL: c.config.StorageSignedURLTTL,
		MaxSize:      c.config.UploadMaxBytes(),
		Workers:      c.config.WorkerCount,
	})
	c.stories = story.NewService(c.repositories.Stories, c.repositories.Shops, c.images)

	jwtService, err := auth.NewJWTService(auth.TokenConfig{
		Secret:    []byte(c.config.JWTSecret),
		ExpiresIn: c.config.JWTExpiresIn,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	c.jwtService = jwtService
	c.loginService = auth.NewLoginService(c.repositories.Accounts, jwtService, c.PasswordHasher())

	zap.L().Info("DI container initialized successfully")
	return nil
}

// PasswordHasher 密码哈希器
func (c *Container) PasswordHasher() *cryptopackage.PasswordHasher {
	return cryptopackage.NewPasswordHasher(cryptopackage.DefaultParams)
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDatabaseProvider 获取数据库提供者
func (c *Container) GetDatabaseProvider() database.Provider {
	if c.databaseFactory == nil {
		return nil
	}
	return c.databaseFactory.GetProvider()
}

// GetDatabaseFactory 获取数据库工厂
func (c *Container) GetDatabaseFactory() *database.Factory {
	return c.databaseFactory
}

// GetRepositories 获取所有仓库
func (c *Container) GetRepositories() *repositories.Repositories {
	return c.repositories
}

// GetStorage 获取存储提供者
func (c *Container) GetStorage() storage.Provider {
	return c.storage
}

// GetStoryService 获取故事服务
func (c *Container) GetStoryService() *story.Service {
	return c.stories
}

// GetJWTService 获取 JWT 服务
func (c *Container) GetJWTService() *auth.JWTService {
	return c.jwtService
}

// GetLoginService 获取登录服务
func (c *Container) GetLoginService() *auth.LoginService {
	return c.loginService
}

// Close 关闭所有服务
func (c *Container) Close() error {
	zap.L().Info("Closing DI container...")

	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			zap.L().Error("Error closing database factory", zap.Error(err))
			return err
		}
	}

	zap.L().Info("DI container closed")
	return nil
}
