package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wagamachi/meiten/config"
)

// GormProvider GORM 数据库提供者实现
type GormProvider struct {
	db     *gorm.DB
	dbType string
}

// newGormLogger 开发环境输出全部 SQL，其余环境静默
func newGormLogger(cfg *config.Config) logger.Interface {
	level := logger.Silent
	colorful := false
	if cfg.IsDevelopment() {
		level = logger.Info
		colorful = true
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  colorful,
		},
	)
}

// NewGormProvider 创建新的 GORM 数据库提供者
func NewGormProvider(cfg *config.Config) (*GormProvider, error) {
	dbType := cfg.DBType

	gormConfig := &gorm.Config{
		Logger:                 newGormLogger(cfg),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	var db *gorm.DB
	var err error

	switch dbType {
	case "sqlite", "sqlite3", "":
		dbType = "sqlite"
		path := cfg.DBFilePath
		if path == "" {
			path = "./data/meiten.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		// WAL 模式
		dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
		db, err = gorm.Open(sqlite.Open(dsn), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite3 database: %w", err)
		}
		zap.L().Info("Using SQLite database file", zap.String("path", path))

	case "postgres", "postgresql":
		dbType = "postgres"
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUsername,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBSSLMode,
		)

		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
		}
		zap.L().Info("Connected to PostgreSQL database",
			zap.String("host", cfg.DBHost), zap.Int("port", cfg.DBPort))

	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB instance: %w", err)
	}

	// 使用配置文件中的连接池参数
	maxOpenConns := cfg.DBMaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 100
	}
	maxIdleConns := cfg.DBMaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 10
	}
	connMaxLifetime := cfg.DBConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 3600
	}

	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)

	return &GormProvider{
		db:     db,
		dbType: dbType,
	}, nil
}

// NewGormProviderFromDB 包装已有连接
func NewGormProviderFromDB(db *gorm.DB, dbType string) *GormProvider {
	return &GormProvider{db: db, dbType: dbType}
}

// DB 返回底层 *gorm.DB 实例
func (p *GormProvider) DB() *gorm.DB {
	return p.db
}

// WithContext 返回带上下文的 *gorm.DB
func (p *GormProvider) WithContext(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}

// Transaction 在事务中执行函数
func (p *GormProvider) Transaction(fn TxFunc) error {
	return p.db.Transaction(fn)
}

// TransactionWithContext 带上下文的事务执行
func (p *GormProvider) TransactionWithContext(ctx context.Context, fn TxFunc) error {
	return p.db.WithContext(ctx).Transaction(fn)
}

// AutoMigrate 自动迁移数据库结构
func (p *GormProvider) AutoMigrate(models ...interface{}) error {
	return p.db.AutoMigrate(models...)
}

// SQLDB 返回底层 sql.DB
func (p *GormProvider) SQLDB() (*sql.DB, error) {
	return p.db.DB()
}

// Ping 检查数据库连接
func (p *GormProvider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (p *GormProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	zap.L().Info("Closing database connection...")
	return sqlDB.Close()
}

// Name 返回数据库名称
func (p *GormProvider) Name() string {
	return p.dbType
}
