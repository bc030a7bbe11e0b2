// Package dbtest 为各包测试提供迁移完成的 SQLite 数据库
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wagamachi/meiten/database"
	"github.com/wagamachi/meiten/database/models"
)

// Open 创建测试数据库
// 使用临时文件 + WAL，单连接保证并发写入按顺序执行
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// Provider 包装为 database.Provider
func Provider(t testing.TB) database.Provider {
	t.Helper()
	return database.NewGormProviderFromDB(Open(t), "sqlite")
}

// Ptr 返回指针，便于构造可空字段
func Ptr[T any](v T) *T {
	return &v
}
