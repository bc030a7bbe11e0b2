package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wagamachi/meiten/database/models"
	"github.com/wagamachi/meiten/internal/di"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		container := di.NewContainer(cfg)
		if err := container.InitDatabase(); err != nil {
			return err
		}
		defer container.Close()
		return container.GetDatabaseFactory().AutoMigrate()
	},
}

// migrateCopyCmd 在两个数据库之间复制数据
var migrateCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy data between databases",
	Long: `Copy users, shops and stories from a source database to a target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  meiten migrate copy --from-sqlite ./data/meiten.db --to-postgres "host=localhost user=postgres password=secret dbname=meiten port=5432"

  # Replace existing rows in the target
  meiten migrate copy --from-sqlite ./data/meiten.db --to-postgres "..." --on-conflict=overwrite`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		strategy, err := parseConflictStrategy(onConflict)
		if err != nil {
			return err
		}
		if fromSQLite == "" || toPostgres == "" {
			return errors.New("both --from-sqlite and --to-postgres are required")
		}

		source, err := openDatabase("sqlite", fromSQLite)
		if err != nil {
			return fmt.Errorf("failed to connect to source database: %w", err)
		}
		target, err := openDatabase("postgres", toPostgres)
		if err != nil {
			return fmt.Errorf("failed to connect to target database: %w", err)
		}

		stats, err := copyDatabase(cmd.Context(), source, target, batchSize, strategy)
		printCopyStats(cmd, stats)
		return err
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateCopyCmd)

	migrateCopyCmd.Flags().String("from-sqlite", "", "Source SQLite file path")
	migrateCopyCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string")
	migrateCopyCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateCopyCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")
}

type conflictStrategy string

const (
	conflictSkip      conflictStrategy = "skip"
	conflictOverwrite conflictStrategy = "overwrite"
	conflictError     conflictStrategy = "error"
)

func parseConflictStrategy(s string) (conflictStrategy, error) {
	switch c := conflictStrategy(s); c {
	case conflictSkip, conflictOverwrite, conflictError:
		return c, nil
	}
	return "", fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", s)
}

// copyStats 迁移统计
type copyStats struct {
	tables      map[string]int
	skipped     int
	overwritten int
}

// openDatabase 打开数据库连接
func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbType {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// copyDatabase 按外键依赖顺序复制：用户、店铺、故事
func copyDatabase(ctx context.Context, source, target *gorm.DB, batchSize int, strategy conflictStrategy) (*copyStats, error) {
	stats := &copyStats{tables: make(map[string]int)}

	if err := target.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return stats, fmt.Errorf("failed to migrate schema: %w", err)
	}

	zap.L().Info("Migrating table", zap.String("table", "users"))
	if err := copyTable[models.User](ctx, source, target, "users", batchSize, strategy, stats); err != nil {
		return stats, fmt.Errorf("users migration failed: %w", err)
	}

	zap.L().Info("Migrating table", zap.String("table", "shops"))
	if err := copyTable[models.Shop](ctx, source, target, "shops", batchSize, strategy, stats); err != nil {
		return stats, fmt.Errorf("shops migration failed: %w", err)
	}

	zap.L().Info("Migrating table", zap.String("table", "stories"))
	if err := copyTable[models.Story](ctx, source, target, "stories", batchSize, strategy, stats); err != nil {
		return stats, fmt.Errorf("stories migration failed: %w", err)
	}

	return stats, nil
}

// copyTable 分批读取源表并写入目标表，冲突按主键判断
func copyTable[T any](ctx context.Context, source, target *gorm.DB, table string, batchSize int, strategy conflictStrategy, stats *copyStats) error {
	if batchSize <= 0 {
		batchSize = 100
	}

	for offset := 0; ; offset += batchSize {
		var rows []T
		if err := source.WithContext(ctx).Order("id").Limit(batchSize).Offset(offset).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		for i := range rows {
			err := target.WithContext(ctx).Omit(clause.Associations).Create(&rows[i]).Error
			if err == nil {
				stats.tables[table]++
				continue
			}
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}

			switch strategy {
			case conflictSkip:
				stats.skipped++
			case conflictOverwrite:
				if err := target.WithContext(ctx).Omit(clause.Associations).Save(&rows[i]).Error; err != nil {
					return fmt.Errorf("failed to overwrite row: %w", err)
				}
				stats.overwritten++
				stats.tables[table]++
			default:
				return fmt.Errorf("row already exists in %s: %w", table, err)
			}
		}
	}
}

// printCopyStats 打印迁移统计
func printCopyStats(cmd *cobra.Command, stats *copyStats) {
	if stats == nil {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, "       Migration Statistics")
	fmt.Fprintln(out, "========================================")
	for _, table := range []string{"users", "shops", "stories"} {
		fmt.Fprintf(out, "%-8s migrated: %d\n", table, stats.tables[table])
	}
	fmt.Fprintf(out, "Skipped records:   %d\n", stats.skipped)
	fmt.Fprintf(out, "Overwritten:       %d\n", stats.overwritten)
	fmt.Fprintln(out, "========================================")
}
