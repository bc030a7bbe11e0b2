package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/wagamachi/meiten/database/models"
)

var (
	// ErrUserNotFound 用户不存在错误
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists 邮箱已被注册
	ErrEmailExists = errors.New("email already registered")
)

// Repository 账户仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的账户仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 创建用户，邮箱重复时返回 ErrEmailExists
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}

// GetByEmail 通过邮箱获取用户
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 通过 ID 获取用户
func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// NormalizeEmail 邮箱统一小写并去除首尾空白
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isUniqueViolation 兼容 gorm 翻译后的错误与 PostgreSQL 原始错误
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
