package shops

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/wagamachi/meiten/database/models"
)

// ErrShopNotFound 店铺不存在
var ErrShopNotFound = errors.New("shop not found")

// Repository 店铺仓库 - 封装店铺主数据的查询
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的店铺仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithContext 返回带上下文的仓库副本
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}

// List 列出店铺，area 非空时按区域过滤
func (r *Repository) List(ctx context.Context, area string) ([]models.Shop, error) {
	var shops []models.Shop
	q := r.db.WithContext(ctx).Model(&models.Shop{})
	if area != "" {
		q = q.Where("area = ?", area)
	}
	err := q.Order("name asc").Order("created_at asc").Find(&shops).Error
	return shops, err
}

// FindByTriple 按 (name, area, genre) 精确匹配，按创建顺序返回
func (r *Repository) FindByTriple(ctx context.Context, name, area, genre string) ([]models.Shop, error) {
	var shops []models.Shop
	err := r.db.WithContext(ctx).
		Where("name = ? AND area = ? AND genre = ?", name, area, genre).
		Order("created_at asc").Order("id asc").
		Find(&shops).Error
	return shops, err
}

// GetByID 根据 ID 获取店铺
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).First(&shop, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// Create 创建店铺
func (r *Repository) Create(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

// ExistsTriple 检查是否已有相同 (name, area, genre) 的店铺
func (r *Repository) ExistsTriple(ctx context.Context, name, area, genre string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Shop{}).
		Where("name = ? AND area = ? AND genre = ?", name, area, genre).
		Count(&count).Error
	return count > 0, err
}

// DistinctAreas 返回全部店铺区域，去重并排序
func (r *Repository) DistinctAreas(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "area")
}

// Suggestions 自由输入时的候选值
type Suggestions struct {
	Names  []string `json:"names"`
	Areas  []string `json:"areas"`
	Genres []string `json:"genres"`
}

// GetSuggestions 获取名称、区域、类型的候选值
func (r *Repository) GetSuggestions(ctx context.Context) (*Suggestions, error) {
	names, err := r.distinct(ctx, "name")
	if err != nil {
		return nil, err
	}
	areas, err := r.distinct(ctx, "area")
	if err != nil {
		return nil, err
	}
	genres, err := r.distinct(ctx, "genre")
	if err != nil {
		return nil, err
	}
	return &Suggestions{Names: names, Areas: areas, Genres: genres}, nil
}

// distinct 查询某列的去重非空值
func (r *Repository) distinct(ctx context.Context, column string) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).Model(&models.Shop{}).
		Where(column+" <> ''").
		Distinct(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, err
	}
	sort.Strings(values)
	return values, nil
}
