package stories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wagamachi/meiten/database/models"
)

// ErrStoryNotFound 故事不存在，或不满足查询条件
var ErrStoryNotFound = errors.New("story not found")

// Filter 我的故事列表过滤条件
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPublished Filter = "published"
	FilterDraft     Filter = "draft"
)

// ParseFilter 解析过滤条件，未知值按 all 处理
func ParseFilter(s string) Filter {
	switch f := Filter(s); f {
	case FilterPublished, FilterDraft:
		return f
	}
	return FilterAll
}

// Counts 各状态的故事数量
type Counts struct {
	All       int64 `json:"all"`
	Published int64 `json:"published"`
	Draft     int64 `json:"draft"`
}

// Repository 故事仓库 - 封装所有故事相关的数据库操作
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的故事仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 创建故事
func (r *Repository) Create(ctx context.Context, story *models.Story) error {
	return r.db.WithContext(ctx).Omit("Shop").Create(story).Error
}

// GetByID 根据 ID 获取故事，预加载关联店铺
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	var story models.Story
	err := r.db.WithContext(ctx).Preload("Shop").First(&story, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// GetByIDAndOwner 获取属于指定用户的故事
func (r *Repository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Story, error) {
	var story models.Story
	err := r.db.WithContext(ctx).Preload("Shop").
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&story).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// Update 更新属于指定用户的故事
// fields 使用 map 以便写入 NULL
func (r *Repository) Update(ctx context.Context, id, ownerID string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Story{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStoryNotFound
	}
	return nil
}

// SetPublished 切换发布状态
func (r *Repository) SetPublished(ctx context.Context, id, ownerID string, published bool) error {
	return r.Update(ctx, id, ownerID, map[string]interface{}{"published": published})
}

// Delete 删除属于指定用户的故事
func (r *Repository) Delete(ctx context.Context, id, ownerID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Story{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStoryNotFound
	}
	return nil
}

// ListPublished 已发布故事，按创建时间倒序
func (r *Repository) ListPublished(ctx context.Context) ([]models.Story, error) {
	var list []models.Story
	err := r.db.WithContext(ctx).Preload("Shop").
		Where("published = ?", true).
		Order("created_at desc").
		Find(&list).Error
	return list, err
}

// ListByOwner 我的故事列表
func (r *Repository) ListByOwner(ctx context.Context, ownerID string, filter Filter) ([]models.Story, error) {
	var list []models.Story
	q := r.db.WithContext(ctx).Preload("Shop").Where("user_id = ?", ownerID)
	switch filter {
	case FilterPublished:
		q = q.Where("published = ?", true)
	case FilterDraft:
		q = q.Where("published = ?", false)
	}
	err := q.Order("created_at desc").Find(&list).Error
	return list, err
}

// CountByOwner 统计用户各状态故事数
func (r *Repository) CountByOwner(ctx context.Context, ownerID string) (*Counts, error) {
	var rows []struct {
		Published bool
		Count     int64
	}
	err := r.db.WithContext(ctx).Model(&models.Story{}).
		Select("published, COUNT(*) as count").
		Where("user_id = ?", ownerID).
		Group("published").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := &Counts{}
	for _, row := range rows {
		if row.Published {
			counts.Published = row.Count
		} else {
			counts.Draft = row.Count
		}
		counts.All += row.Count
	}
	return counts, nil
}

// IncrementReaction 原子地将已发布故事的某个反应计数加一，并返回最新计数
func (r *Repository) IncrementReaction(ctx context.Context, id string, kind models.ReactionKind) (*models.Reactions, error) {
	if _, ok := models.ParseReactionKind(string(kind)); !ok {
		return nil, fmt.Errorf("unknown reaction kind: %q", kind)
	}
	column := kind.Column()
	var story models.Story

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Story{}).
			Where("id = ? AND published = ?", id, true).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStoryNotFound
		}

		return tx.Select("id", "reactions_visit", "reactions_touched", "reactions_warm").
			First(&story, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	reactions := story.Reactions()
	return &reactions, nil
}
