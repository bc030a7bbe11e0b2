// Package story 实现故事的投稿、展示与反应
package story

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wagamachi/meiten/database/models"
	"github.com/wagamachi/meiten/database/repo/shops"
	"github.com/wagamachi/meiten/database/repo/stories"
	"github.com/wagamachi/meiten/internal/apperr"
	"github.com/wagamachi/meiten/internal/image"
	"github.com/wagamachi/meiten/internal/shop"
)

const (
	// MsgLoadFailed 编辑页加载失败
	MsgLoadFailed = "投稿を読み込めませんでした。権限がないか、削除されている可能性があります。"
	// MsgReactionFailed 反应提交失败
	MsgReactionFailed = "リアクションを送信できませんでした。時間をおいて再度お試しください。"
)

// SubmitRequest 创建或更新故事
type SubmitRequest struct {
	// StoryID 为空时创建新故事
	StoryID     string
	OwnerID     string
	Input       Input
	NewImage    *image.File
	RemoveImage bool
}

// Service 故事服务
type Service struct {
	stories *stories.Repository
	shops   *shops.Repository
	images  *image.Manager
}

// NewService 创建故事服务
func NewService(storyRepo *stories.Repository, shopRepo *shops.Repository, images *image.Manager) *Service {
	return &Service{stories: storyRepo, shops: shopRepo, images: images}
}

// Submit 保存故事并返回 ID
// 图片先于故事写入，上传失败时不会写入任何故事数据
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.OwnerID == "" {
		return "", apperr.ErrUnauthorized
	}

	in := req.Input
	in.Normalize()
	if err := s.fillFromShop(ctx, &in); err != nil {
		return "", err
	}
	if err := in.Validate(); err != nil {
		return "", err
	}

	var existing *models.Story
	if req.StoryID != "" {
		st, err := s.stories.GetByIDAndOwner(ctx, req.StoryID, req.OwnerID)
		if err != nil {
			return "", s.notFoundOr(err, "load story")
		}
		existing = st
	}

	var existingURL string
	if existing != nil && existing.ImageURL != nil {
		existingURL = *existing.ImageURL
	}
	attachment := s.images.NewAttachment(existingURL)
	if req.RemoveImage {
		attachment.MarkForRemoval()
	}
	if req.NewImage != nil {
		if err := attachment.Select(req.NewImage); err != nil {
			return "", err
		}
	}

	candidates, err := s.shops.FindByTriple(ctx, in.ShopName, in.Area, in.Genre)
	if err != nil {
		return "", apperr.Upstream("find shop", err)
	}
	var shopID *string
	if matched := shop.ResolveShopLinkage(shop.FromModels(candidates), in.ShopName, in.Area, in.Genre); matched != nil {
		id := matched.ID
		shopID = &id
	}

	imageURL, err := s.images.Resolve(ctx, req.OwnerID, attachment)
	if err != nil {
		return "", err
	}

	if existing == nil {
		st := &models.Story{
			UserID:         req.OwnerID,
			ShopID:         shopID,
			CustomShopName: &in.ShopName,
			CustomArea:     &in.Area,
			CustomGenre:    &in.Genre,
			Title:          in.Title,
			Content:        in.Content,
			Excerpt:        GenerateExcerpt(in.Content),
			AuthorName:     in.AuthorName,
			ImageURL:       imageURL,
			Published:      in.Published,
		}
		if err := s.stories.Create(ctx, st); err != nil {
			return "", apperr.Upstream("create story", err)
		}
		zap.L().Info("Story created",
			zap.String("story_id", st.ID),
			zap.String("user_id", req.OwnerID),
			zap.Bool("published", st.Published))
		return st.ID, nil
	}

	fields := map[string]interface{}{
		"shop_id":          shopID,
		"custom_shop_name": in.ShopName,
		"custom_area":      in.Area,
		"custom_genre":     in.Genre,
		"title":            in.Title,
		"content":          in.Content,
		"excerpt":          GenerateExcerpt(in.Content),
		"author_name":      in.AuthorName,
		"image_url":        imageURL,
		"published":        in.Published,
	}
	if err := s.stories.Update(ctx, existing.ID, req.OwnerID, fields); err != nil {
		return "", s.notFoundOr(err, "update story")
	}
	zap.L().Info("Story updated",
		zap.String("story_id", existing.ID),
		zap.String("user_id", req.OwnerID),
		zap.Bool("published", in.Published))
	return existing.ID, nil
}

// fillFromShop 选择了店铺时补全空白字段
func (s *Service) fillFromShop(ctx context.Context, in *Input) error {
	if in.ShopID == "" {
		return nil
	}
	picked, err := s.shops.GetByID(ctx, in.ShopID)
	if errors.Is(err, shops.ErrShopNotFound) {
		return apperr.Validation("shop_id", "選択された店舗が見つかりません")
	}
	if err != nil {
		return apperr.Upstream("load shop", err)
	}
	if in.ShopName == "" {
		in.ShopName = picked.Name
	}
	if in.Area == "" {
		in.Area = picked.Area
	}
	if in.Genre == "" {
		in.Genre = picked.Genre
	}
	return nil
}

// LoadForDisplay 加载故事详情，草稿只对作者可见
func (s *Service) LoadForDisplay(ctx context.Context, id, viewerID string) (*Display, error) {
	st, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "load story")
	}
	if !st.Published && st.UserID != viewerID {
		return nil, apperr.ErrNotFound
	}
	return newDisplay(st, s.images.EnsureDisplayURLPtr(ctx, st.ImageURL), viewerID), nil
}

// IncrementReaction 反应计数加一，返回服务端最新计数
func (s *Service) IncrementReaction(ctx context.Context, id, kind string) (*models.Reactions, error) {
	k, ok := models.ParseReactionKind(kind)
	if !ok {
		return nil, apperr.Validation("kind", fmt.Sprintf("unknown reaction: %s", kind))
	}
	reactions, err := s.stories.IncrementReaction(ctx, id, k)
	if err != nil {
		return nil, s.notFoundOr(err, "increment reaction")
	}
	return reactions, nil
}

// ListPublished 已发布故事，area 非空时按实际区域筛选
func (s *Service) ListPublished(ctx context.Context, area string) ([]Summary, error) {
	list, err := s.stories.ListPublished(ctx)
	if err != nil {
		return nil, apperr.Upstream("list stories", err)
	}

	filtered := list[:0]
	for i := range list {
		if area == "" || shop.EffectiveArea(shop.SourceOf(&list[i])) == area {
			filtered = append(filtered, list[i])
		}
	}
	return s.summaries(ctx, filtered), nil
}

// ListAreas 店铺主数据中的区域
func (s *Service) ListAreas(ctx context.Context) ([]string, error) {
	areas, err := s.shops.DistinctAreas(ctx)
	if err != nil {
		return nil, apperr.Upstream("list areas", err)
	}
	return areas, nil
}

// ListShops 店铺主数据，area 非空时按区域筛选
func (s *Service) ListShops(ctx context.Context, area string) ([]models.Shop, error) {
	list, err := s.shops.List(ctx, area)
	if err != nil {
		return nil, apperr.Upstream("list shops", err)
	}
	return list, nil
}

// Suggestions 投稿表单自动补全候选
func (s *Service) Suggestions(ctx context.Context) (*shops.Suggestions, error) {
	sg, err := s.shops.GetSuggestions(ctx)
	if err != nil {
		return nil, apperr.Upstream("load suggestions", err)
	}
	return sg, nil
}

// ListMine 我的故事及各状态数量
func (s *Service) ListMine(ctx context.Context, ownerID string, filter stories.Filter) (*MyStories, error) {
	list, err := s.stories.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, apperr.Upstream("list my stories", err)
	}
	counts, err := s.stories.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Upstream("count my stories", err)
	}
	return &MyStories{Filter: filter, Counts: *counts, Stories: s.summaries(ctx, list)}, nil
}

// SetPublished 切换发布状态
func (s *Service) SetPublished(ctx context.Context, ownerID, id string, published bool) error {
	if err := s.stories.SetPublished(ctx, id, ownerID, published); err != nil {
		return s.notFoundOr(err, "set published")
	}
	zap.L().Info("Story visibility changed",
		zap.String("story_id", id), zap.Bool("published", published))
	return nil
}

// Delete 删除故事，图片对象保留在存储中
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.stories.Delete(ctx, id, ownerID); err != nil {
		return s.notFoundOr(err, "delete story")
	}
	zap.L().Info("Story deleted", zap.String("story_id", id), zap.String("user_id", ownerID))
	return nil
}

// LoadForEdit 编辑表单初始值
func (s *Service) LoadForEdit(ctx context.Context, ownerID, id string) (*EditForm, error) {
	st, err := s.stories.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, s.notFoundOr(err, "load story")
	}

	attrs := shop.ResolveEditableAttributes(shop.SourceOf(st))
	return &EditForm{
		ID:              st.ID,
		ShopName:        attrs.Name,
		Area:            attrs.Area,
		Genre:           attrs.Genre,
		Title:           st.Title,
		Content:         st.Content,
		AuthorName:      st.AuthorName,
		DisplayImageURL: s.images.EnsureDisplayURLPtr(ctx, st.ImageURL),
		HasImage:        st.ImageURL != nil && *st.ImageURL != "",
		Published:       st.Published,
		CreatedAt:       st.CreatedAt,
	}, nil
}

func (s *Service) summaries(ctx context.Context, list []models.Story) []Summary {
	urls := make([]string, len(list))
	for i := range list {
		if list[i].ImageURL != nil {
			urls[i] = *list[i].ImageURL
		}
	}
	resolved := s.images.EnsureDisplayURLs(ctx, urls)

	out := make([]Summary, 0, len(list))
	for i := range list {
		out = append(out, newSummary(&list[i], resolved[i]))
	}
	return out
}

// notFoundOr 仓库未找到映射为 ErrNotFound，其余为 ErrUpstream
func (s *Service) notFoundOr(err error, op string) error {
	if errors.Is(err, stories.ErrStoryNotFound) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return apperr.Upstream(op, err)
}
