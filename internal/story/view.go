package story

import (
	"time"

	"github.com/wagamachi/meiten/database/models"
	"github.com/wagamachi/meiten/database/repo/stories"
	"github.com/wagamachi/meiten/internal/shop"
)

// Display 故事详情
type Display struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Content         string           `json:"content"`
	Excerpt         string           `json:"excerpt"`
	Author          string           `json:"author"`
	Shop            shop.Attributes  `json:"shop"`
	Address         string           `json:"address"`
	DisplayImageURL string           `json:"display_image_url,omitempty"`
	Reactions       models.Reactions `json:"reactions"`
	Published       bool             `json:"published"`
	IsOwner         bool             `json:"is_owner"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Summary 列表卡片
type Summary struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Excerpt         string           `json:"excerpt"`
	Author          string           `json:"author"`
	Shop            shop.Attributes  `json:"shop"`
	DisplayImageURL string           `json:"display_image_url,omitempty"`
	Reactions       models.Reactions `json:"reactions"`
	Published       bool             `json:"published"`
	CreatedAt       time.Time        `json:"created_at"`
}

// EditForm 编辑表单初始值
type EditForm struct {
	ID              string    `json:"id"`
	ShopName        string    `json:"shop_name"`
	Area            string    `json:"area"`
	Genre           string    `json:"genre"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	AuthorName      string    `json:"author_name"`
	DisplayImageURL string    `json:"display_image_url,omitempty"`
	HasImage        bool      `json:"has_image"`
	Published       bool      `json:"published"`
	CreatedAt       time.Time `json:"created_at"`
}

// MyStories 我的故事列表
type MyStories struct {
	Filter  stories.Filter `json:"filter"`
	Counts  stories.Counts `json:"counts"`
	Stories []Summary      `json:"stories"`
}

func newDisplay(s *models.Story, imageURL, viewerID string) *Display {
	src := shop.SourceOf(s)
	return &Display{
		ID:              s.ID,
		Title:           s.Title,
		Content:         s.Content,
		Excerpt:         s.Excerpt,
		Author:          s.AuthorName,
		Shop:            shop.ResolveDisplayAttributes(src),
		Address:         shop.ResolveAddress(src),
		DisplayImageURL: imageURL,
		Reactions:       s.Reactions(),
		Published:       s.Published,
		IsOwner:         viewerID != "" && viewerID == s.UserID,
		CreatedAt:       s.CreatedAt,
	}
}

func newSummary(s *models.Story, imageURL string) Summary {
	return Summary{
		ID:              s.ID,
		Title:           s.Title,
		Excerpt:         s.Excerpt,
		Author:          s.AuthorName,
		Shop:            shop.ResolveDisplayAttributes(shop.SourceOf(s)),
		DisplayImageURL: imageURL,
		Reactions:       s.Reactions(),
		Published:       s.Published,
		CreatedAt:       s.CreatedAt,
	}
}
