package models

import (
	"time"

	"gorm.io/gorm"
)

// ReactionKind 读者反应类型
type ReactionKind string

const (
	ReactionVisit   ReactionKind = "visit"   // 行ってみたい
	ReactionTouched ReactionKind = "touched" // 心に響いた
	ReactionWarm    ReactionKind = "warm"    // ほっこりした
)

// ParseReactionKind 解析反应类型
func ParseReactionKind(s string) (ReactionKind, bool) {
	switch k := ReactionKind(s); k {
	case ReactionVisit, ReactionTouched, ReactionWarm:
		return k, true
	}
	return "", false
}

// Column 对应的计数列
func (k ReactionKind) Column() string {
	return "reactions_" + string(k)
}

// Reactions 反应计数
type Reactions struct {
	Visit   int64 `json:"visit"`
	Touched int64 `json:"touched"`
	Warm    int64 `json:"warm"`
}

type Story struct {
	ID     string  `gorm:"type:varchar(36);primaryKey"`
	UserID string  `gorm:"type:varchar(36);not null;index:idx_story_user_created,priority:1"`
	ShopID *string `gorm:"type:varchar(36);index"`
	Shop   *Shop   `gorm:"foreignKey:ShopID;constraint:OnDelete:SET NULL"`

	// 自由输入的店铺信息，优先于关联店铺
	CustomShopName *string `gorm:"type:varchar(100)"`
	CustomArea     *string `gorm:"type:varchar(100)"`
	CustomGenre    *string `gorm:"type:varchar(100)"`

	Title      string  `gorm:"type:varchar(200);not null"`
	Content    string  `gorm:"type:text;not null"`
	Excerpt    string  `gorm:"type:text;not null"`
	AuthorName string  `gorm:"type:varchar(100);not null"`
	ImageURL   *string `gorm:"type:text"`

	ReactionsVisit   int64 `gorm:"not null;default:0"`
	ReactionsTouched int64 `gorm:"not null;default:0"`
	ReactionsWarm    int64 `gorm:"not null;default:0"`

	Published bool      `gorm:"not null;index:idx_story_published_created,priority:1"`
	CreatedAt time.Time `gorm:"index:idx_story_published_created,priority:2;index:idx_story_user_created,priority:2"`
	UpdatedAt time.Time
}

func (s *Story) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}

// Reactions 当前计数
func (s *Story) Reactions() Reactions {
	return Reactions{
		Visit:   s.ReactionsVisit,
		Touched: s.ReactionsTouched,
		Warm:    s.ReactionsWarm,
	}
}
