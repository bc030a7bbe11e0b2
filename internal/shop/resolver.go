// Package shop 计算故事展示用的店铺属性
//
// 每个字段独立求值：自由输入优先，其次关联店铺，最后使用占位文本。
package shop

import (
	"strings"

	"github.com/wagamachi/meiten/database/models"
)

const (
	PlaceholderName    = "店名未登録"
	PlaceholderArea    = "エリア未登録"
	PlaceholderGenre   = "ジャンル未登録"
	PlaceholderAddress = "住所未登録"
)

// Canonical 店铺主数据中的一条记录
type Canonical struct {
	ID      string
	Name    string
	Area    string
	Genre   string
	Address string
}

// Source 解析输入：故事上的自由输入字段与关联店铺
type Source struct {
	CustomName  *string
	CustomArea  *string
	CustomGenre *string
	Shop        *Canonical
}

// Attributes 展示用的店铺属性
type Attributes struct {
	Name  string `json:"name"`
	Area  string `json:"area"`
	Genre string `json:"genre"`
}

// ResolveDisplayAttributes 计算展示属性，不会失败
func ResolveDisplayAttributes(src Source) Attributes {
	var linked Canonical
	if src.Shop != nil {
		linked = *src.Shop
	}
	return Attributes{
		Name:  firstNonEmpty(src.CustomName, linked.Name, PlaceholderName),
		Area:  firstNonEmpty(src.CustomArea, linked.Area, PlaceholderArea),
		Genre: firstNonEmpty(src.CustomGenre, linked.Genre, PlaceholderGenre),
	}
}

// ResolveEditableAttributes 编辑表单的初始值，与展示规则相同但不使用占位文本
func ResolveEditableAttributes(src Source) Attributes {
	var linked Canonical
	if src.Shop != nil {
		linked = *src.Shop
	}
	return Attributes{
		Name:  firstNonEmpty(src.CustomName, linked.Name, ""),
		Area:  firstNonEmpty(src.CustomArea, linked.Area, ""),
		Genre: firstNonEmpty(src.CustomGenre, linked.Genre, ""),
	}
}

// ResolveAddress 地址没有自由输入字段，只来自关联店铺
func ResolveAddress(src Source) string {
	if src.Shop != nil {
		if a := strings.TrimSpace(src.Shop.Address); a != "" {
			return a
		}
	}
	return PlaceholderAddress
}

// EffectiveArea 用于区域筛选的实际区域，无任何来源时为空
func EffectiveArea(src Source) string {
	var linked string
	if src.Shop != nil {
		linked = src.Shop.Area
	}
	return firstNonEmpty(src.CustomArea, linked, "")
}

// ResolveShopLinkage 在候选店铺中查找 (name, area, genre) 完全一致的第一条
// 区分大小写，不做模糊匹配；无匹配时返回 nil
func ResolveShopLinkage(candidates []Canonical, name, area, genre string) *Canonical {
	for i := range candidates {
		c := &candidates[i]
		if c.Name == name && c.Area == area && c.Genre == genre {
			return c
		}
	}
	return nil
}

// FromModel 店铺记录转换为解析输入
func FromModel(s *models.Shop) *Canonical {
	if s == nil {
		return nil
	}
	c := &Canonical{ID: s.ID, Name: s.Name, Area: s.Area, Genre: s.Genre}
	if s.Address != nil {
		c.Address = *s.Address
	}
	return c
}

// FromModels 批量转换，保持顺序
func FromModels(shops []models.Shop) []Canonical {
	out := make([]Canonical, 0, len(shops))
	for i := range shops {
		out = append(out, *FromModel(&shops[i]))
	}
	return out
}

// SourceOf 从故事记录构造解析输入
func SourceOf(story *models.Story) Source {
	return Source{
		CustomName:  story.CustomShopName,
		CustomArea:  story.CustomArea,
		CustomGenre: story.CustomGenre,
		Shop:        FromModel(story.Shop),
	}
}

func firstNonEmpty(override *string, linked, placeholder string) string {
	if override != nil {
		if v := strings.TrimSpace(*override); v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(linked); v != "" {
		return v
	}
	return placeholder
}
