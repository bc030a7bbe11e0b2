package shop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wagamachi/meiten/database/models"
)

// SeedFile 店铺导入文件
//
//	shops:
//	  - name: 喫茶みどり
//	    area: 下町
//	    genre: 喫茶店
//	    address: 1-2-3
type SeedFile struct {
	Shops []SeedShop `yaml:"shops"`
}

// SeedShop 导入文件中的单个店铺
type SeedShop struct {
	Name    string   `yaml:"name"`
	Area    string   `yaml:"area"`
	Genre   string   `yaml:"genre"`
	Address string   `yaml:"address"`
	Lat     *float64 `yaml:"lat"`
	Lng     *float64 `yaml:"lng"`
}

// Store 导入所需的店铺存取
type Store interface {
	ExistsTriple(ctx context.Context, name, area, genre string) (bool, error)
	Create(ctx context.Context, shop *models.Shop) error
}

// ImportResult 导入统计
type ImportResult struct {
	Created int
	Skipped int
}

// ParseSeed 解析导入文件，名称、地区、类型均不能为空
func ParseSeed(r io.Reader) ([]models.Shop, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode shop file: %w", err)
	}

	shops := make([]models.Shop, 0, len(f.Shops))
	for i, s := range f.Shops {
		shop := models.Shop{
			Name:  strings.TrimSpace(s.Name),
			Area:  strings.TrimSpace(s.Area),
			Genre: strings.TrimSpace(s.Genre),
			Lat:   s.Lat,
			Lng:   s.Lng,
		}
		if shop.Name == "" || shop.Area == "" || shop.Genre == "" {
			return nil, fmt.Errorf("shop #%d: name, area and genre are required", i+1)
		}
		if addr := strings.TrimSpace(s.Address); addr != "" {
			shop.Address = &addr
		}
		shops = append(shops, shop)
	}
	return shops, nil
}

// Import 写入店铺，(name, area, genre) 已存在的记录跳过
func Import(ctx context.Context, store Store, shops []models.Shop) (ImportResult, error) {
	var res ImportResult
	for i := range shops {
		s := shops[i]
		exists, err := store.ExistsTriple(ctx, s.Name, s.Area, s.Genre)
		if err != nil {
			return res, fmt.Errorf("failed to check shop %q: %w", s.Name, err)
		}
		if exists {
			zap.L().Debug("Shop already exists, skipping",
				zap.String("name", s.Name), zap.String("area", s.Area), zap.String("genre", s.Genre))
			res.Skipped++
			continue
		}
		if err := store.Create(ctx, &s); err != nil {
			return res, fmt.Errorf("failed to create shop %q: %w", s.Name, err)
		}
		res.Created++
	}
	return res, nil
}
