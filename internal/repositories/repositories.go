package repositories

import (
	"github.com/wagamachi/meiten/database"
	"github.com/wagamachi/meiten/database/repo/accounts"
	"github.com/wagamachi/meiten/database/repo/shops"
	"github.com/wagamachi/meiten/database/repo/stories"
)

// Repositories 集中管理所有数据库仓库
type Repositories struct {
	Accounts *accounts.Repository
	Shops    *shops.Repository
	Stories  *stories.Repository
}

// NewRepositories 创建所有仓库实例
func NewRepositories(provider database.Provider) *Repositories {
	db := provider.DB()
	return &Repositories{
		Accounts: accounts.NewRepository(db),
		Shops:    shops.NewRepository(db),
		Stories:  stories.NewRepository(db),
	}
}
