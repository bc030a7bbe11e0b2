package models

import (
	"time"

	"gorm.io/gorm"
)

// Shop 管理员维护的店铺主数据，编辑流程中只读
type Shop struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;index:idx_shop_triple,priority:1" json:"name"`
	Area      string    `gorm:"type:varchar(100);not null;index:idx_shop_triple,priority:2;index:idx_shop_area" json:"area"`
	Genre     string    `gorm:"type:varchar(100);not null;index:idx_shop_triple,priority:3" json:"genre"`
	Address   *string   `gorm:"type:varchar(255)" json:"address,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}
