package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email       string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password    string `gorm:"not null" json:"-"`
	DisplayName string `gorm:"type:varchar(100)" json:"display_name"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = newID()
	}
	return nil
}
