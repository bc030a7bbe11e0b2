package models

import "github.com/google/uuid"

// All 需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Shop{},
		&Story{},
	}
}

// newID 生成主键
func newID() string {
	return uuid.NewString()
}
