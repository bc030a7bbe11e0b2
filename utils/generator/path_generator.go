package generator

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PathGenerator 对象路径生成器
// 路径格式：{ownerID}/{uuid}.{ext}，按用户划分命名空间
type PathGenerator struct {
	newID func() string
}

// NewPathGenerator 创建路径生成器
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{newID: uuid.NewString}
}

// NewPathGeneratorWithID 使用自定义 ID 生成函数，测试中用于固定输出
func NewPathGeneratorWithID(newID func() string) *PathGenerator {
	return &PathGenerator{newID: newID}
}

// ObjectPath 生成对象在 bucket 内的路径
func (pg *PathGenerator) ObjectPath(ownerID, ext string) (string, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" || strings.ContainsAny(ownerID, "/\\") || strings.Contains(ownerID, "..") {
		return "", fmt.Errorf("invalid owner id: %q", ownerID)
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return "", fmt.Errorf("empty extension")
	}
	return fmt.Sprintf("%s/%s.%s", ownerID, pg.newID(), ext), nil
}
