package stories

import (
	"github.com/wagamachi/meiten/internal/story"
)

// Handler 故事处理器
type Handler struct {
	svc     *story.Service
	maxSize int64
}

// NewHandler 创建新的故事处理器
func NewHandler(svc *story.Service, maxSize int64) *Handler {
	return &Handler{svc: svc, maxSize: maxSize}
}
