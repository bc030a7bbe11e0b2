// Package objects 为本地存储提供与对象存储相同形式的读取路由
package objects

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wagamachi/meiten/api/common"
	"github.com/wagamachi/meiten/storage"
)

// Handler 本地对象读取处理器
type Handler struct {
	storage *storage.LocalStorage
}

// NewHandler 创建新的对象处理器
func NewHandler(s *storage.LocalStorage) *Handler {
	return &Handler{storage: s}
}

// PublicHandler GET /storage/v1/object/public/:bucket/*path
// 私有桶返回 404，与对象存储的行为一致
func (h *Handler) PublicHandler(c *gin.Context) {
	if !h.storage.IsPublic() {
		common.RespondError(c, http.StatusNotFound, "Object not found")
		return
	}
	h.serve(c, "public, max-age=31536000, immutable")
}

// SignedHandler GET /storage/v1/object/sign/:bucket/*path?token=
func (h *Handler) SignedHandler(c *gin.Context) {
	bucket, objectPath := c.Param("bucket"), strings.TrimPrefix(c.Param("path"), "/")
	if err := h.storage.VerifyToken(bucket, objectPath, c.Query("token")); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid or expired signature")
		return
	}
	h.serve(c, "private, max-age=3600")
}

func (h *Handler) serve(c *gin.Context, cacheControl string) {
	bucket, objectPath := c.Param("bucket"), strings.TrimPrefix(c.Param("path"), "/")

	f, err := h.storage.Open(c.Request.Context(), bucket, objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || strings.Contains(err.Error(), "invalid") {
			common.RespondError(c, http.StatusNotFound, "Object not found")
			return
		}
		zap.L().Error("Failed to open object", zap.String("bucket", bucket), zap.String("path", objectPath), zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "Failed to read object")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to read object")
		return
	}

	c.Header("Cache-Control", cacheControl)
	c.Header("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
