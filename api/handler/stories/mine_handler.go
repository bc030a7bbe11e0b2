package stories

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wagamachi/meiten/api/common"
	"github.com/wagamachi/meiten/api/middleware"
	"github.com/wagamachi/meiten/database/repo/stories"
	"github.com/wagamachi/meiten/internal/image"
	"github.com/wagamachi/meiten/internal/story"
)

type setPublishedRequest struct {
	Published *bool `json:"published" binding:"required"`
}

// ListMineHandler GET /api/v1/me/stories?filter=
func (h *Handler) ListMineHandler(c *gin.Context) {
	mine, err := h.svc.ListMine(c.Request.Context(), middleware.GetUserID(c), stories.ParseFilter(c.Query("filter")))
	if err != nil {
		common.RespondErr(c, err)
		return
	}
	common.RespondSuccess(c, mine)
}

// CreateHandler POST /api/v1/me/stories (multipart)
func (h *Handler) CreateHandler(c *gin.Context) {
	h.submit(c, "")
}

// UpdateHandler PUT /api/v1/me/stories/:id (multipart)
func (h *Handler) UpdateHandler(c *gin.Context) {
	h.submit(c, c.Param("id"))
}

func (h *Handler) submit(c *gin.Context, storyID string) {
	// 超过 maxSize 的部分落盘到临时文件
	if err := c.Request.ParseMultipartForm(h.maxSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.RespondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var in story.Input
	if err := c.ShouldBind(&in); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	req := story.SubmitRequest{
		StoryID: storyID,
		OwnerID: middleware.GetUserID(c),
		Input:   in,
	}
	req.RemoveImage, _ = strconv.ParseBool(c.PostForm("remove_image"))

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		f, closeFn, err := openUpload(fh)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, err.Error())
			return
		}
		defer closeFn()
		req.NewImage = f
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		common.RespondErr(c, err, story.MsgLoadFailed)
		return
	}

	if storyID == "" {
		common.RespondCreated(c, gin.H{"id": id})
		return
	}
	common.RespondSuccess(c, gin.H{"id": id})
}

// openUpload 打开上传的文件，声明的类型取自 part 头
func openUpload(fh *multipart.FileHeader) (*image.File, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	return &image.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Reader:      f,
	}, func() { _ = f.Close() }, nil
}

// EditHandler GET /api/v1/me/stories/:id
func (h *Handler) EditHandler(c *gin.Context) {
	form, err := h.svc.LoadForEdit(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		common.RespondErr(c, err, story.MsgLoadFailed)
		return
	}
	common.RespondSuccess(c, form)
}

// SetPublishedHandler PATCH /api/v1/me/stories/:id/published
func (h *Handler) SetPublishedHandler(c *gin.Context) {
	var req setPublishedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SetPublished(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), *req.Published); err != nil {
		common.RespondErr(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"id": c.Param("id"), "published": *req.Published})
}

// DeleteHandler DELETE /api/v1/me/stories/:id
func (h *Handler) DeleteHandler(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		common.RespondErr(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Story deleted", nil)
}
