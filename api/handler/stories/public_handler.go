package stories

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wagamachi/meiten/api/common"
	"github.com/wagamachi/meiten/api/middleware"
	"github.com/wagamachi/meiten/internal/apperr"
	"github.com/wagamachi/meiten/internal/story"
)

// ListPublishedHandler GET /api/v1/stories?area=
func (h *Handler) ListPublishedHandler(c *gin.Context) {
	list, err := h.svc.ListPublished(c.Request.Context(), c.Query("area"))
	if err != nil {
		common.RespondErr(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"stories": list})
}

// DetailHandler GET /api/v1/stories/:id
func (h *Handler) DetailHandler(c *gin.Context) {
	d, err := h.svc.LoadForDisplay(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		common.RespondErr(c, err)
		return
	}
	common.RespondSuccess(c, d)
}

// ReactionHandler POST /api/v1/stories/:id/reactions/:kind
func (h *Handler) ReactionHandler(c *gin.Context) {
	reactions, err := h.svc.IncrementReaction(c.Request.Context(), c.Param("id"), c.Param("kind"))
	if err != nil {
		if errors.Is(err, apperr.ErrUpstream) {
			common.RespondError(c, http.StatusBadGateway, story.MsgReactionFailed)
			return
		}
		common.RespondErr(c, err)
		return
	}
	common.RespondSuccess(c, reactions)
}

// AreasHandler GET /api/v1/areas
func (h *Handler) AreasHandler(c *gin.Context) {
	areas, err := h.svc.ListAreas(c.Request.Context())
	if err != nil {
		common.RespondErr(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"areas": areas})
}
