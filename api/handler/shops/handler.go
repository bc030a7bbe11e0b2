package shops

import (
	"github.com/gin-gonic/gin"

	"github.com/wagamachi/meiten/api/common"
	"github.com/wagamachi/meiten/internal/story"
)

// Handler 店铺处理器
type Handler struct {
	svc *story.Service
}

// NewHandler 创建新的店铺处理器
func NewHandler(svc *story.Service) *Handler {
	return &Handler{svc: svc}
}

type shopResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Area    string   `json:"area"`
	Genre   string   `json:"genre"`
	Address *string  `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// ListHandler GET /api/v1/shops?area=
func (h *Handler) ListHandler(c *gin.Context) {
	list, err := h.svc.ListShops(c.Request.Context(), c.Query("area"))
	if err != nil {
		common.RespondErr(c, err)
		return
	}

	out := make([]shopResponse, 0, len(list))
	for _, s := range list {
		out = append(out, shopResponse{
			ID: s.ID, Name: s.Name, Area: s.Area, Genre: s.Genre,
			Address: s.Address, Lat: s.Lat, Lng: s.Lng,
		})
	}
	common.RespondSuccess(c, gin.H{"shops": out})
}

// SuggestionsHandler GET /api/v1/shops/suggestions
func (h *Handler) SuggestionsHandler(c *gin.Context) {
	sg, err := h.svc.Suggestions(c.Request.Context())
	if err != nil {
		common.RespondErr(c, err)
		return
	}
	common.RespondSuccess(c, sg)
}
