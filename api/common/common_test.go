package common

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagamachi/meiten/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErr(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   string
		wantStatus int
		wantMsg    string
		wantField  string
	}{
		{"validation", apperr.Validation("title", "必須です"), "", http.StatusBadRequest, "必須です", "title"},
		{"not found default", apperr.ErrNotFound, "", http.StatusNotFound, msgNotFound, ""},
		{"not found custom", apperr.ErrNotFound, "読み込めませんでした", http.StatusNotFound, "読み込めませんでした", ""},
		{"unauthorized", apperr.ErrUnauthorized, "", http.StatusUnauthorized, msgAuth, ""},
		{"upstream", apperr.Upstream("upload", errors.New("boom")), "", http.StatusBadGateway, msgUpstream, ""},
		{"client canceled", apperr.Upstream("upload", context.Canceled), "", http.StatusBadGateway, msgUpstream, ""},
		{"unknown", errors.New("boom"), "", http.StatusInternalServerError, msgUpstream, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondErr(c, tt.err, tt.notFound)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.wantMsg, resp.Msg)
			assert.Equal(t, tt.wantField, resp.Field)
		})
	}
}
