package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wagamachi/meiten/internal/apperr"
	"github.com/wagamachi/meiten/utils"
)

type Response struct {
	Status string      `json:"status"`
	Msg    string      `json:"msg"`
	Field  string      `json:"field,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccess sends a success response with data.
func RespondSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, "success", "", data)
}

// RespondCreated sends a 201 response with data.
func RespondCreated(c *gin.Context, data interface{}) {
	Respond(c, http.StatusCreated, "success", "", data)
}

// RespondSuccessMessage sends a success response with message and data.
func RespondSuccessMessage(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, "success", message, data)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	Respond(c, httpStatus, "error", message, nil)
}

// RespondErrorAbort sends an error response and aborts the chain.
func RespondErrorAbort(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, Response{Status: "error", Msg: message})
}

const (
	msgUpstream = "エラーが発生しました。時間をおいて再度お試しください。"
	msgNotFound = "見つかりませんでした"
	msgAuth     = "ログインが必要です"
)

// RespondErr 按错误分类映射 HTTP 状态码
// notFoundMsg 为空时使用通用文案
func RespondErr(c *gin.Context, err error, notFoundMsg ...string) {
	if ve, ok := apperr.IsValidation(err); ok {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Msg: ve.Message, Field: ve.Field})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		msg := msgNotFound
		if len(notFoundMsg) > 0 && notFoundMsg[0] != "" {
			msg = notFoundMsg[0]
		}
		RespondError(c, http.StatusNotFound, msg)
	case errors.Is(err, apperr.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, msgAuth)
	case utils.IsRequestCanceled(c.Request.Context(), err):
		zap.L().Debug("Client disconnected", zap.String("path", c.FullPath()), zap.Error(err))
		RespondError(c, http.StatusBadGateway, msgUpstream)
	case errors.Is(err, apperr.ErrUpstream):
		zap.L().Error("Upstream failure", zap.String("path", c.FullPath()), zap.Error(err))
		RespondError(c, http.StatusBadGateway, msgUpstream)
	default:
		zap.L().Error("Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		RespondError(c, http.StatusInternalServerError, msgUpstream)
	}
}
