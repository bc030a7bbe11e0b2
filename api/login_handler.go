package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wagamachi/meiten/api/common"
	"github.com/wagamachi/meiten/internal/auth"
)

// LoginHandler 登录处理器
type LoginHandler struct {
	loginService *auth.LoginService
}

// NewLoginHandlerWithService 使用 LoginService 创建登录处理器
func NewLoginHandlerWithService(loginService *auth.LoginService) *LoginHandler {
	return &LoginHandler{
		loginService: loginService,
	}
}

type userAuthRequestBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken       string      `json:"access_token"`
	AccessTokenExpiry int64       `json:"access_token_expiry"`
	User              interface{} `json:"user"`
}

// LoginHandlerFunc user login
func (h *LoginHandler) LoginHandlerFunc(context *gin.Context) {
	if h.loginService == nil {
		common.RespondError(context, http.StatusInternalServerError, "Login service not initialized")
		return
	}

	var req userAuthRequestBody
	if err := context.ShouldBindJSON(&req); err != nil {
		common.RespondError(context, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.loginService.Login(context.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			common.RespondError(context, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		common.RespondErr(context, err)
		return
	}

	common.RespondSuccessMessage(context, "Login successful", loginResponse{
		AccessToken:       "Bearer " + result.AccessToken,
		AccessTokenExpiry: result.AccessTokenExpiry.Unix(),
		User:              result.User,
	})
}

// RegisterHandlerFunc user registration
func (h *LoginHandler) RegisterHandlerFunc(context *gin.Context) {
	if h.loginService == nil {
		common.RespondError(context, http.StatusInternalServerError, "Login service not initialized")
		return
	}

	var req auth.RegisterRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		common.RespondError(context, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.loginService.Register(context.Request.Context(), req)
	if err != nil {
		common.RespondErr(context, err)
		return
	}

	common.RespondCreated(context, user)
}
