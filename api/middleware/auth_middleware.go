package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wagamachi/meiten/api/common"
	"github.com/wagamachi/meiten/internal/auth"
)

const (
	ContextUserIDKey = "user_id"
	ContextEmailKey  = "email"
)

// TokenParser 解析访问令牌
type TokenParser interface {
	ParseToken(token string) (*auth.TokenClaims, error)
}

// RequireAuth 必须携带有效的 Bearer 令牌
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "No Authorization request header")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			common.RespondErrorAbort(c, http.StatusBadRequest, "Authorization field format error")
			return
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth 有有效令牌时写入身份，否则按匿名访问继续
func OptionalAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := parser.ParseToken(token); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// GetUserID 当前请求的用户 ID，匿名时为空
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

func setIdentity(c *gin.Context, claims *auth.TokenClaims) {
	c.Set(ContextUserIDKey, claims.UserID())
	c.Set(ContextEmailKey, claims.Email)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
