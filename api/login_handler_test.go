package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagamachi/meiten/api/common"
	"github.com/wagamachi/meiten/database/dbtest"
	"github.com/wagamachi/meiten/database/repo/accounts"
	"github.com/wagamachi/meiten/internal/auth"
	cryptopackage "github.com/wagamachi/meiten/utils/crypto"
)

// setupTest 初始化测试环境
func setupTest(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService, err := auth.NewJWTService(auth.TokenConfig{
		Secret:    []byte("test-secret-key-at-least-32-characters-long"),
		ExpiresIn: 30 * time.Minute,
	})
	require.NoError(t, err)

	hasher := cryptopackage.NewPasswordHasher(cryptopackage.Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	loginService := auth.NewLoginService(accounts.NewRepository(dbtest.Open(t)), jwtService, hasher)
	h := NewLoginHandlerWithService(loginService)

	router := gin.New()
	router.POST("/register", h.RegisterHandlerFunc)
	router.POST("/login", h.LoginHandlerFunc)
	return router, jwtService
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestLoginHandler_InvalidJSON 测试无效 JSON
func TestLoginHandler_InvalidJSON(t *testing.T) {
	router, _ := setupTest(t)
	w := postJSON(router, "/login", "invalid json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestLoginHandler_MissingFields 测试缺少必填字段
func TestLoginHandler_MissingFields(t *testing.T) {
	router, _ := setupTest(t)
	w := postJSON(router, "/login", map[string]string{"email": "taro@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestRegisterAndLogin 注册后登录获得可解析的令牌
func TestRegisterAndLogin(t *testing.T) {
	router, jwtService := setupTest(t)

	w := postJSON(router, "/register", map[string]string{
		"email":        "taro@example.com",
		"password":     "password123",
		"display_name": "太郎",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = postJSON(router, "/login", map[string]string{"email": "taro@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data loginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Greater(t, len(resp.Data.AccessToken), len("Bearer "))
	assert.Equal(t, "Bearer ", resp.Data.AccessToken[:7])

	claims, err := jwtService.ParseToken(resp.Data.AccessToken[7:])
	require.NoError(t, err)
	assert.Equal(t, "taro@example.com", claims.Email)
}

// TestLoginHandler_InvalidCredentials 错误密码返回 401
func TestLoginHandler_InvalidCredentials(t *testing.T) {
	router, _ := setupTest(t)
	require.Equal(t, http.StatusCreated, postJSON(router, "/register", map[string]string{
		"email": "taro@example.com", "password": "password123",
	}).Code)

	w := postJSON(router, "/login", map[string]string{"email": "taro@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestRegisterHandler_Validation 注册参数校验
func TestRegisterHandler_Validation(t *testing.T) {
	router, _ := setupTest(t)

	w := postJSON(router, "/register", map[string]string{"email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "email", resp.Field)
}
