package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagamachi/meiten/config"
	"github.com/wagamachi/meiten/database/dbtest"
	"github.com/wagamachi/meiten/database/models"
	"github.com/wagamachi/meiten/internal/auth"
	"github.com/wagamachi/meiten/internal/image"
	"github.com/wagamachi/meiten/internal/repositories"
	"github.com/wagamachi/meiten/internal/story"
	"github.com/wagamachi/meiten/storage"
	"github.com/wagamachi/meiten/storage/storagetest"
	cryptopackage "github.com/wagamachi/meiten/utils/crypto"
)

const testBaseURL = "http://localhost:8080"

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                 "test",
		ServerDomain:           testBaseURL,
		StorageType:            "local",
		StorageBucket:          "story-images",
		StorageSignedURLTTL:    time.Hour,
		UploadMaxSizeMB:        5,
		RateLimitApiRPS:        1000,
		RateLimitApiBurst:      1000,
		RateLimitAuthRPS:       1000,
		RateLimitAuthBurst:     1000,
		RateLimitReactionRPS:   1000,
		RateLimitReactionBurst: 1000,
		RateLimitExpireTime:    time.Minute,
	}
}

// newTestRouter 组装完整路由，存储由调用方决定
func newTestRouter(t *testing.T, provider storage.Provider) *gin.Engine {
	t.Helper()
	router, _ := newTestRouterWithRepos(t, provider)
	return router
}

// newTestRouterWithRepos 同 newTestRouter，并返回底层仓储用于准备数据
func newTestRouterWithRepos(t *testing.T, provider storage.Provider) (*gin.Engine, *repositories.Repositories) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	db := dbtest.Provider(t)
	repos := repositories.NewRepositories(db)

	images := image.NewManager(provider, nil, image.Config{
		Bucket:       cfg.StorageBucket,
		SignedURLTTL: cfg.StorageSignedURLTTL,
		MaxSize:      cfg.UploadMaxBytes(),
	})

	jwtService, err := auth.NewJWTService(auth.TokenConfig{
		Secret:    []byte("test-secret-key-at-least-32-characters-long"),
		ExpiresIn: time.Hour,
	})
	require.NoError(t, err)

	hasher := cryptopackage.NewPasswordHasher(cryptopackage.Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})

	router, cleanup := setupRouter(&ServerDependencies{
		Config:  cfg,
		DB:      db,
		Storage: provider,
		Stories: story.NewService(repos.Stories, repos.Shops, images),
		JWT:     jwtService,
		Login:   auth.NewLoginService(repos.Accounts, jwtService, hasher),
	})
	t.Cleanup(cleanup)
	return router, repos
}

func newLocalProvider(t *testing.T) *storage.LocalStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath:      t.TempDir(),
		BaseURL:       testBaseURL,
		SigningSecret: []byte("storage-secret"),
	})
	require.NoError(t, err)
	return s
}

type envelope struct {
	Status string          `json:"status"`
	Msg    string          `json:"msg"`
	Field  string          `json:"field"`
	Data   json.RawMessage `json:"data"`
}

func do(router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func jsonRequest(method, path, token string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

// storyForm 构造 multipart 表单，image 非空时附带 PNG 文件
func storyForm(t *testing.T, method, path, token string, fields map[string]string, img []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if img != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

// registerAndLogin 注册并登录，返回 Authorization 头
func registerAndLogin(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	w, _ := do(router, jsonRequest(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "password123", "display_name": "たろう",
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := do(router, jsonRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "password123",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.AccessToken
}

func validFields() map[string]string {
	return map[string]string{
		"shop_name":   "喫茶みどり",
		"area":        "下町",
		"genre":       "喫茶店",
		"title":       "朝の一杯",
		"content":     "創業五十年。\n\n二段落目。",
		"author_name": "たろう",
		"published":   "true",
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, storagetest.New(testBaseURL))

	w, _ := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["database"])
	assert.Equal(t, "ok", body.Checks["storage"])
}

func TestVersionAndMetricsEndpoints(t *testing.T) {
	router := newTestRouter(t, storagetest.New(testBaseURL))

	w, env := do(router, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), config.Version)

	w, _ = do(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "request_count")
}

func TestMeRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, storagetest.New(testBaseURL))

	w, _ := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/me/stories", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(router, storyForm(t, http.MethodPost, "/api/v1/me/stories", "", validFields(), nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/me/stories", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestStoryLifecycle(t *testing.T) {
	router, repos := newTestRouterWithRepos(t, storagetest.New(testBaseURL))
	token := registerAndLogin(t, router, "taro@example.com")

	// 必填项缺失
	fields := validFields()
	fields["title"] = "  "
	w, env := do(router, storyForm(t, http.MethodPost, "/api/v1/me/stories", token, fields, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title", env.Field)

	// 创建
	w, env = do(router, storyForm(t, http.MethodPost, "/api/v1/me/stories", token, validFields(), nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.ID)

	// 公开列表与地区
	w, env = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/stories?area="+url.QueryEscape("下町"), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), created.ID)
	assert.Contains(t, string(env.Data), "創業五十年。")

	// 地区只来自店铺主数据，故事的区域不算
	w, env = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/areas", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "下町")

	require.NoError(t, repos.Shops.Create(context.Background(), &models.Shop{
		Name: "喫茶みどり", Area: "下町", Genre: "喫茶店",
	}))
	w, env = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/areas", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "下町")

	// 反应计数
	w, env = do(router, httptest.NewRequest(http.MethodPost, "/api/v1/stories/"+created.ID+"/reactions/visit", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"visit":1`)

	// 转为草稿后匿名访问不可见
	w, _ = do(router, jsonRequest(http.MethodPatch, "/api/v1/me/stories/"+created.ID+"/published", token, map[string]bool{"published": false}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/stories/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = do(router, jsonRequest(http.MethodGet, "/api/v1/stories/"+created.ID, token, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"is_owner":true`)

	// 其他用户无法编辑
	other := registerAndLogin(t, router, "hanako@example.com")
	w, _ = do(router, jsonRequest(http.MethodGet, "/api/v1/me/stories/"+created.ID, other, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 草稿筛选
	w, env = do(router, jsonRequest(http.MethodGet, "/api/v1/me/stories?filter=draft", token, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), created.ID)

	// 删除
	w, _ = do(router, jsonRequest(http.MethodDelete, "/api/v1/me/stories/"+created.ID, token, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(router, jsonRequest(http.MethodGet, "/api/v1/stories/"+created.ID, token, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoryWithLocalImage(t *testing.T) {
	local := newLocalProvider(t)
	router := newTestRouter(t, local)
	token := registerAndLogin(t, router, "taro@example.com")

	png := []byte("\x89PNG\r\n\x1a\nfake")
	w, env := do(router, storyForm(t, http.MethodPost, "/api/v1/me/stories", token, validFields(), png))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, env = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/stories/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		DisplayImageURL string `json:"display_image_url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.True(t, local.Layout().IsSigned(detail.DisplayImageURL), detail.DisplayImageURL)

	// 通过签名 URL 取回对象
	u, err := url.Parse(detail.DisplayImageURL)
	require.NoError(t, err)
	w, _ = do(router, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, png, w.Body.Bytes())

	// 篡改 token
	w, _ = do(router, httptest.NewRequest(http.MethodGet, fmt.Sprintf("%s?token=bogus", u.Path), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 私有桶不提供公开地址
	bucket, objectPath := "story-images", u.Path[len("/storage/v1/object/sign/story-images/"):]
	w, _ = do(router, httptest.NewRequest(http.MethodGet, "/storage/v1/object/public/"+bucket+"/"+objectPath, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestObjectRoutesOnlyForLocalStorage(t *testing.T) {
	router := newTestRouter(t, storagetest.New(testBaseURL))

	w, _ := do(router, httptest.NewRequest(http.MethodGet, "/storage/v1/object/public/story-images/u1/a.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
