package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "story-images"

func newTestLocalStorage(t *testing.T, public bool) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{
		BasePath:      t.TempDir(),
		BaseURL:       "http://localhost:8080",
		Public:        public,
		SigningSecret: []byte("test-secret"),
	})
	require.NoError(t, err)
	return s
}

// TestLocalStorage_PathTraversal_Prevention 测试路径遍历防护
func TestLocalStorage_PathTraversal_Prevention(t *testing.T) {
	storage := newTestLocalStorage(t, false)
	ctx := context.Background()

	traversalAttempts := []string{
		"../../../etc/passwd",
		"..\\..\\..\\windows\\system32\\config\\sam",
		"../../.env",
		"..",
		".",
		"",
		"/absolute/path",
		"folder/../../../etc/passwd",
		"file\x00.txt",
		"file\n.txt",
		"dir/",
	}

	for _, attempt := range traversalAttempts {
		t.Run("upload_"+attempt, func(t *testing.T) {
			err := storage.Upload(ctx, testBucket, attempt, strings.NewReader("x"), 1, "image/png")
			assert.Error(t, err, "Path traversal attempt should be rejected: %q", attempt)
			assert.Contains(t, err.Error(), "invalid")
		})
	}

	_, err := storage.Open(ctx, "../etc", "passwd")
	assert.Error(t, err)
}

// TestLocalStorage_UploadNeverOverwrites 上传不会覆盖已有对象
func TestLocalStorage_UploadNeverOverwrites(t *testing.T) {
	storage := newTestLocalStorage(t, false)
	ctx := context.Background()

	require.NoError(t, storage.Upload(ctx, testBucket, "u1/a.png", strings.NewReader("first"), 5, "image/png"))

	err := storage.Upload(ctx, testBucket, "u1/a.png", strings.NewReader("second"), 6, "image/png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrObjectExists))

	f, err := storage.Open(ctx, testBucket, "u1/a.png")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	// 对象实际落在 {base}/{bucket}/{path}
	_, err = os.Stat(filepath.Join(storage.BasePath(), testBucket, "u1", "a.png"))
	assert.NoError(t, err)
}

// TestLocalStorage_OpenMissing 打开不存在的对象
func TestLocalStorage_OpenMissing(t *testing.T) {
	storage := newTestLocalStorage(t, false)

	_, err := storage.Open(context.Background(), testBucket, "u1/missing.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

// TestLocalStorage_SignedURL 签名 URL 结构与 token 校验
func TestLocalStorage_SignedURL(t *testing.T) {
	storage := newTestLocalStorage(t, false)
	ctx := context.Background()

	signed, err := storage.SignedURL(ctx, testBucket, "u1/a.png", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "http://localhost:8080/storage/v1/object/sign/story-images/u1/a.png?token="))
	assert.True(t, storage.Layout().IsSigned(signed))

	u, err := url.Parse(signed)
	require.NoError(t, err)
	token := u.Query().Get("token")

	assert.NoError(t, storage.VerifyToken(testBucket, "u1/a.png", token))
	assert.Error(t, storage.VerifyToken(testBucket, "u1/other.png", token))
	assert.Error(t, storage.VerifyToken("other", "u1/a.png", token))
	assert.Error(t, storage.VerifyToken(testBucket, "u1/a.png", token+"x"))
}

// TestLocalStorage_SignedURLExpired 过期 token 校验失败
func TestLocalStorage_SignedURLExpired(t *testing.T) {
	storage := newTestLocalStorage(t, false)

	signed, err := storage.SignedURL(context.Background(), testBucket, "u1/a.png", time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	u, _ := url.Parse(signed)
	assert.Error(t, storage.VerifyToken(testBucket, "u1/a.png", u.Query().Get("token")))
}

// TestLocalStorage_PublicBucket 公开桶不签名
func TestLocalStorage_PublicBucket(t *testing.T) {
	storage := newTestLocalStorage(t, true)

	_, err := storage.SignedURL(context.Background(), testBucket, "u1/a.png", time.Hour)
	assert.ErrorIs(t, err, ErrSigningUnsupported)
	assert.Equal(t,
		"http://localhost:8080/storage/v1/object/public/story-images/u1/a.png",
		storage.PublicURL(testBucket, "u1/a.png"))
}

// TestNewLocalStorage_RequiresSecret 私有桶必须配置签名密钥
func TestNewLocalStorage_RequiresSecret(t *testing.T) {
	_, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir(), BaseURL: "http://x"})
	assert.Error(t, err)
}

// TestIsValidBucketName bucket 名称校验
func TestIsValidBucketName(t *testing.T) {
	tests := []struct {
		bucket string
		want   bool
	}{
		{"story-images", true},
		{"bucket.v2", true},
		{"", false},
		{"..", false},
		{"Upper", false},
		{"a/b", false},
	}
	for _, tt := range tests {
		t.Run(tt.bucket, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidBucketName(tt.bucket))
		})
	}
}
