package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LocalConfig 本地存储配置
type LocalConfig struct {
	BasePath      string
	BaseURL       string
	Public        bool
	SigningSecret []byte
}

// LocalStorage 本地文件存储实现
// 对象保存在 {BasePath}/{bucket}/{objectPath}，URL 由本服务的 /storage/v1/object 路由提供
type LocalStorage struct {
	absBasePath string
	layout      Layout
	public      bool
	secret      []byte
}

// objectClaims 签名 URL 的 token 载荷
type objectClaims struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
	jwt.RegisteredClaims
}

// NewLocalStorage 创建本地存储提供者
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", cfg.BasePath, err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory '%s': %w", absPath, err)
	}

	testFile := filepath.Join(absPath, ".write_test_"+strconv.FormatInt(time.Now().UnixNano(), 10))
	f, err := os.Create(testFile)
	if err != nil {
		return nil, fmt.Errorf("local storage directory '%s' is not writable: %w", absPath, err)
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	if !cfg.Public && len(cfg.SigningSecret) == 0 {
		return nil, fmt.Errorf("local storage requires a signing secret for private buckets")
	}

	return &LocalStorage{
		absBasePath: absPath + string(os.PathSeparator),
		layout:      SupabaseStyleLayout(cfg.BaseURL),
		public:      cfg.Public,
		secret:      cfg.SigningSecret,
	}, nil
}

// resolve 将 bucket 与对象路径映射为磁盘路径
func (s *LocalStorage) resolve(bucket, objectPath string) (string, error) {
	if !IsValidBucketName(bucket) || !IsValidStoragePath(objectPath) {
		return "", fmt.Errorf("invalid storage path: %s/%s", bucket, objectPath)
	}

	fullPath := filepath.Join(s.absBasePath, bucket, objectPath)

	// 防止目录遍历攻击
	if !strings.HasPrefix(fullPath, s.absBasePath) {
		return "", fmt.Errorf("invalid file path, potential directory traversal: %s", objectPath)
	}
	return fullPath, nil
}

// Upload 保存文件到本地存储，目标已存在时返回 ErrObjectExists
func (s *LocalStorage) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, size int64, contentType string) error {
	dstPath, err := s.resolve(bucket, objectPath)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", objectPath, err)
	}

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s/%s", ErrObjectExists, bucket, objectPath)
		}
		return fmt.Errorf("failed to create destination file '%s': %w", dstPath, err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, r); err != nil {
		_ = os.Remove(dstPath)
		return fmt.Errorf("failed to copy file content to '%s': %w", dstPath, err)
	}

	return nil
}

// Open 打开对象用于读取
func (s *LocalStorage) Open(ctx context.Context, bucket, objectPath string) (*os.File, error) {
	fullPath, err := s.resolve(bucket, objectPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, objectPath)
		}
		return nil, fmt.Errorf("failed to open file '%s': %w", objectPath, err)
	}
	return file, nil
}

// SignedURL 生成带 token 的限时 URL
func (s *LocalStorage) SignedURL(ctx context.Context, bucket, objectPath string, ttl time.Duration) (string, error) {
	if s.public {
		return "", ErrSigningUnsupported
	}
	if _, err := s.resolve(bucket, objectPath); err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("invalid signed url ttl: %s", ttl)
	}

	now := time.Now()
	claims := objectClaims{
		Bucket: bucket,
		Path:   objectPath,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign object token: %w", err)
	}

	return s.layout.SignedBase(bucket, objectPath) + "?" + s.layout.SignatureParam + "=" + url.QueryEscape(token), nil
}

// VerifyToken 校验签名 URL 的 token 是否对应该对象且未过期
func (s *LocalStorage) VerifyToken(bucket, objectPath, tokenString string) error {
	claims := &objectClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("invalid object token: %w", err)
	}
	if !token.Valid || claims.Bucket != bucket || claims.Path != objectPath {
		return fmt.Errorf("object token does not match %s/%s", bucket, objectPath)
	}
	return nil
}

// PublicURL 返回公开 URL
func (s *LocalStorage) PublicURL(bucket, objectPath string) string {
	return s.layout.PublicURL(bucket, objectPath)
}

// IsPublic 桶是否公开可读
func (s *LocalStorage) IsPublic() bool {
	return s.public
}

// MaxSignedURLTTL 本地 token 无上限
func (s *LocalStorage) MaxSignedURLTTL() time.Duration {
	return 0
}

// Layout 返回 URL 结构
func (s *LocalStorage) Layout() Layout {
	return s.layout
}

// Health 检查存储健康状态
func (s *LocalStorage) Health(ctx context.Context) error {
	_, err := os.ReadDir(s.absBasePath)
	return err
}

// Name 返回存储名称
func (s *LocalStorage) Name() string {
	return "local"
}

// BasePath 返回存储的基础路径
func (s *LocalStorage) BasePath() string {
	return s.absBasePath
}

// IsValidBucketName 校验 bucket 名称
func IsValidBucketName(bucket string) bool {
	if bucket == "" || bucket == "." || bucket == ".." {
		return false
	}
	for _, r := range bucket {
		if (r < 'a' || r > 'z') &&
			(r < '0' || r > '9') &&
			r != '-' && r != '.' {
			return false
		}
	}
	return true
}

// IsValidStoragePath 校验存储路径是否合法
func IsValidStoragePath(path string) bool {
	if path == "" || path == "." || strings.HasSuffix(path, "/") {
		return false
	}

	// 不允许绝对路径
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return false
	}

	// 防止目录遍历
	if strings.Contains(path, "..") {
		return false
	}

	// 只允许安全字符
	for _, r := range path {
		if (r < 'a' || r > 'z') &&
			(r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') &&
			r != '-' && r != '_' && r != '.' && r != '/' {
			return false
		}
	}

	return true
}
