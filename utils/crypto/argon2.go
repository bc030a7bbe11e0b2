package cryptopackage

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash 哈希字符串格式不正确
var ErrInvalidHash = errors.New("invalid Argon2id hash format")

// Params Argon2id 成本参数
type Params struct {
	// Memory 以 KiB 为单位
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams 交互式登录使用的参数，64 MB 内存
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher 密码哈希器
type PasswordHasher struct {
	params Params
}

// NewPasswordHasher 使用给定参数创建哈希器
func NewPasswordHasher(p Params) *PasswordHasher {
	return &PasswordHasher{params: p}
}

// Hash 哈希密码
// 输出格式: $argon2id$v={version}$m={memory},t={iterations},p={parallelism}${salt}${hash}
func (h *PasswordHasher) Hash(password string) (string, error) {
	p := h.params
	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// Verify 比较明文密码与哈希，成本参数从哈希中读取
func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: version: %v", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	var memory, iterations, parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("%w: cost parameters: %v", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: hash: %v", ErrInvalidHash, err)
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, uint8(parallelism), uint32(len(want)))

	// constant-time 比较
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

var defaultHasher = NewPasswordHasher(DefaultParams)

// GenerateFromPassword 使用默认参数哈希密码
func GenerateFromPassword(password string) (string, error) {
	return defaultHasher.Hash(password)
}

// ComparePasswordAndHash 比较明文密码和 Argon2id 哈希值
func ComparePasswordAndHash(password, encodedHash string) (bool, error) {
	return defaultHasher.Verify(password, encodedHash)
}
