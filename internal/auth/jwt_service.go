package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wagamachi/meiten/database/models"
)

const (
	tokenTypeAccess = "access"
	issuer          = "meiten"
)

// TokenClaims JWT 令牌声明
type TokenClaims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// UserID 令牌所属用户
func (c *TokenClaims) UserID() string {
	return c.Subject
}

// TokenConfig 保存 JWT 配置
type TokenConfig struct {
	Secret    []byte
	ExpiresIn time.Duration
}

// JWTService JWT Token 服务
type JWTService struct {
	config TokenConfig
	now    func() time.Time
}

// NewJWTService 创建新的 JWT 服务
func NewJWTService(cfg TokenConfig) (*JWTService, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters long, got %d", len(cfg.Secret))
	}
	if cfg.ExpiresIn <= 0 {
		return nil, errors.New("JWT expiry must be positive")
	}
	return &JWTService{config: cfg, now: time.Now}, nil
}

// GenerateAccessToken 生成访问令牌
func (s *JWTService) GenerateAccessToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiry := now.Add(s.config.ExpiresIn)

	claims := TokenClaims{
		Email: user.Email,
		Type:  tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, expiry, nil
}

// ParseToken 解析和验证访问令牌
func (s *JWTService) ParseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.config.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.Type != tokenTypeAccess || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
