package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"github.com/wagamachi/meiten/database/models"
	"github.com/wagamachi/meiten/database/repo/accounts"
	"github.com/wagamachi/meiten/internal/apperr"
	"github.com/wagamachi/meiten/utils"
	cryptopackage "github.com/wagamachi/meiten/utils/crypto"
)

// MinPasswordLength 密码最短长度
const MinPasswordLength = 8

// ErrInvalidCredentials 邮箱或密码错误
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)

// LoginResult 登录结果
type LoginResult struct {
	User              *models.User
	AccessToken       string
	AccessTokenExpiry time.Time
}

// RegisterRequest 注册参数
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// Validate 校验注册参数
func (r RegisterRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(MinPasswordLength, 128)),
		validation.Field(&r.DisplayName, validation.RuneLength(0, 100)),
	)
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		for _, name := range []string{"email", "password", "display_name"} {
			if fe, ok := fields[name]; ok {
				return apperr.Validation(name, fe.Error())
			}
		}
	}
	return apperr.Validation("", err.Error())
}

// LoginService 登录服务
type LoginService struct {
	accountsRepo *accounts.Repository
	jwtService   *JWTService
	hasher       *cryptopackage.PasswordHasher
}

// NewLoginService 创建新的登录服务
func NewLoginService(
	accountsRepo *accounts.Repository,
	jwtService *JWTService,
	hasher *cryptopackage.PasswordHasher,
) *LoginService {
	return &LoginService{
		accountsRepo: accountsRepo,
		jwtService:   jwtService,
		hasher:       hasher,
	}
}

// Register 注册新用户
func (s *LoginService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Email = accounts.NormalizeEmail(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: req.Email, Password: hash, DisplayName: req.DisplayName}
	if err := s.accountsRepo.Create(ctx, user); err != nil {
		if errors.Is(err, accounts.ErrEmailExists) {
			return nil, apperr.Validation("email", "このメールアドレスは既に登録されています")
		}
		return nil, apperr.Upstream("create user", err)
	}

	zap.L().Info("User registered", zap.String("user_id", user.ID))
	return user, nil
}

// ValidateCredentials 验证用户凭据
func (s *LoginService) ValidateCredentials(ctx context.Context, email, password string) (*models.User, bool, error) {
	user, err := s.accountsRepo.GetByEmail(ctx, email)
	if errors.Is(err, accounts.ErrUserNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		return nil, false, fmt.Errorf("password comparison failed: %w", err)
	}
	return user, ok, nil
}

// Login 执行登录操作
func (s *LoginService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, valid, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, apperr.Upstream("validate credentials", err)
	}
	if !valid {
		zap.L().Info("Login failed", zap.String("email", utils.SanitizeLogValue(email)))
		return nil, ErrInvalidCredentials
	}

	token, expiry, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:              user,
		AccessToken:       token,
		AccessTokenExpiry: expiry,
	}, nil
}
