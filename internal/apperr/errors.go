// Package apperr 定义跨层共享的错误分类，API 层据此映射 HTTP 状态码
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 记录不存在，或当前用户无权查看
	ErrNotFound = errors.New("not found")
	// ErrUpstream 存储或数据库等外部依赖失败，操作已中止
	ErrUpstream = errors.New("upstream failure")
	// ErrUnauthorized 身份校验失败
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError 用户输入不合法，Message 可直接展示
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation 创建 ValidationError
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Upstream 将外部依赖错误标记为 ErrUpstream，保留原始错误链
func Upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}

// IsValidation 判断是否为输入校验错误
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
