package utils

import (
	"context"
	"errors"
)

// IsRequestCanceled 判断失败是否源于请求被取消（客户端断开）
// ctx 为请求上下文，可为 nil
func IsRequestCanceled(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return ctx != nil && errors.Is(ctx.Err(), context.Canceled)
}
