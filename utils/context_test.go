package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRequestCanceled(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want bool
	}{
		{"nil error", canceled, nil, false},
		{"canceled error", nil, context.Canceled, true},
		{"wrapped canceled error", context.Background(), fmt.Errorf("upload image: %w", context.Canceled), true},
		{"error after request canceled", canceled, errors.New("connection reset"), true},
		{"message only is not enough", context.Background(), errors.New("Head \"http://minio:9000/b/p\": context canceled"), false},
		{"deadline exceeded", context.Background(), context.DeadlineExceeded, false},
		{"other error", context.Background(), errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRequestCanceled(tt.ctx, tt.err))
		})
	}
}
