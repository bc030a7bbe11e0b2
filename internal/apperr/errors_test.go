package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpstreamKeepsBothChains(t *testing.T) {
	cause := errors.New("connection reset")
	err := Upstream("upload image", cause)

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upload image")
}

func TestIsValidation(t *testing.T) {
	err := Validation("title", "タイトルを入力してください")

	ve, ok := IsValidation(err)
	assert.True(t, ok)
	assert.Equal(t, "title", ve.Field)
	assert.Equal(t, "title: タイトルを入力してください", err.Error())

	_, ok = IsValidation(ErrNotFound)
	assert.False(t, ok)
}
