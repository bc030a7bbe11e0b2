package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagamachi/meiten/database/dbtest"
	"github.com/wagamachi/meiten/database/models"
)

func TestParseConflictStrategy(t *testing.T) {
	for _, s := range []string{"skip", "overwrite", "error"} {
		got, err := parseConflictStrategy(s)
		require.NoError(t, err)
		assert.Equal(t, conflictStrategy(s), got)
	}
	_, err := parseConflictStrategy("merge")
	assert.Error(t, err)
}

func TestCopyDatabase(t *testing.T) {
	ctx := context.Background()
	source := dbtest.Open(t)
	target := dbtest.Open(t)

	user := models.User{Email: "taro@example.com", Password: "hash"}
	require.NoError(t, source.Create(&user).Error)
	shop := models.Shop{Name: "喫茶みどり", Area: "下町", Genre: "喫茶店"}
	require.NoError(t, source.Create(&shop).Error)
	story := models.Story{
		UserID: user.ID, ShopID: &shop.ID,
		Title: "朝の一杯", Content: "本文", Excerpt: "本文", AuthorName: "たろう", Published: true,
	}
	require.NoError(t, source.Omit("Shop").Create(&story).Error)

	stats, err := copyDatabase(ctx, source, target, 1, conflictSkip)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.tables["users"])
	assert.Equal(t, 1, stats.tables["shops"])
	assert.Equal(t, 1, stats.tables["stories"])

	var copied models.Story
	require.NoError(t, target.First(&copied, "id = ?", story.ID).Error)
	assert.Equal(t, "朝の一杯", copied.Title)
	require.NotNil(t, copied.ShopID)
	assert.Equal(t, shop.ID, *copied.ShopID)

	// 重复执行按策略处理
	stats, err = copyDatabase(ctx, source, target, 10, conflictSkip)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.skipped)

	require.NoError(t, source.Model(&models.Story{}).Where("id = ?", story.ID).Update("title", "夜の一杯").Error)
	stats, err = copyDatabase(ctx, source, target, 10, conflictOverwrite)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.overwritten)
	require.NoError(t, target.First(&copied, "id = ?", story.ID).Error)
	assert.Equal(t, "夜の一杯", copied.Title)

	_, err = copyDatabase(ctx, source, target, 10, conflictError)
	assert.Error(t, err)
}
