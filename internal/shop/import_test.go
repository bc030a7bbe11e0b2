package shop

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagamachi/meiten/database/dbtest"
	"github.com/wagamachi/meiten/database/repo/shops"
)

const seedYAML = `
shops:
  - name: " 喫茶みどり "
    area: 下町
    genre: 喫茶店
    address: 1-2-3
    lat: 35.71
    lng: 139.79
  - name: 定食さくら
    area: 港町
    genre: 定食
`

func TestParseSeed(t *testing.T) {
	got, err := ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "喫茶みどり", got[0].Name)
	require.NotNil(t, got[0].Address)
	assert.Equal(t, "1-2-3", *got[0].Address)
	require.NotNil(t, got[0].Lat)
	assert.InDelta(t, 35.71, *got[0].Lat, 1e-9)
	assert.Nil(t, got[1].Address)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing genre", "shops:\n  - name: a\n    area: b\n"},
		{"unknown field", "shops:\n  - name: a\n    area: b\n    genre: c\n    phone: 1\n"},
		{"not yaml list", "shops: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed(strings.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseSeed_Empty(t *testing.T) {
	got, err := ParseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestImport_SkipsExistingTriples(t *testing.T) {
	repo := shops.NewRepository(dbtest.Open(t))
	ctx := context.Background()

	seed, err := ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)

	res, err := Import(ctx, repo, seed)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Created: 2}, res)

	// 再次导入全部跳过
	seed, err = ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	res, err = Import(ctx, repo, seed)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Skipped: 2}, res)

	list, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
