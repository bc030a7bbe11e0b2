package story

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagamachi/meiten/internal/apperr"
)

func validInput() Input {
	return Input{
		ShopName: "喫茶みどり",
		Area:     "下町",
		Genre:    "喫茶店",
		Title:    "雨の日の珈琲",
		Content:  "本文",
	}
}

func TestInput_Normalize(t *testing.T) {
	in := Input{ShopName: "  喫茶みどり ", Area: "\t下町", Genre: "喫茶店\n", AuthorName: "   "}
	in.Normalize()

	assert.Equal(t, "喫茶みどり", in.ShopName)
	assert.Equal(t, "下町", in.Area)
	assert.Equal(t, "喫茶店", in.Genre)
	assert.Equal(t, DefaultAuthorName, in.AuthorName)
}

func TestInput_Validate(t *testing.T) {
	require.NoError(t, validInput().Validate())

	required := map[string]func(*Input){
		"shop_name": func(in *Input) { in.ShopName = "" },
		"area":      func(in *Input) { in.Area = "" },
		"genre":     func(in *Input) { in.Genre = "" },
		"title":     func(in *Input) { in.Title = "  " },
		"content":   func(in *Input) { in.Content = "" },
	}
	for field, mutate := range required {
		t.Run(field, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			ve, ok := apperr.IsValidation(in.Validate())
			require.True(t, ok)
			assert.Equal(t, field, ve.Field)
			assert.Equal(t, "店名、エリア、ジャンル、タイトル、本文は必須です", ve.Message)
		})
	}

	t.Run("title too long", func(t *testing.T) {
		in := validInput()
		in.Title = strings.Repeat("題", 201)
		ve, ok := apperr.IsValidation(in.Validate())
		require.True(t, ok)
		assert.Equal(t, "title", ve.Field)
	})
}
