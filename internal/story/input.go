package story

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/wagamachi/meiten/internal/apperr"
)

const (
	// DefaultAuthorName 未填写投稿者名时使用
	DefaultAuthorName = "匿名"

	msgRequired = "店名、エリア、ジャンル、タイトル、本文は必須です"
)

// Input 投稿表单
type Input struct {
	ShopName   string `json:"shop_name" form:"shop_name"`
	Area       string `json:"area" form:"area"`
	Genre      string `json:"genre" form:"genre"`
	Title      string `json:"title" form:"title"`
	Content    string `json:"content" form:"content"`
	AuthorName string `json:"author_name" form:"author_name"`
	Published  bool   `json:"published" form:"published"`

	// ShopID 从店铺列表选择时携带，用于补全空白的店铺字段
	ShopID string `json:"shop_id" form:"shop_id"`
}

// Normalize 去除店铺字段与投稿者名两端空白，投稿者名为空时使用默认值
func (in *Input) Normalize() {
	in.ShopName = strings.TrimSpace(in.ShopName)
	in.Area = strings.TrimSpace(in.Area)
	in.Genre = strings.TrimSpace(in.Genre)
	in.ShopID = strings.TrimSpace(in.ShopID)
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	if in.AuthorName == "" {
		in.AuthorName = DefaultAuthorName
	}
}

// Validate 校验必填项与长度，返回 apperr.ValidationError
func (in Input) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.ShopName, validation.By(notBlank), validation.RuneLength(0, 100)),
		validation.Field(&in.Area, validation.By(notBlank), validation.RuneLength(0, 100)),
		validation.Field(&in.Genre, validation.By(notBlank), validation.RuneLength(0, 100)),
		validation.Field(&in.Title, validation.By(notBlank), validation.RuneLength(0, 200)),
		validation.Field(&in.Content, validation.By(notBlank)),
		validation.Field(&in.AuthorName, validation.RuneLength(0, 100)),
	)
	if err == nil {
		return nil
	}

	var fields validation.Errors
	if !errors.As(err, &fields) {
		return err
	}
	for _, name := range []string{"shop_name", "area", "genre", "title", "content", "author_name"} {
		fe, ok := fields[name]
		if !ok {
			continue
		}
		if errors.Is(fe, errBlank) {
			return apperr.Validation(name, msgRequired)
		}
		return apperr.Validation(name, fe.Error())
	}
	return apperr.Validation("", err.Error())
}

var errBlank = errors.New("cannot be blank")

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}
