package image

import (
	"regexp"
	"strings"
)

var extensionPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// contentTypeExtensions 文件名无可用扩展名时按声明类型推断
var contentTypeExtensions = map[string]string{
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/jpeg": "jpg",
}

// ExtensionFor 推断对象扩展名
// 优先使用文件名最后一个 "." 之后的部分（仅限字母数字，转小写），其次按类型推断，默认 jpg
func ExtensionFor(filename, contentType string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		if ext := filename[i+1:]; extensionPattern.MatchString(ext) {
			return strings.ToLower(ext)
		}
	}
	if ext, ok := contentTypeExtensions[strings.ToLower(contentType)]; ok {
		return ext
	}
	return "jpg"
}
