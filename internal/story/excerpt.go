package story

import "strings"

// ExcerptMaxRunes 摘要最大字符数
const ExcerptMaxRunes = 100

// GenerateExcerpt 取正文第一段作为摘要，超过 100 个字符时截断并追加 "..."
// 表单提交的 CRLF 换行按 LF 处理
func GenerateExcerpt(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	first, _, _ := strings.Cut(content, "\n\n")
	runes := []rune(first)
	if len(runes) > ExcerptMaxRunes {
		return string(runes[:ExcerptMaxRunes]) + "..."
	}
	return first
}
