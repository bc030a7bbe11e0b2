package utils

import (
	"strings"
	"unicode"
)

// SanitizeLogMessage 去除控制字符，保留换行与制表符
func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == '\n' || r == '\t' {
			sb.WriteRune(r)
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogValue 用户输入写日志前截断并清理，按字符截断
func SanitizeLogValue(value string) string {
	if r := []rune(value); len(r) > 50 {
		value = string(r[:50]) + "..."
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		return r
	}, SanitizeLogMessage(value))
}
