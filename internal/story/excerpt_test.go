package story

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateExcerpt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"first paragraph", "Hello world.\n\nSecond paragraph", "Hello world."},
		{"crlf paragraphs", "Hello world.\r\n\r\nSecond paragraph", "Hello world."},
		{"crlf inside first paragraph", "line one\r\nline two\r\n\r\nrest", "line one\nline two"},
		{"single newline kept", "line one\nline two", "line one\nline two"},
		{"empty", "", ""},
		{"exactly 100", strings.Repeat("a", 100), strings.Repeat("a", 100)},
		{"101 truncated", strings.Repeat("a", 101), strings.Repeat("a", 100) + "..."},
		{"counts characters not bytes", strings.Repeat("店", 101), strings.Repeat("店", 100) + "..."},
		{"leading blank paragraph", "\n\nbody", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateExcerpt(tt.content))
		})
	}
}
