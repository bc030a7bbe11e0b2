package storage

import (
	"net/url"
	"strings"
)

// Layout 描述存储对外暴露的 URL 结构
//
//	{BaseURL}{ObjectPrefix}...                 该存储管理的全部 URL
//	{BaseURL}{PublicPrefix}{bucket}/{path}     公开 URL
//	{BaseURL}{SignedPrefix}{bucket}/{path}?... 签名 URL（SignedPrefix 可为空）
type Layout struct {
	BaseURL        string
	ObjectPrefix   string
	PublicPrefix   string
	SignedPrefix   string
	SignatureParam string
}

// SupabaseStyleLayout 本地存储使用的 URL 结构
func SupabaseStyleLayout(baseURL string) Layout {
	return Layout{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		ObjectPrefix:   "/storage/v1/object/",
		PublicPrefix:   "/storage/v1/object/public/",
		SignedPrefix:   "/storage/v1/object/sign/",
		SignatureParam: "token",
	}
}

// PathStyleLayout S3 兼容存储的 path-style URL 结构
func PathStyleLayout(endpoint string) Layout {
	return Layout{
		BaseURL:        strings.TrimRight(endpoint, "/"),
		ObjectPrefix:   "/",
		PublicPrefix:   "/",
		SignatureParam: "X-Amz-Signature",
	}
}

// PublicURL 拼接公开 URL
func (l Layout) PublicURL(bucket, objectPath string) string {
	return l.BaseURL + l.PublicPrefix + bucket + "/" + escapeObjectPath(objectPath)
}

// SignedBase 签名 URL 的无查询部分
func (l Layout) SignedBase(bucket, objectPath string) string {
	prefix := l.SignedPrefix
	if prefix == "" {
		prefix = l.PublicPrefix
	}
	return l.BaseURL + prefix + bucket + "/" + escapeObjectPath(objectPath)
}

// Owns URL 是否位于本存储的对象根路径下
func (l Layout) Owns(rawURL string) bool {
	if l.BaseURL == "" {
		return false
	}
	return strings.HasPrefix(rawURL, l.BaseURL+l.ObjectPrefix)
}

// IsSigned URL 是否已经是签名形式
func (l Layout) IsSigned(rawURL string) bool {
	if l.SignedPrefix != "" && strings.Contains(rawURL, l.SignedPrefix) {
		return true
	}
	if l.SignatureParam == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Query().Get(l.SignatureParam) != ""
}

// ParsePublic 从公开 URL 中解析 bucket 与对象路径
func (l Layout) ParsePublic(rawURL string) (bucket, objectPath string, ok bool) {
	prefix := l.BaseURL + l.PublicPrefix
	if l.BaseURL == "" || !strings.HasPrefix(rawURL, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(rawURL, prefix)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	bucket, escaped, found := strings.Cut(rest, "/")
	if !found || bucket == "" || escaped == "" {
		return "", "", false
	}
	objectPath, err := url.PathUnescape(escaped)
	if err != nil {
		return "", "", false
	}
	return bucket, objectPath, true
}

// escapeObjectPath 逐段转义对象路径，保留分隔符
func escapeObjectPath(objectPath string) string {
	segments := strings.Split(strings.TrimLeft(objectPath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
