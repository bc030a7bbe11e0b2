package image

import (
	"fmt"
	"io"
	"strings"

	"github.com/wagamachi/meiten/internal/apperr"
)

// DefaultMaxSize 单张图片上限 5 MiB
const DefaultMaxSize int64 = 5 * 1024 * 1024

// State 图片附件状态
type State int

const (
	StateEmpty State = iota
	StateLocallySelected
	StateUploading
	StateStored
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLocallySelected:
		return "locally_selected"
	case StateUploading:
		return "uploading"
	case StateStored:
		return "stored"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// File 用户选择的本地文件
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ValidateSelection 校验声明类型与大小
func ValidateSelection(f *File, maxSize int64) error {
	if f == nil {
		return apperr.Validation("image", "画像ファイルを選択してください")
	}
	if !strings.HasPrefix(f.ContentType, "image/") {
		return apperr.Validation("image", "画像ファイルを選択してください")
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if f.Size > maxSize {
		return apperr.Validation("image", fmt.Sprintf("画像は%dMB以下にしてください", maxSize>>20))
	}
	return nil
}

// Attachment 一个故事的图片附件
//
//	Empty -> LocallySelected -> Uploading -> Stored
//
// 删除标记与状态正交，仅在已有存储图片时可设置
type Attachment struct {
	state            State
	maxSize          int64
	selected         *File
	existingURL      string
	markedForRemoval bool
}

// NewAttachment existingURL 为空时从 Empty 开始，否则为 Stored
func NewAttachment(existingURL string, maxSize int64) *Attachment {
	a := &Attachment{existingURL: existingURL, maxSize: maxSize}
	if existingURL != "" {
		a.state = StateStored
	}
	return a
}

// State 当前状态
func (a *Attachment) State() State { return a.state }

// Selected 已选择但尚未上传的文件
func (a *Attachment) Selected() *File { return a.selected }

// ExistingURL 已保存的图片 URL
func (a *Attachment) ExistingURL() string { return a.existingURL }

// MarkedForRemoval 是否标记删除
func (a *Attachment) MarkedForRemoval() bool { return a.markedForRemoval }

// Select 选择新文件，校验失败时状态不变
func (a *Attachment) Select(f *File) error {
	if err := ValidateSelection(f, a.maxSize); err != nil {
		return err
	}
	a.selected = f
	a.markedForRemoval = false
	a.state = StateLocallySelected
	return nil
}

// ClearSelection 取消尚未上传的选择
func (a *Attachment) ClearSelection() {
	if a.state != StateLocallySelected {
		return
	}
	a.selected = nil
	if a.existingURL != "" {
		a.state = StateStored
	} else {
		a.state = StateEmpty
	}
}

// MarkForRemoval 标记删除已保存的图片，没有已保存图片时返回 false
func (a *Attachment) MarkForRemoval() bool {
	if a.existingURL == "" {
		return false
	}
	a.markedForRemoval = true
	a.selected = nil
	if a.state == StateLocallySelected {
		a.state = StateStored
	}
	return true
}

// beginUpload 进入上传中状态
func (a *Attachment) beginUpload() {
	a.state = StateUploading
}

// completeUpload 上传成功，新 URL 成为已保存图片
func (a *Attachment) completeUpload(url string) {
	a.existingURL = url
	a.selected = nil
	a.markedForRemoval = false
	a.state = StateStored
}

// abortUpload 上传失败，回到已选择状态以便重试
func (a *Attachment) abortUpload() {
	a.state = StateLocallySelected
}
