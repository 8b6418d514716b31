package storage

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/metrics"
)

const MaxImageSize = 5 << 20

const (
	ReasonInvalidType  = "invalid_type"
	ReasonTooLarge     = "too_large"
	ReasonUploadFailed = "upload_failed"
)

var rejectionMessages = map[string]string{
	ReasonInvalidType:  "يرجى اختيار ملفات صور فقط",
	ReasonTooLarge:     "يجب أن يكون حجم الصورة أقل من 5 ميجابايت",
	ReasonUploadFailed: "خطأ في رفع الصورة",
}

// File is one upload candidate. Open is called at most once.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

type Rejection struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

type Result struct {
	URLs     []string    `json:"urls"`
	Rejected []Rejection `json:"rejected"`
}

type Uploader struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewUploader(store Store, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{store: store, log: log, now: time.Now}
}

// Upload stores the files one after another. A rejected or failed file is
// skipped and the rest of the batch continues.
func (u *Uploader) Upload(ctx context.Context, files []File) Result {
	res := Result{URLs: []string{}, Rejected: []Rejection{}}
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		url, reason := u.uploadOne(ctx, f)
		if reason != "" {
			metrics.ImagesRejected.WithLabelValues(reason).Inc()
			res.Rejected = append(res.Rejected, Rejection{Filename: f.Filename, Reason: reason, Message: rejectionMessages[reason]})
			continue
		}
		metrics.ImagesUploaded.Inc()
		res.URLs = append(res.URLs, url)
	}
	return res
}

func (u *Uploader) uploadOne(ctx context.Context, f File) (string, string) {
	contentType := f.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(filepath.Ext(f.Filename))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", ReasonInvalidType
	}
	if f.Size > MaxImageSize {
		return "", ReasonTooLarge
	}

	rc, err := f.Open()
	if err != nil {
		u.log.Error("خطأ في رفع الصورة", zap.String("file", f.Filename), zap.Error(err))
		return "", ReasonUploadFailed
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, MaxImageSize+1))
	if err != nil {
		u.log.Error("خطأ في رفع الصورة", zap.String("file", f.Filename), zap.Error(err))
		return "", ReasonUploadFailed
	}
	if len(data) > MaxImageSize {
		return "", ReasonTooLarge
	}

	name := u.objectName(f.Filename)
	if err := u.store.Put(ctx, name, contentType, data); err != nil {
		u.log.Error("خطأ في رفع الصورة", zap.String("file", f.Filename), zap.Error(err))
		return "", ReasonUploadFailed
	}
	return u.store.URL(name), ""
}

// objectName is "<unix ms>-<9 base36 chars>.<ext>".
func (u *Uploader) objectName(filename string) string {
	id := uuid.New()
	suffix := new(big.Int).SetBytes(id[:]).Text(36)
	if len(suffix) < 9 {
		suffix = strings.Repeat("0", 9-len(suffix)) + suffix
	}
	return fmt.Sprintf("%d-%s.%s", u.now().UnixMilli(), suffix[len(suffix)-9:], extension(filename))
}

func extension(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	ext = strings.ToLower(ext)
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		return "img"
	}
	return ext
}

// Remove deletes the object behind publicURL. It reports whether the delete
// failed; the caller drops the URL either way.
func (u *Uploader) Remove(ctx context.Context, publicURL string) bool {
	name, err := ObjectName(publicURL)
	if err == nil {
		err = u.store.Delete(ctx, name)
	}
	if err != nil {
		u.log.Warn("خطأ في حذف الصورة", zap.String("url", publicURL), zap.Error(err))
		return true
	}
	return false
}
