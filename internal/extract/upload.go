package extract

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyFile       = errors.New("file is empty")
)

// AllowedContentTypes are the image types accepted for upload.
var AllowedContentTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/tiff",
	"image/bmp",
}

// ContentType returns the declared type when set, otherwise the type sniffed
// from the first bytes of data. Parameters such as charset are dropped.
func ContentType(declared string, data []byte) string {
	ct := declared
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// ValidateUpload checks an uploaded image against the allowed types and
// the size limit.
func ValidateUpload(contentType string, size, maxSize int64) error {
	if size == 0 {
		return &StageError{Stage: StageUpload, Err: ErrEmptyFile}
	}
	if size > maxSize {
		return &StageError{Stage: StageUpload, Err: fmt.Errorf("%w: %d bytes exceeds maximum of %d", ErrFileTooLarge, size, maxSize)}
	}
	for _, allowed := range AllowedContentTypes {
		if contentType == allowed {
			return nil
		}
	}
	return &StageError{Stage: StageUpload, Err: fmt.Errorf("%w: %q (allowed: %s)",
		ErrUnsupportedType, contentType, strings.Join(AllowedContentTypes, ", "))}
}
