package controllers

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/errors"
)

// DefaultMaxUploadSize applies when no limit is configured.
const DefaultMaxUploadSize = 50 * 1024 * 1024 // 50MB

var allowedCSVExtensions = map[string]bool{
	".csv": true,
	".txt": true,
}

var allowedCSVContentTypes = map[string]bool{
	"text/csv":        true,
	"application/csv": true,
	"text/plain":      true,
}

// FileValidator checks uploaded CSV files.
type FileValidator struct {
	maxSize int64
}

func NewFileValidator(maxSize int64) *FileValidator {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &FileValidator{maxSize: maxSize}
}

// IsValidCSVFile accepts csv-like content types or a .csv/.txt extension.
func (v *FileValidator) IsValidCSVFile(file *multipart.FileHeader) bool {
	if mt, _, err := mime.ParseMediaType(file.Header.Get("Content-Type")); err == nil && allowedCSVContentTypes[mt] {
		return true
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	return allowedCSVExtensions[ext]
}

// ValidateFileSize rejects files above the configured limit.
func (v *FileValidator) ValidateFileSize(file *multipart.FileHeader) error {
	if file.Size > v.maxSize {
		return apperrors.ErrTooLarge.WithMessage(fmt.Sprintf("File too large (max %dMB)", v.maxSize/(1024*1024)))
	}
	return nil
}

// OpenUpload returns the validated "file" form field.
func (v *FileValidator) OpenUpload(c *gin.Context) (multipart.File, *multipart.FileHeader, error) {
	// Multipart framing adds a little on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, v.maxSize+1024*1024)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, apperrors.ErrTooLarge.Wrap(err).WithMessage(fmt.Sprintf("File too large (max %dMB)", v.maxSize/(1024*1024)))
		}
		return nil, nil, apperrors.ErrMissingFile.Wrap(err)
	}
	if !v.IsValidCSVFile(file) {
		return nil, nil, apperrors.ErrInvalidFileType
	}
	if err := v.ValidateFileSize(file); err != nil {
		return nil, nil, err
	}

	f, err := file.Open()
	if err != nil {
		return nil, nil, apperrors.ErrInternalServer.Wrap(err)
	}
	return f, file, nil
}
