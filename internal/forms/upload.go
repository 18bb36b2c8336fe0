package forms

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"slidegenie/internal/config"
	"slidegenie/internal/domain"
)

// AcceptedUploadExtensions are the source document types generation accepts.
var AcceptedUploadExtensions = []string{".pdf", ".docx", ".tex", ".txt"}

// UploadError describes why a source file was rejected.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string { return e.Message }

// Unwrap lets errors.Is match domain.ErrValidation.
func (e *UploadError) Unwrap() error { return domain.ErrValidation }

// ValidateUpload checks extension, size and, for binary formats, the sniffed
// content type of the file at path.
func ValidateUpload(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !accepted(ext) {
		return &UploadError{Message: fmt.Sprintf("File type not supported. Please upload %s files.",
			strings.Join(AcceptedUploadExtensions, ", "))}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat upload: %w", err)
	}
	if info.Size() > config.MaxUploadSize {
		sizeMB := float64(info.Size()) / (1024 * 1024)
		return &UploadError{Message: fmt.Sprintf("File size exceeds %dMB limit. Your file is %.2fMB.",
			config.MaxUploadSize>>20, sizeMB)}
	}

	switch ext {
	case ".pdf", ".docx":
		mtype, err := mimetype.DetectFile(path)
		if err != nil {
			return fmt.Errorf("detect upload type: %w", err)
		}
		if ext == ".pdf" && !strings.Contains(mtype.String(), "pdf") {
			return &UploadError{Message: "Invalid PDF file. Please ensure the file is a valid PDF document."}
		}
		if ext == ".docx" && !strings.Contains(mtype.String(), "officedocument") {
			return &UploadError{Message: "Invalid DOCX file. Please ensure the file is a valid Word document."}
		}
	}
	return nil
}

func accepted(ext string) bool {
	for _, a := range AcceptedUploadExtensions {
		if a == ext {
			return true
		}
	}
	return false
}
