package utils

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxProofImageSize is 10MB in bytes
	MaxProofImageSize = 10 * 1024 * 1024
	// ProofImageExt is the only accepted proof-of-delivery format
	ProofImageExt = ".png"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// UploadDir is where proof-of-delivery images are stored locally.
// Overridden from config at startup and in tests.
var UploadDir = "./uploads"

// FileUploadError is a rejected upload; Code ends up in the response envelope
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateProofImage checks size, extension and that the content really is a PNG
func ValidateProofImage(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxProofImageSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxProofImageSize/(1024*1024)),
		}
	}

	if strings.ToLower(filepath.Ext(fileHeader.Filename)) != ProofImageExt {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", ProofImageExt),
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	head := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(src, head); err != nil || !bytes.Equal(head, pngSignature) {
		return &FileUploadError{
			Code:    "INVALID_IMAGE_CONTENT",
			Message: "File content is not a PNG image",
		}
	}
	return nil
}

// ProofImageName is the stored name for an upload: a random prefix plus the
// client's base name, so repeated uploads never collide or escape the directory.
func ProofImageName(original string) string {
	return fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(original))
}

// SaveProofImage writes the upload into dir and returns the stored name.
// The file only appears under its final name once fully written.
func SaveProofImage(fileHeader *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Failed to close uploaded file")
		}
	}()

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	name := ProofImageName(fileHeader.Filename)
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	committed = true
	return name, nil
}

// ProofImageURL returns the API path serving a locally stored image
func ProofImageURL(name string) string {
	if name == "" {
		return ""
	}
	return "/api/uploads/" + name
}
