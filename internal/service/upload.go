package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/eventhub/internal/validation"
)

// UploadPrefix is the URL path under which stored images are served.
const UploadPrefix = "/uploads/"

// UploadService stores event images in a local directory.
type UploadService struct {
	dir string
}

// NewUploadService stores files under dir, creating it on first use.
func NewUploadService(dir string) *UploadService {
	return &UploadService{dir: dir}
}

// Dir returns the storage directory.
func (s *UploadService) Dir() string {
	return s.dir
}

// Save checks that content is an image within the size limit, writes it
// under a random name and returns the path it is served at.
func (s *UploadService) Save(name string, size int64, content io.ReaderAt) (string, error) {
	if err := validation.Image(name, size, content); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	stored := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	out, err := os.OpenFile(filepath.Join(s.dir, stored), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(out, io.NewSectionReader(content, 0, size)); err != nil {
		out.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return UploadPrefix + stored, nil
}
