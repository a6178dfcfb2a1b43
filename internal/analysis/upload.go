package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultAllowedExtensions mirrors the spreadsheet types the service accepts
var DefaultAllowedExtensions = []string{".xlsx", ".xls"}

// DefaultMaxUploadBytes caps the size of a single upload
const DefaultMaxUploadBytes int64 = 20 * 1024 * 1024

// Upload is the single spreadsheet sent with an analysis request
type Upload struct {
	Name    string
	Path    string
	Content []byte
}

// NewUpload wraps in-memory content. Empty content is rejected so that no
// request can ever be issued without a file.
func NewUpload(name string, content []byte) (*Upload, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("file", "", "file name is required")
	}
	if len(content) == 0 {
		return nil, NewValidationError("file", name, "file is empty")
	}
	return &Upload{Name: name, Content: content}, nil
}

// Size returns the payload size in bytes
func (u *Upload) Size() int {
	if u == nil {
		return 0
	}
	return len(u.Content)
}

// Checksum returns the hex sha256 of the content
func (u *Upload) Checksum() string {
	sum := sha256.Sum256(u.Content)
	return hex.EncodeToString(sum[:])
}

// Same reports whether both uploads carry the same file: same name, same size
// and same content checksum
func (u *Upload) Same(other *Upload) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.Name == other.Name && u.Size() == other.Size() && u.Checksum() == other.Checksum()
}

// LoadOptions restricts which files LoadUpload accepts
type LoadOptions struct {
	AllowedExtensions []string
	MaxBytes          int64
}

// LoadUpload reads a spreadsheet from disk
func LoadUpload(path string, opts LoadOptions) (*Upload, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoFileSelected()
	}

	cleanPath := filepath.Clean(path)
	allowed := opts.AllowedExtensions
	if len(allowed) == 0 {
		allowed = DefaultAllowedExtensions
	}
	if !hasAllowedExtension(cleanPath, allowed) {
		return nil, NewValidationError("file", cleanPath,
			fmt.Sprintf("unsupported file type (expected one of: %s)", strings.Join(allowed, ", ")))
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, NewValidationError("file", cleanPath, "path is a directory")
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if info.Size() > maxBytes {
		return nil, NewValidationError("file", cleanPath,
			fmt.Sprintf("file is larger than %d bytes", maxBytes))
	}

	// #nosec G304 - path is cleaned and checked above
	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", cleanPath, err)
	}

	upload, err := NewUpload(filepath.Base(cleanPath), content)
	if err != nil {
		return nil, err
	}
	upload.Path = cleanPath
	return upload, nil
}

func hasAllowedExtension(path string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}
