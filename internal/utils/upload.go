package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const MaxUploadSize = 10 << 20 // 10 MB

var (
	ErrUploadTooLarge       = errors.New("uploaded file exceeds the maximum allowed size")
	ErrUploadTypeNotAllowed = errors.New("uploaded file type is not allowed")
)

// allowedUploadExtensions maps permitted answer-attachment extensions to the
// MIME prefixes the sniffed content must carry.
var allowedUploadExtensions = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument", "application/zip"},
	".txt":  {"text/plain"},
	".csv":  {"text/csv", "text/plain"},
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
}

// ValidateUpload checks the file against the size limit and the extension
// allow-list, sniffing the real content type rather than trusting the
// client-provided header. It returns the file bytes on success.
func ValidateUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > MaxUploadSize {
		return nil, ErrUploadTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	prefixes, ok := allowedUploadExtensions[ext]
	if !ok {
		return nil, ErrUploadTypeNotAllowed
	}

	handle, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer handle.Close()

	data, err := io.ReadAll(io.LimitReader(handle, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrUploadTooLarge
	}

	mime := mimetype.Detect(data)
	if !mimeMatches(mime.String(), prefixes) {
		return nil, ErrUploadTypeNotAllowed
	}

	return data, nil
}

func mimeMatches(detected string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(detected, prefix) {
			return true
		}
	}
	return false
}

// SaveUpload writes validated file bytes under dir with a collision-free
// name and returns the stored relative path.
func SaveUpload(dir, originalName string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.New().String() + ext
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store uploaded file: %w", err)
	}
	return path, nil
}
