// Package storage writes generated try-on images to the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"modaflow/internal/tryon"
)

// FileStore saves images under a root directory. Keys are relative,
// slash-separated and cannot escape the root.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// SaveImage decodes img and writes it under a key derived from the time of
// generation, returning the full path written.
func (s *FileStore) SaveImage(ctx context.Context, img tryon.EncodedImage, generatedAt time.Time) (string, error) {
	data, err := img.Bytes()
	if err != nil {
		return "", fmt.Errorf("storage: decode image: %w", err)
	}
	key := ImageKey(img.MediaType, generatedAt)
	if _, err := s.Write(ctx, key, data); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// ImageKey names a generated image, e.g. "tryon/20250501-120000-1a2b3c4d.png".
func ImageKey(mediaType tryon.MediaType, generatedAt time.Time) string {
	ext := ".png"
	switch mediaType {
	case tryon.MediaTypeJPEG:
		ext = ".jpg"
	case tryon.MediaTypeWEBP:
		ext = ".webp"
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return "tryon/" + generatedAt.UTC().Format("20060102-150405") + "-" + suffix + ext
}

// Write persists data at key and returns the cleaned key.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return cleanKey, nil
}

func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
