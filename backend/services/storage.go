package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"coursehub/backend/config"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	ErrInvalidPath         = errors.New("invalid file path")
	ErrFileNotFound        = errors.New("file not found")
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// Storage keeps uploaded files under one root directory. Paths handed out
// and accepted are relative to that root and use forward slashes.
type Storage struct {
	Root              string
	MaxFileSize       int64
	AllowedExtensions []string
}

func NewStorage(cfg *config.Config) *Storage {
	return &Storage{
		Root:              cfg.UploadDir,
		MaxFileSize:       cfg.MaxFileSize,
		AllowedExtensions: cfg.AllowedExtensions,
	}
}

// Save validates and stores an uploaded file under subdir with a random name.
func (s *Storage) Save(fh *multipart.FileHeader, subdir string) (string, error) {
	return s.save(fh, subdir, s.AllowedExtensions)
}

// SaveImage is Save restricted to image extensions.
func (s *Storage) SaveImage(fh *multipart.FileHeader, subdir string) (string, error) {
	return s.save(fh, subdir, imageExtensions)
}

func (s *Storage) save(fh *multipart.FileHeader, subdir string, allowed []string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !contains(allowed, ext) {
		return "", fmt.Errorf("%w: %q", ErrExtensionNotAllowed, ext)
	}
	if s.MaxFileSize > 0 && fh.Size > s.MaxFileSize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, fh.Size, s.MaxFileSize)
	}

	rel := uuid.NewString() + ext
	if subdir = strings.Trim(filepath.ToSlash(subdir), "/"); subdir != "" {
		rel = subdir + "/" + rel
	}
	dst, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	// the header size comes from the client; enforce the limit on the bytes too
	limit := s.MaxFileSize
	if limit <= 0 {
		limit = 1<<63 - 1
	}
	n, err := io.Copy(out, io.LimitReader(src, limit+1))
	closeErr := out.Close()
	if err == nil && n > limit {
		err = ErrFileTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return rel, nil
}

// Resolve maps a stored relative path to an absolute one, refusing anything
// that would land outside the root.
func (s *Storage) Resolve(rel string) (string, error) {
	rel = filepath.ToSlash(strings.TrimSpace(rel))
	if rel == "" || strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

// Open resolves rel and checks that it names an existing regular file.
func (s *Storage) Open(rel string) (string, error) {
	full, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", ErrFileNotFound
	}
	return full, nil
}

func (s *Storage) Delete(rel string) error {
	full, err := s.Open(rel)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
