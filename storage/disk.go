package storage

import (
	"chat-hub/domain"
	"chat-hub/domain/mimetypes"
	"chat-hub/errors"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DiskStorage keeps attachment bytes under a root directory.
// Tokens are "{subdir}/{uuid}{ext}": the original file name is never used on disk.
type DiskStorage struct {
	root string
	log  *slog.Logger
}

func NewDiskStorage(root string, log *slog.Logger) (*DiskStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{root: root, log: log}, nil
}

// Store sniffs the content type from the bytes, not from fileName.
func (d *DiskStorage) Store(ctx context.Context, data []byte, fileName, subdir string) (domain.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredFile{}, err
	}
	detected := mimetype.Detect(data)
	token := filepath.ToSlash(filepath.Join(cleanSubdir(subdir), uuid.NewString()+detected.Extension()))

	path, err := d.resolve(token)
	if err != nil {
		return domain.StoredFile{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.StoredFile{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.StoredFile{}, err
	}
	d.log.Debug("Attachment stored", "file", fileName, "token", token, "size", len(data))
	return domain.StoredFile{
		Token:    token,
		Size:     int64(len(data)),
		MimeType: string(mimetypes.Base(detected.String())),
	}, nil
}

// Delete removes the bytes behind a token. A missing file is not an error.
func (d *DiskStorage) Delete(_ context.Context, token string) error {
	path, err := d.resolve(token)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	d.log.Debug("Attachment removed", "token", token)
	return nil
}

// Open returns the bytes behind a token produced by Store.
func (d *DiskStorage) Open(token string) (io.ReadCloser, error) {
	path, err := d.resolve(token)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("attachment %w", errors.ErrNotFound)
	}
	return f, err
}

// resolve maps a token to a path, refusing anything that escapes root.
func (d *DiskStorage) resolve(token string) (string, error) {
	path := filepath.Join(d.root, filepath.FromSlash(token))
	rel, err := filepath.Rel(d.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: attachment token %q", errors.ErrSecurity, token)
	}
	return path, nil
}

func cleanSubdir(subdir string) string {
	subdir = strings.Trim(filepath.Base(filepath.Clean("/"+subdir)), "/.")
	if subdir == "" {
		return "files"
	}
	return subdir
}
