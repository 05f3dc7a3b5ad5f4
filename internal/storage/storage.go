// Package storage persists uploaded product images and returns their public
// URLs.
package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PublicPrefix is the URL path uploaded files are served under.
const PublicPrefix = "/uploads/"

// MaxUploadBytes caps a single image upload.
const MaxUploadBytes = 10 << 20

// ErrTooLarge is returned when an upload exceeds MaxUploadBytes.
var ErrTooLarge = errors.New("storage: upload too large")

// ErrUnsupportedType is returned for content that is not an image.
var ErrUnsupportedType = errors.New("storage: unsupported content type")

// Storage stores an object and returns the URL it is reachable at.
type Storage interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Local writes objects to a directory served by the HTTP layer.
type Local struct {
	dir    string
	host   string
	logger *zap.Logger
}

// NewLocal stores files in dir. host, when set, prefixes returned URLs.
func NewLocal(dir, host string, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create upload dir %s", dir)
	}
	return &Local{dir: dir, host: strings.TrimRight(host, "/"), logger: logger}, nil
}

// Dir returns the directory files are written to.
func (l *Local) Dir() string { return l.dir }

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/avif": ".avif",
}

// ObjectName returns a random object name keeping a known image extension.
func ObjectName(name, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if byType, ok := extByType[strings.ToLower(contentType)]; ok {
		if ext == "" || ext == ".jpeg" {
			ext = byType
		}
	} else if contentType != "" && contentType != "application/octet-stream" {
		return "", ErrUnsupportedType
	}
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif":
	default:
		return "", ErrUnsupportedType
	}
	return uuid.NewString() + ext, nil
}

func (l *Local) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	object, err := ObjectName(name, contentType)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(l.dir, object)
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create object")
	}
	n, err := io.Copy(f, io.LimitReader(r, MaxUploadBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxUploadBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(target)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", errors.Wrap(err, "write object")
	}
	l.logger.Info("storage: stored upload", zap.String("object", object), zap.Int64("bytes", n))
	return l.host + path.Join(PublicPrefix, object), nil
}
