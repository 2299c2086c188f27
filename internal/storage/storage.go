// Package storage holds the media store backends. Every backend chooses the
// object key itself and reports it back, so the caller only ever deletes
// keys it was handed by Put.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the object is already absent from the store.
	ErrNotFound   = errors.New("storage: object not found")
	ErrInvalidKey = errors.New("storage: invalid object key")
)

// Object is one file handed to a backend.
type Object struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredObject describes an object after a successful Put.
type StoredObject struct {
	Key  string
	URL  string
	Size int64
}

type Storage interface {
	Put(ctx context.Context, obj Object) (*StoredObject, error)
	// Delete removes the object; ErrNotFound when it does not exist.
	Delete(ctx context.Context, key string) error
}

// NewKey builds a unique object key of the form YYYY/MM/DD/<uuid>_<name><ext>.
func NewKey(name, contentType string, now time.Time) string {
	return path.Join(datePrefix(now), baseName(name)+extFor(name, contentType))
}

func datePrefix(now time.Time) string {
	return fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day())
}

func baseName(name string) string {
	return uuid.New().String() + "_" + sanitizeName(name)
}

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" || name == "_" {
		return "file"
	}
	return name
}

func extFor(name, contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if ext := strings.ToLower(path.Ext(name)); len(ext) > 1 && len(ext) <= 6 {
		return ext
	}
	return ""
}

// validKey rejects keys that could escape the store's namespace.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// ctxReader stops a copy as soon as the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
