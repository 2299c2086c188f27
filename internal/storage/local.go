package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps objects on disk under root; they are served by the
// HTTP server below publicBase.
type LocalStorage struct {
	root       string
	publicBase string
	now        func() time.Time
}

func NewLocalStorage(root, publicBase string) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{
		root:       abs,
		publicBase: strings.TrimRight(publicBase, "/"),
		now:        time.Now,
	}, nil
}

func (s *LocalStorage) Root() string { return s.root }

func (s *LocalStorage) Put(ctx context.Context, obj Object) (*StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := NewKey(obj.Name, obj.ContentType, s.now())
	absPath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(dst, ctxReader{ctx: ctx, r: obj.Body})
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &StoredObject{
		Key:  key,
		URL:  s.publicBase + "/" + key,
		Size: n,
	}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	absPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(absPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *LocalStorage) path(key string) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	absPath := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(absPath, s.root+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return absPath, nil
}

// SweepOrphans removes files last modified before cutoff that referenced
// reports as unknown. It returns the number of files removed.
func (s *LocalStorage) SweepOrphans(ctx context.Context, cutoff time.Time, referenced func(ctx context.Context, key string) (bool, error)) (int, error) {
	removed := 0
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		ok, err := referenced(ctx, key)
		if err != nil {
			return fmt.Errorf("check %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		removed++
		return nil
	})
	return removed, err
}
