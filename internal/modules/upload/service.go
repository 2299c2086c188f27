package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"time"

	"imagevault/internal/domain"
	"imagevault/internal/pkg/apperror"
	"imagevault/internal/pkg/validator"
	"imagevault/internal/realtime"
	"imagevault/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"gorm.io/gorm"
)

const (
	DefaultMaxFileSize   = 5 << 20
	DefaultMaxBatchFiles = 5
	DefaultStoreTimeout  = 15 * time.Second

	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	// bytes read up front for content sniffing
	sniffLen = 3072
)

var allowedMimeTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type Options struct {
	MaxFileSize   int64
	MaxBatchFiles int
	StoreTimeout  time.Duration
}

// Service owns the upload record lifecycle. Callers pass the acting user
// explicitly; the service never reads request state.
type Service struct {
	repo     Repository
	storage  Storage
	notifier Notifier
	opts     Options
}

func NewService(repo Repository, store Storage, notifier Notifier, opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.MaxBatchFiles <= 0 {
		opts.MaxBatchFiles = DefaultMaxBatchFiles
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	return &Service{repo: repo, storage: store, notifier: notifier, opts: opts}
}

func (s *Service) Options() Options { return s.opts }

// UploadSingle stores the file and then records it. If recording fails the
// stored object is removed again.
func (s *Service) UploadSingle(ctx context.Context, ownerID int64, f File) (*domain.Upload, error) {
	body, mime, err := s.openValidated(f)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	obj, err := s.put(ctx, f, body, mime)
	if err != nil {
		return nil, err
	}

	rec := &domain.Upload{
		UserID:     ownerID,
		StorageKey: obj.Key,
		URL:        obj.URL,
		MimeType:   mime,
		Size:       f.Size,
	}
	err = s.call(ctx, "create upload record", func(ctx context.Context) error {
		return s.repo.Create(ctx, rec)
	})
	if err != nil {
		s.discard(ctx, obj.Key, "orphan_object", 0, ownerID)
		return nil, err
	}

	audit("created", rec.ID, ownerID, rec.StorageKey, nil)
	s.notify(ownerID, realtime.EventUploadCreated, rec)
	return rec, nil
}

// UploadMultiple uploads each file independently. Files that succeeded stay
// stored even when later ones fail; if none succeed the first error is
// returned.
func (s *Service) UploadMultiple(ctx context.Context, ownerID int64, files []File) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > s.opts.MaxBatchFiles {
		return nil, ErrTooManyFiles
	}

	result := &BatchResult{
		Records: make([]*domain.Upload, 0, len(files)),
		Failed:  []BatchFailure{},
	}
	var firstErr error
	for i, f := range files {
		rec, err := s.UploadSingle(ctx, ownerID, f)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			result.Failed = append(result.Failed, BatchFailure{
				Index: i,
				Name:  f.Name,
				Error: apperror.PublicMessage(err),
			})
			continue
		}
		result.Records = append(result.Records, rec)
	}

	if len(result.Records) == 0 {
		return nil, firstErr
	}
	result.Count = len(result.Records)
	return result, nil
}

// List returns one page of the owner's uploads.
func (s *Service) List(ctx context.Context, ownerID int64, q ListQuery) (*ListResult, error) {
	q, err := normalizeListQuery(q)
	if err != nil {
		return nil, err
	}

	offset := int64(q.Page-1) * int64(q.Limit)
	if offset > math.MaxInt32 {
		offset = math.MaxInt32
	}
	filter := domain.UploadFilter{
		UserID: ownerID,
		Search: q.Search,
		SortBy: q.SortBy,
		Desc:   q.Order == "desc",
		Offset: int(offset),
		Limit:  q.Limit,
	}

	var (
		items []*domain.Upload
		total int64
	)
	err = s.call(ctx, "list uploads", func(ctx context.Context) error {
		var err error
		items, total, err = s.repo.ListByOwner(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Items: items,
		Meta: ListMeta{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
		},
	}, nil
}

// Get returns the owner's upload. Uploads of other users are reported as
// missing.
func (s *Service) Get(ctx context.Context, id, ownerID int64) (*domain.Upload, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.UserID != ownerID {
		return nil, ErrUploadNotFound
	}
	return rec, nil
}

// ListAll returns every upload with its owner. Callers must be admins.
func (s *Service) ListAll(ctx context.Context) ([]*domain.Upload, error) {
	var items []*domain.Upload
	err := s.call(ctx, "list all uploads", func(ctx context.Context) error {
		var err error
		items, err = s.repo.ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Reupload replaces the stored object behind an upload. The new object is
// stored before the record moves to it, and the old object is removed only
// after the record no longer references it.
func (s *Service) Reupload(ctx context.Context, id, ownerID int64, f File) (*ReuploadResult, error) {
	before, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.UserID != ownerID {
		return nil, ErrNotOwner
	}

	body, mime, err := s.openValidated(f)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	obj, err := s.put(ctx, f, body, mime)
	if err != nil {
		return nil, err
	}

	after := *before
	after.StorageKey = obj.Key
	after.URL = obj.URL
	after.MimeType = mime
	after.Size = f.Size

	var updated bool
	err = s.call(ctx, "update upload record", func(ctx context.Context) error {
		var err error
		updated, err = s.repo.UpdateIfKey(ctx, &after, before.StorageKey)
		return err
	})
	if err == nil && !updated {
		err = ErrConcurrentUpdate
	}
	if err != nil {
		s.discard(ctx, obj.Key, "orphan_object", id, ownerID)
		return nil, err
	}

	err = s.call(ctx, "delete replaced object", func(ctx context.Context) error {
		return s.storage.Delete(ctx, before.StorageKey)
	})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		// the record is already consistent; only the old object leaks
		audit("stale_object", id, ownerID, before.StorageKey, err)
	}

	audit("reuploaded", id, ownerID, after.StorageKey, nil)
	s.notify(ownerID, realtime.EventUploadReuploaded, &after)
	return &ReuploadResult{Before: before, After: &after}, nil
}

// Delete removes the stored object and then the record. When the object
// cannot be removed the record is kept so the delete can be retried.
func (s *Service) Delete(ctx context.Context, id, ownerID int64) (*DeleteResult, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.UserID != ownerID {
		return nil, ErrNotOwner
	}

	err = s.call(ctx, "delete object", func(ctx context.Context) error {
		return s.storage.Delete(ctx, rec.StorageKey)
	})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	var deleted bool
	err = s.call(ctx, "delete upload record", func(ctx context.Context) error {
		var err error
		deleted, err = s.repo.DeleteIfKey(ctx, rec.ID, rec.StorageKey)
		return err
	})
	if err != nil {
		audit("dangling_record", id, ownerID, rec.StorageKey, err)
		return nil, err
	}
	if !deleted {
		// a concurrent reupload moved the record to a new object
		return nil, ErrConcurrentUpdate
	}

	audit("deleted", id, ownerID, rec.StorageKey, nil)
	s.notify(ownerID, realtime.EventUploadDeleted, map[string]int64{"id": rec.ID})
	return &DeleteResult{
		ID:         rec.ID,
		StorageKey: rec.StorageKey,
		URL:        rec.URL,
		Size:       rec.Size,
		MimeType:   rec.MimeType,
		DeletedAt:  time.Now().UTC(),
	}, nil
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Upload, error) {
	if id <= 0 {
		return nil, ErrUploadNotFound
	}
	var rec *domain.Upload
	err := s.call(ctx, "get upload", func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *Service) put(ctx context.Context, f File, body io.Reader, mime string) (*storage.StoredObject, error) {
	var obj *storage.StoredObject
	err := s.call(ctx, "store object", func(ctx context.Context) error {
		var err error
		obj, err = s.storage.Put(ctx, storage.Object{
			Name:        f.Name,
			ContentType: mime,
			Size:        f.Size,
			Body:        body,
		})
		return err
	})
	return obj, err
}

// call runs one store operation under the store timeout.
func (s *Service) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrStorageTimeout.Wrap(fmt.Errorf("%s: %w", op, err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// discard removes an object no record points to. Failures are logged only.
func (s *Service) discard(ctx context.Context, key, event string, uploadID, ownerID int64) {
	err := s.call(context.WithoutCancel(ctx), "discard object", func(ctx context.Context) error {
		return s.storage.Delete(ctx, key)
	})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		audit(event, uploadID, ownerID, key, err)
	}
}

func (s *Service) notify(ownerID int64, eventType string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ownerID, eventType, payload)
}

// openValidated checks size and sniffed content type and returns a reader
// positioned at the start of the file.
func (s *Service) openValidated(f File) (io.ReadCloser, string, error) {
	if f.Open == nil {
		return nil, "", ErrNoFile
	}
	if f.Size <= 0 {
		return nil, "", ErrEmptyFile
	}
	if f.Size > s.opts.MaxFileSize {
		return nil, "", ErrFileTooLarge
	}

	rc, err := f.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		rc.Close()
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		rc.Close()
		return nil, "", ErrEmptyFile
	}
	head = head[:n]

	mime := mimetype.Detect(head).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !mimetype.EqualsAny(mime, allowedMimeTypes...) {
		rc.Close()
		return nil, "", ErrInvalidMimeType
	}

	return struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), rc), rc}, mime, nil
}

func normalizeListQuery(q ListQuery) (ListQuery, error) {
	if q.Page == 0 {
		q.Page = defaultPage
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	if q.SortBy == "" {
		q.SortBy = domain.SortCreatedAt
	}
	q.Order = strings.ToLower(strings.TrimSpace(q.Order))
	if q.Order == "" {
		q.Order = "desc"
	}

	fields := validator.Validate(q)
	if fields == nil {
		return q, nil
	}
	for _, check := range []struct {
		field string
		err   error
	}{
		{"sortBy", ErrInvalidSortField},
		{"order", ErrInvalidOrder},
		{"page", ErrInvalidPage},
		{"limit", ErrInvalidLimit},
	} {
		if _, bad := fields[check.field]; bad {
			return q, check.err
		}
	}
	return q, apperror.Validation("Invalid query parameters")
}

func audit(event string, uploadID, ownerID int64, key string, err error) {
	if err != nil {
		log.Printf("upload_audit event=%s upload_id=%d user_id=%d storage_key=%q error=%q", event, uploadID, ownerID, key, err.Error())
		return
	}
	log.Printf("upload_audit event=%s upload_id=%d user_id=%d storage_key=%q", event, uploadID, ownerID, key)
}
