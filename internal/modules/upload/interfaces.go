package upload

import (
	"context"

	"imagevault/internal/domain"
	"imagevault/internal/storage"
)

type Repository interface {
	Create(ctx context.Context, u *domain.Upload) error
	GetByID(ctx context.Context, id int64) (*domain.Upload, error)
	UpdateIfKey(ctx context.Context, u *domain.Upload, oldKey string) (bool, error)
	DeleteIfKey(ctx context.Context, id int64, key string) (bool, error)
	ListByOwner(ctx context.Context, f domain.UploadFilter) ([]*domain.Upload, int64, error)
	ListAll(ctx context.Context) ([]*domain.Upload, error)
}

// Storage is the media store the service writes objects to.
type Storage = storage.Storage

// Notifier receives upload lifecycle events for the owning user.
type Notifier interface {
	Notify(userID int64, eventType string, payload interface{})
}
