package repository

import (
	"context"
	"strings"
	"time"

	"imagevault/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

type uploadModel struct {
	ID         int64      `gorm:"column:id;primaryKey"`
	UserID     int64      `gorm:"column:user_id;not null;index:idx_uploads_user_created,priority:1"`
	StorageKey string     `gorm:"column:storage_key;not null;uniqueIndex:idx_uploads_storage_key"`
	URL        string     `gorm:"column:url;not null"`
	MimeType   string     `gorm:"column:mime_type;size:100;not null"`
	Size       int64      `gorm:"column:size;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;index:idx_uploads_user_created,priority:2"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
	User       *userModel `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
}

func (uploadModel) TableName() string { return "uploads" }

// Models lists the persistent models in dependency order for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&userModel{}, &uploadModel{}}
}

// client-facing sort field -> column
var uploadSortColumns = map[string]string{
	domain.SortCreatedAt:  "created_at",
	domain.SortSizeBytes:  "size",
	domain.SortStorageKey: "storage_key",
}

// IsSortable reports whether field may be used to order an upload listing.
func IsSortable(field string) bool {
	_, ok := uploadSortColumns[field]
	return ok
}

func toDomainUpload(m uploadModel) *domain.Upload {
	u := &domain.Upload{
		ID:         m.ID,
		UserID:     m.UserID,
		StorageKey: m.StorageKey,
		URL:        m.URL,
		MimeType:   m.MimeType,
		Size:       m.Size,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.User != nil {
		owner := toDomainUser(*m.User).Summary()
		u.Owner = &owner
	}
	return u
}

func toUploadModel(u *domain.Upload) uploadModel {
	return uploadModel{
		ID:         u.ID,
		UserID:     u.UserID,
		StorageKey: u.StorageKey,
		URL:        u.URL,
		MimeType:   u.MimeType,
		Size:       u.Size,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func (r *UploadRepository) Create(ctx context.Context, u *domain.Upload) error {
	m := toUploadModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	*u = *toDomainUpload(m)
	return nil
}

func (r *UploadRepository) GetByID(ctx context.Context, id int64) (*domain.Upload, error) {
	var m uploadModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return toDomainUpload(m), nil
}

// UpdateIfKey points the record at a new object, but only while it still
// references oldKey. It reports false when another writer got there first.
func (r *UploadRepository) UpdateIfKey(ctx context.Context, u *domain.Upload, oldKey string) (bool, error) {
	now := time.Now()
	tx := r.db.WithContext(ctx).
		Model(&uploadModel{}).
		Where("id = ? AND storage_key = ?", u.ID, oldKey).
		Updates(map[string]interface{}{
			"storage_key": u.StorageKey,
			"url":         u.URL,
			"mime_type":   u.MimeType,
			"size":        u.Size,
			"updated_at":  now,
		})
	if tx.Error != nil {
		if isUniqueViolation(tx.Error) {
			return false, ErrDuplicate
		}
		return false, tx.Error
	}
	if tx.RowsAffected == 0 {
		return false, nil
	}
	u.UpdatedAt = now
	return true, nil
}

// KeyExists reports whether any record references key.
func (r *UploadRepository) KeyExists(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&uploadModel{}).
		Where("storage_key = ?", key).
		Count(&count).Error
	return count > 0, err
}

// DeleteIfKey removes the record only while it still references key.
func (r *UploadRepository) DeleteIfKey(ctx context.Context, id int64, key string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Where("id = ? AND storage_key = ?", id, key).
		Delete(&uploadModel{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ListByOwner returns one page of the owner's uploads and the total number
// of uploads matching the filter.
func (r *UploadRepository) ListByOwner(ctx context.Context, f domain.UploadFilter) ([]*domain.Upload, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&uploadModel{}).
		Where("user_id = ?", f.UserID)
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where(`LOWER(storage_key) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(s))+"%")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*domain.Upload{}, 0, nil
	}

	column, ok := uploadSortColumns[f.SortBy]
	if !ok {
		column = uploadSortColumns[domain.SortCreatedAt]
	}

	var rows []uploadModel
	err := q.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: f.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: f.Desc}).
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]*domain.Upload, 0, len(rows))
	for _, m := range rows {
		items = append(items, toDomainUpload(m))
	}
	return items, total, nil
}

// ListAll returns every upload with its owner, newest first.
func (r *UploadRepository) ListAll(ctx context.Context) ([]*domain.Upload, error) {
	var rows []uploadModel
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]*domain.Upload, 0, len(rows))
	for _, m := range rows {
		items = append(items, toDomainUpload(m))
	}
	return items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
