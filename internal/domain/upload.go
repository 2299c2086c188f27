package domain

import "time"

// Upload is the metadata row of one object held by the media store.
// StorageKey must reference a live object for as long as the row exists.
type Upload struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"userId"`
	StorageKey string       `json:"storageKey"`
	URL        string       `json:"url"`
	MimeType   string       `json:"mimetype"`
	Size       int64        `json:"sizeBytes"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	Owner      *UserSummary `json:"owner,omitempty"`
}

// Sortable upload fields as accepted from clients.
const (
	SortCreatedAt  = "createdAt"
	SortSizeBytes  = "sizeBytes"
	SortStorageKey = "storageKey"
)

// UploadFilter selects one page of an owner's uploads.
type UploadFilter struct {
	UserID int64
	Search string
	SortBy string
	Desc   bool
	Offset int
	Limit  int
}
