package upload

import (
	"io"
	"mime/multipart"
	"time"

	"imagevault/internal/domain"
)

// File is one incoming file. Open may be called once per operation.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

func FromFileHeader(fh *multipart.FileHeader) File {
	return File{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

type ListQuery struct {
	Page   int    `form:"page" validate:"min=1"`
	Limit  int    `form:"limit" validate:"min=1,max=100"`
	Search string `form:"search" validate:"max=200"`
	SortBy string `form:"sortBy" validate:"oneof=createdAt sizeBytes storageKey"`
	Order  string `form:"order" validate:"oneof=asc desc"`
}

type ListMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type ListResult struct {
	Items []*domain.Upload
	Meta  ListMeta
}

type BatchFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

type BatchResult struct {
	Count   int              `json:"count"`
	Records []*domain.Upload `json:"records"`
	Failed  []BatchFailure   `json:"failed"`
}

type ReuploadResult struct {
	Before *domain.Upload `json:"before"`
	After  *domain.Upload `json:"after"`
}

type DeleteResult struct {
	ID         int64     `json:"id"`
	StorageKey string    `json:"storageKey"`
	URL        string    `json:"url"`
	Size       int64     `json:"sizeBytes"`
	MimeType   string    `json:"mimetype"`
	DeletedAt  time.Time `json:"deletedAt"`
}
