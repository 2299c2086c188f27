package upload

import "imagevault/internal/pkg/apperror"

var (
	ErrUploadNotFound  = apperror.NotFound("File not found")
	ErrNotOwner        = apperror.Forbidden("Forbidden action")
	ErrInvalidID       = apperror.Validation("Invalid ID")
	ErrNoFile          = apperror.Validation("No file uploaded")
	ErrNoFiles         = apperror.Validation("No files uploaded")
	ErrTooManyFiles    = apperror.Validation("Too many files in one request")
	ErrEmptyFile       = apperror.Validation("File is empty")
	ErrFileTooLarge    = apperror.Validation("File exceeds maximum allowed size")
	ErrInvalidMimeType = apperror.Validation("Only JPEG, PNG, GIF and WEBP images are allowed")
	ErrBodyTooLarge    = apperror.Validation("Request body too large")

	ErrInvalidSortField = apperror.Validation("Invalid sort field")
	ErrInvalidOrder     = apperror.Validation("Invalid sort order")
	ErrInvalidPage      = apperror.Validation("Page must be a positive integer")
	ErrInvalidLimit     = apperror.Validation("Limit must be a positive integer")

	ErrConcurrentUpdate = apperror.Conflict("File was modified by another request, please retry")
	ErrStorageTimeout   = apperror.Unavailable("Storage backend timed out", nil)
)
