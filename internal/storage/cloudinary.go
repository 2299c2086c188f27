package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStorage stores images in a Cloudinary folder. Keys are the
// Cloudinary public ids.
type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStorage(cloudinaryURL, folder string) (*CloudinaryStorage, error) {
	if strings.TrimSpace(cloudinaryURL) == "" {
		return nil, errors.New("cloudinary url is empty")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	return &CloudinaryStorage{cld: cld, folder: strings.Trim(folder, "/")}, nil
}

func (s *CloudinaryStorage) Put(ctx context.Context, obj Object) (*StoredObject, error) {
	resp, err := s.cld.Upload.Upload(ctx, obj.Body, uploader.UploadParams{
		PublicID:     baseName(obj.Name),
		Folder:       s.folder,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return &StoredObject{
		Key:  resp.PublicID,
		URL:  resp.SecureURL,
		Size: int64(resp.Bytes),
	}, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, key string) error {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     key,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %q: %w", key, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %q: %s", key, resp.Error.Message)
	}

	switch resp.Result {
	case "ok":
		return nil
	case "not found":
		return ErrNotFound
	default:
		return fmt.Errorf("cloudinary destroy %q: unexpected result %q", key, resp.Result)
	}
}
