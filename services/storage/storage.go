package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore implements ImageStore on Cloudinary.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cld *cloudinary.Cloudinary, folder string) *CloudinaryStore {
	return &CloudinaryStore{cld: cld, folder: folder}
}

// UploadImage uploads raw image bytes into the configured folder.
func (s *CloudinaryStore) UploadImage(ctx context.Context, data []byte, mimeType string) (Upload, error) {
	if len(data) == 0 {
		return Upload{}, fmt.Errorf("UploadImage: empty image")
	}
	params := uploader.UploadParams{
		Folder:       s.folder,
		ResourceType: "image",
	}
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), params)
	if err != nil {
		return Upload{}, fmt.Errorf("UploadImage: cloudinary upload failed: %w", err)
	}
	if result.Error.Message != "" {
		return Upload{}, fmt.Errorf("UploadImage: cloudinary rejected %s upload: %s", mimeType, result.Error.Message)
	}
	return Upload{PublicID: result.PublicID, SecureURL: result.SecureURL}, nil
}

// DeleteImage removes a hosted image.
func (s *CloudinaryStore) DeleteImage(ctx context.Context, publicID string) error {
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("DeleteImage: failed to delete %s: %w", publicID, err)
	}
	return nil
}
