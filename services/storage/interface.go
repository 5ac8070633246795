package storage

import "context"

// ImageStore hosts generated images and hands back a public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, data []byte, mimeType string) (Upload, error)
	DeleteImage(ctx context.Context, publicID string) error
}

// Upload identifies a hosted image.
type Upload struct {
	PublicID  string `json:"publicId"`
	SecureURL string `json:"url"`
}
