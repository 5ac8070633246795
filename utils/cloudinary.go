package utils

import (
	"fmt"

	"jepet/config"
	"jepet/services/storage"

	"github.com/cloudinary/cloudinary-go/v2"
)

// Cloudinary returns a Cloudinary-backed image store, or nil when hosting is not configured.
func Cloudinary() (storage.ImageStore, error) {
	if !config.CloudinaryEnabled() {
		return nil, nil
	}

	cfg := config.AppConfig
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("utils.Cloudinary: failed to initialize Cloudinary: %w", err)
	}
	return storage.NewCloudinaryStore(cld, cfg.CloudinaryFolder), nil
}
