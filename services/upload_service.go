package services

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"service-platform-server/config"
)

// UploadService wraps Cloudinary image uploads
type UploadService struct {
	cld *cloudinary.Cloudinary
}

// NewUploadService initializes Cloudinary from CLOUDINARY_URL. Returns an
// error when the URL is missing or malformed.
func NewUploadService() (*UploadService, error) {
	url := config.AppConfig.Cloudinary.URL
	if url == "" {
		return nil, fmt.Errorf("CLOUDINARY_URL is not configured")
	}

	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &UploadService{cld: cld}, nil
}

// ValidateImageFile validates mimetype and size (<= 5MB)
func ValidateImageFile(h *multipart.FileHeader) bool {
	if h == nil || h.Size <= 0 || h.Size > 5*1024*1024 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(h.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}

// ValidateDocumentFile accepts images plus PDFs (<= 10MB) for application documents
func ValidateDocumentFile(h *multipart.FileHeader) bool {
	if h == nil || h.Size <= 0 || h.Size > 10*1024*1024 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(h.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".pdf":
		return true
	default:
		return false
	}
}

// Upload pushes a multipart file to the given folder and returns its secure URL
func (us *UploadService) Upload(ctx context.Context, header *multipart.FileHeader, folder string) (string, error) {
	if header == nil {
		return "", nil
	}

	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	ow := true
	uf := true
	up, err := us.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         folder,
		PublicID:       strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)),
		Overwrite:      &ow,
		UniqueFilename: &uf,
		ResourceType:   "auto",
	})
	if err != nil {
		return "", err
	}

	log.Printf("📸 Uploaded %s to %s", header.Filename, folder)
	return up.SecureURL, nil
}
