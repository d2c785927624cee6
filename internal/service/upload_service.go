package service

import (
	"fmt"
	"os"
	"path/filepath"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/config"
	"depanku-backend/pkg/validator"
)

// UploadService stores user-submitted files under the configured upload
// directory. Only images are accepted; the content is sniffed, the declared
// extension alone is never trusted.
type UploadService struct {
	cfg *config.Config
}

func NewUploadService(cfg *config.Config) *UploadService {
	return &UploadService{cfg: cfg}
}

func (s *UploadService) SaveAvatar(userID uint, filename string, data []byte) (string, error) {
	if int64(len(data)) > s.cfg.MaxUploadSize {
		return "", apperrors.New(apperrors.ServerUpload)
	}
	if len(data) == 0 {
		return "", apperrors.New(apperrors.ValidationRequiredField)
	}

	detected := validator.DetectImageType(data)
	if detected == "" {
		return "", apperrors.New(apperrors.ValidationInvalidFormat)
	}
	if !validator.ValidateImageExtension(filename) {
		return "", apperrors.New(apperrors.ValidationInvalidFormat)
	}

	dir := filepath.Join(s.cfg.UploadDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Wrap(apperrors.ServerUpload, err)
	}

	name := fmt.Sprintf("%d%s", userID, extensionFor(detected))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.Wrap(apperrors.ServerUpload, err)
	}

	return "/uploads/avatars/" + name, nil
}

// DeleteAvatar removes the stored avatar file. A missing file is not an
// error; the URL may point at an external image.
func (s *UploadService) DeleteAvatar(url string) error {
	name := filepath.Base(url)
	if name == "." || name == "/" {
		return nil
	}

	path := filepath.Join(s.cfg.UploadDir, "avatars", name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.ServerUpload, err)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
