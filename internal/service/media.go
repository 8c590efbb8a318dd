package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openfolio/portfolio-api/internal/ports"
)

const maxUploadBytes = 10 << 20 // 10 MiB

// MediaServiceOptions groups dependencies for MediaService.
type MediaServiceOptions struct {
	Uploader ports.MediaUploader
}

// MediaService validates admin image uploads and forwards them to the
// hosted media CDN.
type MediaService struct {
	uploader ports.MediaUploader
}

// NewMediaService constructs a new MediaService.
func NewMediaService(opts MediaServiceOptions) (*MediaService, error) {
	if opts.Uploader == nil {
		return nil, errors.New("media service: uploader is required")
	}
	return &MediaService{uploader: opts.Uploader}, nil
}

// Upload pushes an image to the CDN and returns its public URL.
func (s *MediaService) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", errors.New("upload is empty")
	}
	if len(content) > maxUploadBytes {
		return "", fmt.Errorf("upload exceeds %d bytes", maxUploadBytes)
	}
	if !allowedImageName(filename) {
		return "", errors.New("unsupported image type")
	}
	return s.uploader.Upload(ctx, filename, content)
}

func allowedImageName(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
