package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentaspace/backend/internal/pkg/storage"
)

const (
	thumbnailMaxWidth  = 400
	thumbnailMaxHeight = 400
)

// allowedContentTypes lists the image types accepted for resource photos.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type Service interface {
	Upload(ctx context.Context, header *multipart.FileHeader, userID string) (*File, error)
	Get(ctx context.Context, id string) (*File, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *File, error)
	DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo    Repository
	storage storage.Storage
	imgProc *storage.ImageProcessor
}

func NewService(repo Repository, store storage.Storage) Service {
	return &service{
		repo:    repo,
		storage: store,
		imgProc: storage.NewImageProcessor(),
	}
}

func (s *service) Upload(ctx context.Context, header *multipart.FileHeader, userID string) (*File, error) {
	contentType := header.Header.Get("Content-Type")
	if !allowedContentTypes[contentType] {
		return nil, ErrUnsupportedType
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	// Buffer the content so it can be read twice (original + thumbnail).
	// Uploads are capped to image sizes by the router, so this is fine.
	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	storagePath := filepath.Join(id[:2], id+ext)

	if err := s.storage.Save(ctx, storagePath, bytes.NewReader(fileBytes)); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	f := &File{
		ID:          id,
		UserID:      userID,
		Filename:    header.Filename,
		StoragePath: storagePath,
		ContentType: contentType,
		Size:        int64(len(fileBytes)),
		CreatedAt:   time.Now().UTC(),
	}

	// Thumbnail generation is best effort; the original upload succeeds
	// even if the image cannot be decoded for resizing.
	thumb, err := s.imgProc.GenerateThumbnail(bytes.NewReader(fileBytes), thumbnailMaxWidth, thumbnailMaxHeight)
	if err != nil {
		log.Printf("thumbnail generation failed for file %s: %v", id, err)
	} else {
		thumbPath := filepath.Join(id[:2], id+"_thumb.jpg")
		if err := s.storage.Save(ctx, thumbPath, thumb); err != nil {
			log.Printf("failed to save thumbnail for file %s: %v", id, err)
		} else {
			f.ThumbnailPath = &thumbPath
		}
	}

	if err := s.repo.Create(ctx, f); err != nil {
		// Roll back the stored blobs; the record is the source of truth.
		_ = s.storage.Delete(ctx, storagePath)
		if f.ThumbnailPath != nil {
			_ = s.storage.Delete(ctx, *f.ThumbnailPath)
		}
		return nil, err
	}

	return f, nil
}

func (s *service) Get(ctx context.Context, id string) (*File, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Download(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.storage.Get(ctx, f.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return rc, f, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if f.ThumbnailPath == nil {
		return nil, nil, ErrNotFound
	}

	rc, err := s.storage.Get(ctx, *f.ThumbnailPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored thumbnail: %w", err)
	}
	return rc, f, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.storage.Delete(ctx, f.StoragePath)
	if f.ThumbnailPath != nil {
		_ = s.storage.Delete(ctx, *f.ThumbnailPath)
	}
	return nil
}
