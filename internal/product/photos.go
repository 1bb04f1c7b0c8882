package product

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	thumbMaxWidth  = 480
	thumbMaxHeight = 480
)

// UploadImage saves the original and a bounded JPEG thumbnail, then records
// the image row. The first image of a product becomes its primary.
func (s *service) UploadImage(ctx context.Context, productID, actorID string, actorIsAdmin bool, header *multipart.FileHeader) (*Image, error) {
	if _, err := s.authorize(ctx, productID, actorID, actorIsAdmin); err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotAnImage
	}

	existing, err := s.repo.CountImages(ctx, productID)
	if err != nil {
		return nil, err
	}
	if existing >= MaxImages {
		return nil, ErrTooManyImages
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file failed: %w", err)
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file failed: %w", err)
	}

	imageID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	shard := imageID[:2]
	originalPath := fmt.Sprintf("products/%s/%s%s", shard, imageID, ext)
	thumbPath := fmt.Sprintf("products/%s/%s_thumb.jpg", shard, imageID)

	if err := s.storage.Save(ctx, originalPath, bytes.NewReader(fileBytes)); err != nil {
		return nil, fmt.Errorf("save product image failed: %w", err)
	}

	thumbReader, err := s.imgProc.GenerateThumbnail(bytes.NewReader(fileBytes), thumbMaxWidth, thumbMaxHeight)
	if err != nil {
		_ = s.storage.Delete(ctx, originalPath)
		return nil, fmt.Errorf("generate product thumbnail failed: %w", err)
	}
	if err := s.storage.Save(ctx, thumbPath, thumbReader); err != nil {
		_ = s.storage.Delete(ctx, originalPath)
		return nil, fmt.Errorf("save product thumbnail failed: %w", err)
	}

	img := &Image{
		ID:           imageID,
		ProductID:    productID,
		StoragePath:  originalPath,
		URL:          imageURL(imageID),
		ThumbnailURL: thumbnailURL(imageID),
		IsPrimary:    existing == 0,
	}
	if err := s.repo.AddImage(ctx, img); err != nil {
		_ = s.storage.Delete(ctx, originalPath)
		_ = s.storage.Delete(ctx, thumbPath)
		return nil, err
	}
	return img, nil
}

func (s *service) DeleteImage(ctx context.Context, imageID, actorID string, actorIsAdmin bool) error {
	img, err := s.repo.GetImage(ctx, imageID)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, img.ProductID, actorID, actorIsAdmin); err != nil {
		return err
	}

	s.removeImageFiles(ctx, img)
	return s.repo.DeleteImage(ctx, imageID)
}

func (s *service) SetPrimaryImage(ctx context.Context, productID, imageID, actorID string, actorIsAdmin bool) error {
	if _, err := s.authorize(ctx, productID, actorID, actorIsAdmin); err != nil {
		return err
	}
	return s.repo.SetPrimaryImage(ctx, productID, imageID)
}

func (s *service) OpenImage(ctx context.Context, imageID string, thumbnail bool) (io.ReadCloser, *Image, error) {
	img, err := s.repo.GetImage(ctx, imageID)
	if err != nil {
		return nil, nil, err
	}

	path := img.StoragePath
	if thumbnail {
		path = thumbStoragePath(img.StoragePath, img.ID)
	}

	stream, err := s.storage.Get(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open product image failed: %w", err)
	}
	return stream, img, nil
}

// removeImageFiles deletes the stored original and thumbnail. Best-effort:
// a dangling file is preferable to a failed delete of the database row.
func (s *service) removeImageFiles(ctx context.Context, img *Image) {
	if err := s.storage.Delete(ctx, img.StoragePath); err != nil {
		s.log.Warn().Err(err).Str("path", img.StoragePath).Msg("product image file delete failed")
	}
	thumb := thumbStoragePath(img.StoragePath, img.ID)
	if err := s.storage.Delete(ctx, thumb); err != nil {
		s.log.Warn().Err(err).Str("path", thumb).Msg("product thumbnail delete failed")
	}
}

func thumbStoragePath(originalPath, imageID string) string {
	return filepath.Join(filepath.Dir(originalPath), imageID+"_thumb.jpg")
}

func imageURL(id string) string {
	return "/v1/product-images/" + id
}

func thumbnailURL(id string) string {
	return "/v1/product-images/" + id + "/thumbnail"
}
