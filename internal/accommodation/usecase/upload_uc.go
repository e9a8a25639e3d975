package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/5olen-tripshare/accommodation-api/internal/accommodation/domain"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/logger"
)

const (
	// MaxUploadCount bounds the number of attachments accepted per request.
	MaxUploadCount = 20
	// MaxUploadSize is the per-attachment size limit (5 MiB).
	MaxUploadSize = 5 * 1024 * 1024
)

var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Upload is one client-submitted attachment intended to become a listing image.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Storage is the blob-store collaborator accepting raw bytes and returning a
// stable reference string.
type Storage interface {
	Upload(ctx context.Context, objectKey, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, objectKey string) error
}

// UploadUsecase validates attachment batches and stores them, all-or-nothing.
type UploadUsecase struct {
	storage Storage
	logger  *logger.Logger
}

func NewUploadUsecase(storage Storage, log *logger.Logger) *UploadUsecase {
	return &UploadUsecase{
		storage: storage,
		logger:  log.Named("UploadUsecase"),
	}
}

// ValidateBatch checks every attachment and reports all offending files
// together. The whole batch is rejected if any single file is invalid.
func (uc *UploadUsecase) ValidateBatch(uploads []Upload) error {
	var problems []string
	if len(uploads) > MaxUploadCount {
		problems = append(problems, fmt.Sprintf("too many files: %d, maximum is %d", len(uploads), MaxUploadCount))
	}
	for _, u := range uploads {
		if !allowedUploadTypes[u.ContentType] {
			problems = append(problems, fmt.Sprintf("invalid file type: %s", u.Filename))
		}
		if u.Size > MaxUploadSize {
			problems = append(problems, fmt.Sprintf("file too large: %s", u.Filename))
		}
	}
	if len(problems) > 0 {
		return domain.NewValidationError(problems...)
	}
	return nil
}

// StoreBatch persists every attachment in submission order and returns their
// reference strings. If any write fails, all objects already written for this
// batch are removed before the error is returned, so no orphan survives.
func (uc *UploadUsecase) StoreBatch(ctx context.Context, uploads []Upload) ([]string, []string, error) {
	if err := uc.ValidateBatch(uploads); err != nil {
		return nil, nil, err
	}

	refs := make([]string, 0, len(uploads))
	keys := make([]string, 0, len(uploads))
	for _, u := range uploads {
		key := newObjectKey(u.Filename)
		ref, err := uc.storage.Upload(ctx, key, u.ContentType, u.Data)
		if err != nil {
			uc.logger.Error("UploadUsecase.StoreBatch: upload failed, cleaning up batch",
				zap.String("filename", u.Filename), zap.Int("stored_so_far", len(keys)), zap.Error(err))
			uc.RemoveBatch(ctx, keys)
			return nil, nil, fmt.Errorf("failed to store attachment %s: %w", u.Filename, err)
		}
		refs = append(refs, ref)
		keys = append(keys, key)
	}
	return refs, keys, nil
}

// RemoveBatch deletes the given object keys, logging but not failing on
// individual errors. Used for cleanup after a rejected or aborted write.
func (uc *UploadUsecase) RemoveBatch(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := uc.storage.Remove(ctx, key); err != nil {
			uc.logger.Warn("UploadUsecase.RemoveBatch: failed to remove object",
				zap.String("object_key", key), zap.Error(err))
		}
	}
}

// newObjectKey builds a collision-resistant object key from a timestamp prefix
// and a random suffix, keeping the original file extension.
func newObjectKey(filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("accommodations/%d-%s%s", time.Now().UnixNano(), uuid.New().String(), ext)
}
