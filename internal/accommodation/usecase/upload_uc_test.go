package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5olen-tripshare/accommodation-api/internal/accommodation/domain"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/logger"
)

func newTestUploader(storage Storage) *UploadUsecase {
	return NewUploadUsecase(storage, logger.NewNop())
}

func TestValidateBatch_AcceptsJPEGAndPNG(t *testing.T) {
	uc := newTestUploader(&fakeStorage{})

	err := uc.ValidateBatch([]Upload{
		{Filename: "a.jpg", ContentType: "image/jpeg", Size: 1024},
		{Filename: "b.png", ContentType: "image/png", Size: 1024},
	})

	assert.NoError(t, err)
}

func TestValidateBatch_ReportsEveryProblemAtOnce(t *testing.T) {
	uc := newTestUploader(&fakeStorage{})

	err := uc.ValidateBatch([]Upload{
		{Filename: "movie.gif", ContentType: "image/gif", Size: 1024},
		{Filename: "huge.png", ContentType: "image/png", Size: MaxUploadSize + 1},
	})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Problems, "invalid file type: movie.gif")
	assert.Contains(t, validationErr.Problems, "file too large: huge.png")
}

func TestValidateBatch_BoundsTheFileCount(t *testing.T) {
	uc := newTestUploader(&fakeStorage{})

	batch := make([]Upload, MaxUploadCount+1)
	for i := range batch {
		batch[i] = Upload{Filename: fmt.Sprintf("img-%d.png", i), ContentType: "image/png", Size: 64}
	}

	var validationErr *domain.ValidationError
	require.ErrorAs(t, uc.ValidateBatch(batch), &validationErr)
	assert.NoError(t, uc.ValidateBatch(batch[:MaxUploadCount]))
}

func TestValidateBatch_EmptyBatchIsFine(t *testing.T) {
	uc := newTestUploader(&fakeStorage{})
	assert.NoError(t, uc.ValidateBatch(nil))
}

func TestStoreBatch_KeepsSubmissionOrderAndExtensions(t *testing.T) {
	storage := &fakeStorage{}
	uc := newTestUploader(storage)

	refs, keys, err := uc.StoreBatch(context.Background(), []Upload{
		{Filename: "front.jpg", ContentType: "image/jpeg", Size: 64, Data: []byte("jpg")},
		{Filename: "garden.png", ContentType: "image/png", Size: 64, Data: []byte("png")},
	})

	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Len(t, keys, 2)
	assert.Equal(t, keys, storage.keys)
	assert.True(t, strings.HasSuffix(keys[0], ".jpg"))
	assert.True(t, strings.HasSuffix(keys[1], ".png"))
	assert.NotEqual(t, keys[0], keys[1])
	for i, key := range keys {
		assert.True(t, strings.HasPrefix(key, "accommodations/"))
		assert.Contains(t, refs[i], key)
	}
}

func TestStoreBatch_RejectedBatchStoresNothing(t *testing.T) {
	storage := &fakeStorage{}
	uc := newTestUploader(storage)

	_, _, err := uc.StoreBatch(context.Background(), []Upload{
		{Filename: "fine.png", ContentType: "image/png", Size: 64},
		{Filename: "virus.exe", ContentType: "application/octet-stream", Size: 64},
	})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Empty(t, storage.keys)
}

func TestStoreBatch_MidBatchFailureRemovesStoredObjects(t *testing.T) {
	storage := &fakeStorage{failAt: 3}
	uc := newTestUploader(storage)

	_, _, err := uc.StoreBatch(context.Background(), []Upload{
		{Filename: "a.png", ContentType: "image/png", Size: 64},
		{Filename: "b.png", ContentType: "image/png", Size: 64},
		{Filename: "c.png", ContentType: "image/png", Size: 64},
	})

	require.Error(t, err)
	assert.Len(t, storage.removed, 2)
	assert.Equal(t, storage.keys, storage.removed)
}
