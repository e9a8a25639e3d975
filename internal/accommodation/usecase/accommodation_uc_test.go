package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/5olen-tripshare/accommodation-api/internal/accommodation/domain"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/logger"
)

type MockAccommodationRepository struct{ mock.Mock }

func (m *MockAccommodationRepository) Create(ctx context.Context, acc *domain.Accommodation) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}
func (m *MockAccommodationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Accommodation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Accommodation), args.Error(1)
}
func (m *MockAccommodationRepository) FindAvailable(ctx context.Context) ([]*domain.Accommodation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Accommodation), args.Error(1)
}
func (m *MockAccommodationRepository) FindAll(ctx context.Context) ([]*domain.Accommodation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Accommodation), args.Error(1)
}
func (m *MockAccommodationRepository) FindByOwner(ctx context.Context, userID string) ([]*domain.Accommodation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Accommodation), args.Error(1)
}
func (m *MockAccommodationRepository) Search(ctx context.Context, query string) ([]*domain.Accommodation, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Accommodation), args.Error(1)
}
func (m *MockAccommodationRepository) Replace(ctx context.Context, acc *domain.Accommodation) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}
func (m *MockAccommodationRepository) ApplyPatch(ctx context.Context, id primitive.ObjectID, patch *domain.Patch) (*domain.Accommodation, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Accommodation), args.Error(1)
}
func (m *MockAccommodationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeStorage records uploads and removals, optionally failing at a given call.
type fakeStorage struct {
	keys    []string
	removed []string
	failAt  int // 1-based call index that fails, 0 means never
}

func (f *fakeStorage) Upload(ctx context.Context, objectKey, contentType string, data []byte) (string, error) {
	if f.failAt > 0 && len(f.keys)+1 == f.failAt {
		return "", errors.New("storage unavailable")
	}
	f.keys = append(f.keys, objectKey)
	return "http://blob.local/accommodation-images/" + objectKey, nil
}

func (f *fakeStorage) Remove(ctx context.Context, objectKey string) error {
	f.removed = append(f.removed, objectKey)
	return nil
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockCache struct{ mock.Mock }

func (m *MockCache) GetAccommodation(ctx context.Context, id string) (*domain.Accommodation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Accommodation), args.Error(1)
}
func (m *MockCache) SetAccommodation(ctx context.Context, acc *domain.Accommodation) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}
func (m *MockCache) DeleteAccommodation(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestUsecase(repo domain.AccommodationRepository, storage Storage, cache Cache, events EventPublisher) *AccommodationUsecase {
	log := logger.NewNop()
	return NewAccommodationUsecase(repo, NewUploadUsecase(storage, log), cache, events, log)
}

func validInput() AccommodationInput {
	return AccommodationInput{
		Name:        "Loft A",
		Location:    "Paris",
		Price:       "120",
		TotalPlaces: "2",
		NumberRoom:  "1",
		SquareMeter: "30",
		BedRoom:     "1",
	}
}

func pngUpload(name string) Upload {
	return Upload{Filename: name, ContentType: "image/png", Size: 128, Data: []byte("png-bytes")}
}

func stubCreate(repo *MockAccommodationRepository) {
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Accommodation")).
		Run(func(args mock.Arguments) {
			acc := args.Get(1).(*domain.Accommodation)
			acc.ID = primitive.NewObjectID()
		}).
		Return(nil)
}

func TestCreate_Success(t *testing.T) {
	repo := new(MockAccommodationRepository)
	storage := &fakeStorage{}
	stubCreate(repo)

	uc := newTestUsecase(repo, storage, nil, nil)
	acc, err := uc.Create(context.Background(), "user-1", validInput(), []Upload{pngUpload("a.png"), pngUpload("b.png")}, nil)

	require.NoError(t, err)
	assert.False(t, acc.ID.IsZero())
	assert.Equal(t, "user-1", acc.UserID)
	assert.Equal(t, 120.0, acc.Price)
	assert.True(t, acc.IsAvailable)
	assert.Len(t, acc.Images, 2)
	assert.Equal(t, domain.ReviewSummary{Rating: 0, Count: 0}, acc.Reviews)
	assert.Equal(t, []string{}, acc.TopCriteria)
	assert.Equal(t, []string{}, acc.Interests)
	repo.AssertExpectations(t)
}

func TestCreate_MissingRequiredFields(t *testing.T) {
	repo := new(MockAccommodationRepository)
	uc := newTestUsecase(repo, &fakeStorage{}, nil, nil)

	_, err := uc.Create(context.Background(), "user-1", AccommodationInput{Name: "Loft A"}, nil, nil)

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Problems, "location is required")
	assert.Contains(t, validationErr.Problems, "price is required")
	assert.Contains(t, validationErr.Problems, "squareMeter is required")
	assert.Contains(t, validationErr.Problems, "totalPlaces is required")
	assert.Contains(t, validationErr.Problems, "numberRoom is required")
	assert.Contains(t, validationErr.Problems, "bedRoom is required")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_RejectsNegativeAndMalformedNumbers(t *testing.T) {
	uc := newTestUsecase(new(MockAccommodationRepository), &fakeStorage{}, nil, nil)

	input := validInput()
	input.Price = "-5"
	input.BedRoom = "two"

	_, err := uc.Create(context.Background(), "user-1", input, nil, nil)

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Problems, "price must be a non-negative number")
	assert.Contains(t, validationErr.Problems, "bedRoom must be a non-negative integer")
}

func TestCreate_ImagesAreUploadedThenRetained(t *testing.T) {
	repo := new(MockAccommodationRepository)
	storage := &fakeStorage{}
	stubCreate(repo)

	uc := newTestUsecase(repo, storage, nil, nil)
	retained := []string{"http://blob.local/accommodation-images/old-1.png", "http://blob.local/accommodation-images/old-2.png"}
	acc, err := uc.Create(context.Background(), "user-1", validInput(), []Upload{pngUpload("new.png")}, retained)

	require.NoError(t, err)
	require.Len(t, acc.Images, 3)
	assert.Equal(t, "http://blob.local/accommodation-images/"+storage.keys[0], acc.Images[0])
	assert.Equal(t, retained[0], acc.Images[1])
	assert.Equal(t, retained[1], acc.Images[2])
}

func TestCreate_InvalidAttachmentRejectsWholeBatch(t *testing.T) {
	repo := new(MockAccommodationRepository)
	storage := &fakeStorage{}
	uc := newTestUsecase(repo, storage, nil, nil)

	uploads := []Upload{
		pngUpload("fine.png"),
		{Filename: "notes.pdf", ContentType: "application/pdf", Size: 128},
	}
	_, err := uc.Create(context.Background(), "user-1", validInput(), uploads, nil)

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Problems, "invalid file type: notes.pdf")
	assert.Empty(t, storage.keys, "no file from a rejected batch may persist")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_StorageFailureCleansUpBatch(t *testing.T) {
	repo := new(MockAccommodationRepository)
	storage := &fakeStorage{failAt: 2}
	uc := newTestUsecase(repo, storage, nil, nil)

	_, err := uc.Create(context.Background(), "user-1", validInput(), []Upload{pngUpload("a.png"), pngUpload("b.png")}, nil)

	require.Error(t, err)
	assert.Equal(t, storage.keys, storage.removed, "every stored object of the failed batch must be removed")
}

func TestCreate_PersistenceFailureCleansUpBatch(t *testing.T) {
	repo := new(MockAccommodationRepository)
	storage := &fakeStorage{}
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("write concern error"))

	uc := newTestUsecase(repo, storage, nil, nil)
	_, err := uc.Create(context.Background(), "user-1", validInput(), []Upload{pngUpload("a.png")}, nil)

	require.ErrorIs(t, err, domain.ErrRepository)
	assert.Equal(t, storage.keys, storage.removed)
}

func TestCreate_PublishesEvent(t *testing.T) {
	repo := new(MockAccommodationRepository)
	events := new(MockPublisher)
	stubCreate(repo)
	events.On("Publish", mock.Anything, "accommodation.created", mock.Anything).Return(nil)

	uc := newTestUsecase(repo, &fakeStorage{}, nil, events)
	_, err := uc.Create(context.Background(), "user-1", validInput(), nil, nil)

	require.NoError(t, err)
	events.AssertExpectations(t)
}

func TestUpdate_FullReplaceResetsAbsentOptionalFields(t *testing.T) {
	repo := new(MockAccommodationRepository)
	id := primitive.NewObjectID()
	current := &domain.Accommodation{
		ID:          id,
		UserID:      "user-1",
		Name:        "Loft A",
		Location:    "Paris",
		TopCriteria: []string{"pool", "wifi"},
		Reviews:     domain.ReviewSummary{Rating: 4.5, Count: 12},
	}
	repo.On("GetByID", mock.Anything, id).Return(current, nil)
	repo.On("Replace", mock.Anything, mock.AnythingOfType("*domain.Accommodation")).Return(nil)

	uc := newTestUsecase(repo, &fakeStorage{}, nil, nil)
	input := validInput() // carries no topCriteria
	updated, err := uc.Update(context.Background(), id, "user-1", input, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{}, updated.TopCriteria, "absent optional fields reset to defaults on full update")
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, "user-1", updated.UserID)
	assert.Equal(t, domain.ReviewSummary{Rating: 4.5, Count: 12}, updated.Reviews, "reviews are never client-writable")
}

func TestUpdate_NotFound(t *testing.T) {
	repo := new(MockAccommodationRepository)
	id := primitive.NewObjectID()
	repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	uc := newTestUsecase(repo, &fakeStorage{}, nil, nil)
	_, err := uc.Update(context.Background(), id, "user-1", validInput(), nil, nil)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_ForbiddenForNonOwner(t *testing.T) {
	repo := new(MockAccommodationRepository)
	id := primitive.NewObjectID()
	repo.On("GetByID", mock.Anything, id).Return(&domain.Accommodation{ID: id, UserID: "owner"}, nil)

	uc := newTestUsecase(repo, &fakeStorage{}, nil, nil)
	_, err := uc.Update(context.Background(), id, "intruder", validInput(), nil, nil)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestPartialUpdate_OnlySuppliedFieldsReachTheRepository(t *testing.T) {
	repo := new(MockAccommodationRepository)
	id := primitive.NewObjectID()
	price := 99.0
	current := &domain.Accommodation{ID: id, UserID: "user-1", Name: "Loft A", Price: 120}
	updated := &domain.Accommodation{ID: id, UserID: "user-1", Name: "Loft A", Price: price}

	repo.On("GetByID", mock.Anything, id).Return(current, nil)
	repo.On("ApplyPatch", mock.Anything, id, mock.MatchedBy(func(p *domain.Patch) bool {
		return p.Price != nil && *p.Price == price &&
			p.Name == nil && p.Location == nil && p.Images == nil &&
			p.TopCriteria == nil && p.Interests == nil && p.IsAvailable == nil
	})).Return(updated, nil)

	uc := newTestUsecase(repo, &fakeStorage{}, nil, nil)
	got, err := uc.PartialUpdate(context.Background(), id, "user-1", domain.Patch{Price: &price})

	require.NoError(t, err)
	assert.Equal(t, "Loft A", got.Name, "untouched fields stay as they were")
	assert.Equal(t, price, got.Price)
	repo.AssertExpectations(t)
}

func TestPartialUpdate_RejectsNegativeNumbers(t *testing.T) {
	repo := new(MockAccommodationRepository)
	uc := newTestUsecase(repo, &fakeStorage{}, nil, nil)

	price := -1.0
	_, err := uc.PartialUpdate(context.Background(), primitive.NewObjectID(), "user-1", domain.Patch{Price: &price})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	repo.AssertNotCalled(t, "ApplyPatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_SecondDeleteReportsNotFound(t *testing.T) {
	repo := new(MockAccommodationRepository)
	id := primitive.NewObjectID()
	acc := &domain.Accommodation{ID: id, UserID: "user-1"}

	repo.On("GetByID", mock.Anything, id).Return(acc, nil).Once()
	repo.On("Delete", mock.Anything, id).Return(nil).Once()
	repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound).Once()

	uc := newTestUsecase(repo, &fakeStorage{}, nil, nil)

	require.NoError(t, uc.Delete(context.Background(), id, "user-1"))
	assert.ErrorIs(t, uc.Delete(context.Background(), id, "user-1"), domain.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestGetByID_ReadsThroughCache(t *testing.T) {
	repo := new(MockAccommodationRepository)
	cache := new(MockCache)
	id := primitive.NewObjectID()
	acc := &domain.Accommodation{ID: id, UserID: "user-1"}

	cache.On("GetAccommodation", mock.Anything, id.Hex()).Return(nil, nil).Once()
	repo.On("GetByID", mock.Anything, id).Return(acc, nil).Once()
	cache.On("SetAccommodation", mock.Anything, acc).Return(nil).Once()
	cache.On("GetAccommodation", mock.Anything, id.Hex()).Return(acc, nil).Once()

	uc := newTestUsecase(repo, &fakeStorage{}, cache, nil)

	first, err := uc.GetByID(context.Background(), id)
	require.NoError(t, err)
	second, err := uc.GetByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestListByOwner_NoListingsIsAnEmptySequence(t *testing.T) {
	repo := new(MockAccommodationRepository)
	repo.On("FindByOwner", mock.Anything, "user-1").Return([]*domain.Accommodation{}, nil)

	uc := newTestUsecase(repo, &fakeStorage{}, nil, nil)
	accs, err := uc.ListByOwner(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Empty(t, accs)
}

func TestSearch_EmptyQueryIsRejected(t *testing.T) {
	uc := newTestUsecase(new(MockAccommodationRepository), &fakeStorage{}, nil, nil)

	_, err := uc.Search(context.Background(), "   ")

	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
