package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/5olen-tripshare/accommodation-api/internal/accommodation/domain"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/logger"
)

// Cache is the read-through cache for fetch-by-id lookups.
type Cache interface {
	GetAccommodation(ctx context.Context, id string) (*domain.Accommodation, error)
	SetAccommodation(ctx context.Context, acc *domain.Accommodation) error
	DeleteAccommodation(ctx context.Context, id string) error
}

// EventPublisher emits domain events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// AccommodationInput carries the raw request fields of a create or full update.
// Scalars are string-typed as received, since multipart forms and JSON callers
// both produce text; coercion and validation happen exactly once, here.
type AccommodationInput struct {
	Name        string
	Location    string
	Description string
	Price       string
	TotalPlaces string
	NumberRoom  string
	SquareMeter string
	BedRoom     string
	IsAvailable string
	TopCriteria []string
	Interests   []string
}

// normalizedInput is an AccommodationInput after coercion, with defaults applied.
type normalizedInput struct {
	price       float64
	totalPlaces int
	numberRoom  int
	squareMeter int
	bedRoom     int
	isAvailable bool
}

// AccommodationUsecase implements the create/update/query logic around the
// repository, blob store, cache and event bus.
type AccommodationUsecase struct {
	repo     domain.AccommodationRepository
	uploader *UploadUsecase
	cache    Cache
	events   EventPublisher
	logger   *logger.Logger
}

func NewAccommodationUsecase(repo domain.AccommodationRepository, uploader *UploadUsecase, cache Cache, events EventPublisher, log *logger.Logger) *AccommodationUsecase {
	return &AccommodationUsecase{
		repo:     repo,
		uploader: uploader,
		cache:    cache,
		events:   events,
		logger:   log.Named("AccommodationUsecase"),
	}
}

// normalize coerces and validates the string-typed input. Every problem is
// collected so the caller sees them all at once.
func normalize(input AccommodationInput) (*normalizedInput, error) {
	var problems []string

	required := []struct {
		name  string
		value string
	}{
		{"name", input.Name},
		{"location", input.Location},
		{"price", input.Price},
		{"squareMeter", input.SquareMeter},
		{"totalPlaces", input.TotalPlaces},
		{"numberRoom", input.NumberRoom},
		{"bedRoom", input.BedRoom},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			problems = append(problems, fmt.Sprintf("%s is required", f.name))
		}
	}

	norm := &normalizedInput{isAvailable: true}

	if strings.TrimSpace(input.Price) != "" {
		price, err := strconv.ParseFloat(input.Price, 64)
		if err != nil || price < 0 {
			problems = append(problems, "price must be a non-negative number")
		} else {
			norm.price = price
		}
	}
	ints := []struct {
		name  string
		value string
		dst   *int
	}{
		{"totalPlaces", input.TotalPlaces, &norm.totalPlaces},
		{"numberRoom", input.NumberRoom, &norm.numberRoom},
		{"squareMeter", input.SquareMeter, &norm.squareMeter},
		{"bedRoom", input.BedRoom, &norm.bedRoom},
	}
	for _, f := range ints {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		n, err := strconv.Atoi(f.value)
		if err != nil || n < 0 {
			problems = append(problems, fmt.Sprintf("%s must be a non-negative integer", f.name))
		} else {
			*f.dst = n
		}
	}
	if strings.TrimSpace(input.IsAvailable) != "" {
		available, err := strconv.ParseBool(input.IsAvailable)
		if err != nil {
			problems = append(problems, "isAvailable must be a boolean")
		} else {
			norm.isAvailable = available
		}
	}

	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}
	return norm, nil
}

// tagsOrEmpty defaults absent tag lists to an empty slice, never nil.
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// Create validates the input, stores the attachment batch and persists a new
// accommodation owned by userID. The final image sequence is the freshly
// stored references followed by the caller-retained ones, in that order.
func (uc *AccommodationUsecase) Create(ctx context.Context, userID string, input AccommodationInput, uploads []Upload, retained []string) (*domain.Accommodation, error) {
	uc.logger.Info("Creating accommodation", zap.String("user_id", userID), zap.String("name", input.Name))

	if userID == "" {
		return nil, domain.ErrForbidden
	}
	norm, err := normalize(input)
	if err != nil {
		return nil, err
	}

	refs, keys, err := uc.uploader.StoreBatch(ctx, uploads)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	acc := &domain.Accommodation{
		UserID:      userID,
		Name:        input.Name,
		Location:    input.Location,
		Description: input.Description,
		Price:       norm.price,
		Images:      append(refs, retained...),
		TopCriteria: tagsOrEmpty(input.TopCriteria),
		Interests:   tagsOrEmpty(input.Interests),
		IsAvailable: norm.isAvailable,
		TotalPlaces: norm.totalPlaces,
		NumberRoom:  norm.numberRoom,
		SquareMeter: norm.squareMeter,
		BedRoom:     norm.bedRoom,
		Reviews:     domain.ReviewSummary{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, acc); err != nil {
		uc.logger.Error("Failed to persist accommodation, cleaning up stored attachments", zap.Error(err))
		uc.uploader.RemoveBatch(ctx, keys)
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	uc.publish(ctx, "accommodation.created", acc)
	uc.logger.Info("Accommodation created", zap.String("accommodation_id", acc.ID.Hex()))
	return acc, nil
}

// Update performs a full replace of the accommodation's mutable fields.
// Absent optional fields reset to their defaults; id, owner, the review
// aggregate and the creation timestamp are preserved from the stored record.
func (uc *AccommodationUsecase) Update(ctx context.Context, id primitive.ObjectID, userID string, input AccommodationInput, uploads []Upload, retained []string) (*domain.Accommodation, error) {
	uc.logger.Info("Updating accommodation", zap.String("accommodation_id", id.Hex()), zap.String("user_id", userID))

	current, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		uc.logger.Warn("Forbidden accommodation update",
			zap.String("accommodation_id", id.Hex()),
			zap.String("owner_id", current.UserID),
			zap.String("user_id", userID))
		return nil, domain.ErrForbidden
	}

	norm, err := normalize(input)
	if err != nil {
		return nil, err
	}

	refs, keys, err := uc.uploader.StoreBatch(ctx, uploads)
	if err != nil {
		return nil, err
	}

	updated := &domain.Accommodation{
		ID:          current.ID,
		UserID:      current.UserID,
		Name:        input.Name,
		Location:    input.Location,
		Description: input.Description,
		Price:       norm.price,
		Images:      append(refs, retained...),
		TopCriteria: tagsOrEmpty(input.TopCriteria),
		Interests:   tagsOrEmpty(input.Interests),
		IsAvailable: norm.isAvailable,
		TotalPlaces: norm.totalPlaces,
		NumberRoom:  norm.numberRoom,
		SquareMeter: norm.squareMeter,
		BedRoom:     norm.bedRoom,
		Reviews:     current.Reviews,
		CreatedAt:   current.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}

	if err := uc.repo.Replace(ctx, updated); err != nil {
		uc.logger.Error("Failed to replace accommodation, cleaning up stored attachments", zap.Error(err))
		uc.uploader.RemoveBatch(ctx, keys)
		return nil, err
	}

	uc.invalidate(ctx, id.Hex())
	uc.publish(ctx, "accommodation.updated", updated)
	return updated, nil
}

// PartialUpdate applies only the supplied fields and leaves the rest
// untouched. There is no required-field check on this path.
func (uc *AccommodationUsecase) PartialUpdate(ctx context.Context, id primitive.ObjectID, userID string, patch domain.Patch) (*domain.Accommodation, error) {
	uc.logger.Info("Partially updating accommodation", zap.String("accommodation_id", id.Hex()), zap.String("user_id", userID))

	var problems []string
	if patch.Price != nil && *patch.Price < 0 {
		problems = append(problems, "price must be a non-negative number")
	}
	numeric := []struct {
		name  string
		value *int
	}{
		{"totalPlaces", patch.TotalPlaces},
		{"numberRoom", patch.NumberRoom},
		{"squareMeter", patch.SquareMeter},
		{"bedRoom", patch.BedRoom},
	}
	for _, f := range numeric {
		if f.value != nil && *f.value < 0 {
			problems = append(problems, fmt.Sprintf("%s must be a non-negative integer", f.name))
		}
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	current, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := uc.repo.ApplyPatch(ctx, id, &patch)
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, id.Hex())
	uc.publish(ctx, "accommodation.updated", updated)
	return updated, nil
}

// Delete hard-deletes the accommodation. Deleting an absent id reports
// ErrNotFound, so a second delete of the same id fails.
func (uc *AccommodationUsecase) Delete(ctx context.Context, id primitive.ObjectID, userID string) error {
	uc.logger.Info("Deleting accommodation", zap.String("accommodation_id", id.Hex()), zap.String("user_id", userID))

	current, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.UserID != userID {
		return domain.ErrForbidden
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	uc.invalidate(ctx, id.Hex())
	uc.publish(ctx, "accommodation.deleted", map[string]interface{}{
		"accommodation_id": id.Hex(),
		"user_id":          userID,
	})
	return nil
}

// GetByID fetches one accommodation, read-through the cache.
func (uc *AccommodationUsecase) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Accommodation, error) {
	if uc.cache != nil {
		cached, err := uc.cache.GetAccommodation(ctx, id.Hex())
		if err != nil {
			uc.logger.Warn("Cache lookup failed", zap.String("accommodation_id", id.Hex()), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	acc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetAccommodation(ctx, acc); err != nil {
			uc.logger.Warn("Cache store failed", zap.String("accommodation_id", id.Hex()), zap.Error(err))
		}
	}
	return acc, nil
}

// ListAvailable returns the listings visible to the public: isAvailable only.
func (uc *AccommodationUsecase) ListAvailable(ctx context.Context) ([]*domain.Accommodation, error) {
	return uc.repo.FindAvailable(ctx)
}

// ListAll returns every listing regardless of availability.
func (uc *AccommodationUsecase) ListAll(ctx context.Context) ([]*domain.Accommodation, error) {
	return uc.repo.FindAll(ctx)
}

// ListByOwner returns the caller's own listings. An owner with no listings
// gets an empty sequence, not an error.
func (uc *AccommodationUsecase) ListByOwner(ctx context.Context, userID string) ([]*domain.Accommodation, error) {
	return uc.repo.FindByOwner(ctx, userID)
}

// Search matches the query as a case-insensitive substring of the name or the
// location, restricted to available listings.
func (uc *AccommodationUsecase) Search(ctx context.Context, query string) ([]*domain.Accommodation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("search query is required")
	}
	return uc.repo.Search(ctx, query)
}

func (uc *AccommodationUsecase) publish(ctx context.Context, subject string, data interface{}) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, subject, data); err != nil {
		// Events are best-effort; the write already succeeded.
		uc.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func (uc *AccommodationUsecase) invalidate(ctx context.Context, id string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteAccommodation(ctx, id); err != nil {
		uc.logger.Warn("Cache invalidation failed", zap.String("accommodation_id", id), zap.Error(err))
	}
}
