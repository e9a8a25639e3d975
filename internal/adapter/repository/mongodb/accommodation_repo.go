package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/5olen-tripshare/accommodation-api/internal/accommodation/domain"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/logger"
)

const accommodationCollectionName = "accommodations"

// AccommodationRepository implements domain.AccommodationRepository using MongoDB.
type AccommodationRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewAccommodationRepository creates the repository and ensures its indexes.
func NewAccommodationRepository(db *mongo.Database, log *logger.Logger) (*AccommodationRepository, error) {
	collection := db.Collection(accommodationCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},                                // owner-scoped queries
		{Keys: bson.D{{Key: "is_available", Value: 1}}},                           // public listing filter
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "location", Value: 1}}},      // search
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Indexes may already exist or be created out of band; don't fail startup.
		log.Error("Failed to create indexes for accommodations collection", zap.Error(err))
	} else {
		log.Info("Ensured indexes for accommodations collection")
	}

	return &AccommodationRepository{
		collection: collection,
		logger:     log.Named("AccommodationRepository"),
	}, nil
}

// Create inserts a new accommodation, assigning its id and timestamps.
func (r *AccommodationRepository) Create(ctx context.Context, acc *domain.Accommodation) error {
	doc := fromDomainAccommodation(acc)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	acc.ID = doc.ID

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
		acc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt
	acc.UpdatedAt = doc.UpdatedAt

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert accommodation", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}
	r.logger.Info("Accommodation inserted", zap.String("accommodation_id", doc.ID.Hex()))
	return nil
}

// GetByID retrieves one accommodation or domain.ErrNotFound.
func (r *AccommodationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Accommodation, error) {
	var doc accommodationDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get accommodation by id", zap.Error(err), zap.String("accommodation_id", id.Hex()))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainAccommodation(), nil
}

// FindAvailable returns every accommodation with is_available == true.
func (r *AccommodationRepository) FindAvailable(ctx context.Context) ([]*domain.Accommodation, error) {
	return r.find(ctx, bson.M{"is_available": true})
}

// FindAll returns every accommodation regardless of availability.
func (r *AccommodationRepository) FindAll(ctx context.Context) ([]*domain.Accommodation, error) {
	return r.find(ctx, bson.M{})
}

// FindByOwner returns the accommodations created by the given user. No match
// yields an empty slice, not an error.
func (r *AccommodationRepository) FindByOwner(ctx context.Context, userID string) ([]*domain.Accommodation, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// Search matches query as a case-insensitive substring of name or location,
// restricted to available accommodations. The query is quoted so regex
// metacharacters in user input match literally.
func (r *AccommodationRepository) Search(ctx context.Context, query string) ([]*domain.Accommodation, error) {
	return r.find(ctx, searchFilter(query))
}

func searchFilter(query string) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return bson.M{
		"is_available": true,
		"$or": []bson.M{
			{"name": pattern},
			{"location": pattern},
		},
	}
}

func (r *AccommodationRepository) find(ctx context.Context, filter bson.M) ([]*domain.Accommodation, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		r.logger.Error("Failed to find accommodations", zap.Any("filter", filter), zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*accommodationDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode accommodations", zap.Error(err))
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}
	return toDomainAccommodations(docs), nil
}

// Replace overwrites the whole document for a full update.
func (r *AccommodationRepository) Replace(ctx context.Context, acc *domain.Accommodation) error {
	if acc.ID.IsZero() {
		return errors.New("cannot replace accommodation without id")
	}
	doc := fromDomainAccommodation(acc)
	doc.UpdatedAt = time.Now().UTC()
	acc.UpdatedAt = doc.UpdatedAt

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		r.logger.Error("Failed to replace accommodation", zap.Error(err), zap.String("accommodation_id", doc.ID.Hex()))
		return fmt.Errorf("db replace failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApplyPatch sets only the supplied fields and returns the updated document.
func (r *AccommodationRepository) ApplyPatch(ctx context.Context, id primitive.ObjectID, patch *domain.Patch) (*domain.Accommodation, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Images != nil {
		set["images"] = *patch.Images
	}
	if patch.TopCriteria != nil {
		set["top_criteria"] = *patch.TopCriteria
	}
	if patch.Interests != nil {
		set["interests"] = *patch.Interests
	}
	if patch.IsAvailable != nil {
		set["is_available"] = *patch.IsAvailable
	}
	if patch.TotalPlaces != nil {
		set["total_places"] = *patch.TotalPlaces
	}
	if patch.NumberRoom != nil {
		set["number_room"] = *patch.NumberRoom
	}
	if patch.SquareMeter != nil {
		set["square_meter"] = *patch.SquareMeter
	}
	if patch.BedRoom != nil {
		set["bed_room"] = *patch.BedRoom
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc accommodationDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to patch accommodation", zap.Error(err), zap.String("accommodation_id", id.Hex()))
		return nil, fmt.Errorf("db findoneandupdate failed: %w", err)
	}
	return doc.toDomainAccommodation(), nil
}

// Delete hard-deletes the accommodation. A missing id reports ErrNotFound.
func (r *AccommodationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error("Failed to delete accommodation", zap.Error(err), zap.String("accommodation_id", id.Hex()))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("Accommodation deleted", zap.String("accommodation_id", id.Hex()))
	return nil
}
