package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccommodationRepository owns the persistence operations for accommodations.
type AccommodationRepository interface {
	Create(ctx context.Context, acc *Accommodation) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Accommodation, error)
	FindAvailable(ctx context.Context) ([]*Accommodation, error)
	FindAll(ctx context.Context) ([]*Accommodation, error)
	FindByOwner(ctx context.Context, userID string) ([]*Accommodation, error)
	Search(ctx context.Context, query string) ([]*Accommodation, error)
	Replace(ctx context.Context, acc *Accommodation) error
	ApplyPatch(ctx context.Context, id primitive.ObjectID, patch *Patch) (*Accommodation, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
