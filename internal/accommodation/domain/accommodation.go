package domain

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound indicates that a requested accommodation was not found.
	ErrNotFound = errors.New("accommodation not found")
	// ErrForbidden indicates that the user is not authorized to perform the action.
	ErrForbidden = errors.New("action forbidden")
	// ErrRepository indicates a generic data persistence error.
	ErrRepository = errors.New("repository error")
)

// ValidationError collects every problem found while validating one request,
// so the caller can fix them all in a single round-trip.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// NewValidationError builds a ValidationError from the collected problems.
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// ReviewSummary is the rating aggregate maintained by the review pipeline.
// It is stored and returned with the accommodation but never writable through
// create or update.
type ReviewSummary struct {
	Rating float64
	Count  int64
}

// Accommodation is the listing record managed by this service.
// Mapping to database structures is handled by the repository implementation.
type Accommodation struct {
	ID          primitive.ObjectID
	UserID      string // owner, set once at creation from the authenticated identity
	Name        string
	Location    string
	Description string
	Price       float64
	Images      []string // ordered blob-store references, newest uploads first
	TopCriteria []string
	Interests   []string
	IsAvailable bool
	TotalPlaces int
	NumberRoom  int
	SquareMeter int
	BedRoom     int
	Reviews     ReviewSummary
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Patch holds the fields a partial update may touch. A nil field is left
// unchanged. ID, owner and the review aggregate are deliberately not
// representable here, so they can never be patched.
type Patch struct {
	Name        *string
	Location    *string
	Description *string
	Price       *float64
	Images      *[]string
	TopCriteria *[]string
	Interests   *[]string
	IsAvailable *bool
	TotalPlaces *int
	NumberRoom  *int
	SquareMeter *int
	BedRoom     *int
}

// IsEmpty reports whether the patch touches no field at all.
func (p *Patch) IsEmpty() bool {
	return p.Name == nil && p.Location == nil && p.Description == nil &&
		p.Price == nil && p.Images == nil && p.TopCriteria == nil &&
		p.Interests == nil && p.IsAvailable == nil && p.TotalPlaces == nil &&
		p.NumberRoom == nil && p.SquareMeter == nil && p.BedRoom == nil
}
