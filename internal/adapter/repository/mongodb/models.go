package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/5olen-tripshare/accommodation-api/internal/accommodation/domain"
)

// accommodationDocument is the storage shape of a domain.Accommodation.
type accommodationDocument struct {
	ID          primitive.ObjectID    `bson:"_id,omitempty"`
	UserID      string                `bson:"user_id"`
	Name        string                `bson:"name"`
	Location    string                `bson:"location"`
	Description string                `bson:"description,omitempty"`
	Price       float64               `bson:"price"`
	Images      []string              `bson:"images"`
	TopCriteria []string              `bson:"top_criteria"`
	Interests   []string              `bson:"interests"`
	IsAvailable bool                  `bson:"is_available"`
	TotalPlaces int                   `bson:"total_places"`
	NumberRoom  int                   `bson:"number_room"`
	SquareMeter int                   `bson:"square_meter"`
	BedRoom     int                   `bson:"bed_room"`
	Reviews     reviewSummaryDocument `bson:"reviews"`
	CreatedAt   time.Time             `bson:"created_at"`
	UpdatedAt   time.Time             `bson:"updated_at"`
}

type reviewSummaryDocument struct {
	Rating float64 `bson:"rating"`
	Count  int64   `bson:"count"`
}

func fromDomainAccommodation(a *domain.Accommodation) *accommodationDocument {
	if a == nil {
		return nil
	}
	return &accommodationDocument{
		ID:          a.ID,
		UserID:      a.UserID,
		Name:        a.Name,
		Location:    a.Location,
		Description: a.Description,
		Price:       a.Price,
		Images:      a.Images,
		TopCriteria: a.TopCriteria,
		Interests:   a.Interests,
		IsAvailable: a.IsAvailable,
		TotalPlaces: a.TotalPlaces,
		NumberRoom:  a.NumberRoom,
		SquareMeter: a.SquareMeter,
		BedRoom:     a.BedRoom,
		Reviews: reviewSummaryDocument{
			Rating: a.Reviews.Rating,
			Count:  a.Reviews.Count,
		},
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (d *accommodationDocument) toDomainAccommodation() *domain.Accommodation {
	if d == nil {
		return nil
	}
	return &domain.Accommodation{
		ID:          d.ID,
		UserID:      d.UserID,
		Name:        d.Name,
		Location:    d.Location,
		Description: d.Description,
		Price:       d.Price,
		Images:      d.Images,
		TopCriteria: d.TopCriteria,
		Interests:   d.Interests,
		IsAvailable: d.IsAvailable,
		TotalPlaces: d.TotalPlaces,
		NumberRoom:  d.NumberRoom,
		SquareMeter: d.SquareMeter,
		BedRoom:     d.BedRoom,
		Reviews: domain.ReviewSummary{
			Rating: d.Reviews.Rating,
			Count:  d.Reviews.Count,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDomainAccommodations(docs []*accommodationDocument) []*domain.Accommodation {
	out := make([]*domain.Accommodation, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomainAccommodation())
	}
	return out
}
