// models/movie.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Movie is a catalog entry owned by the user who created it
type Movie struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"userId" bson:"userId"`
	Title         string             `json:"title" bson:"title"`
	Description   string             `json:"description,omitempty" bson:"description,omitempty"`
	ReleaseYear   int                `json:"releaseYear,omitempty" bson:"releaseYear,omitempty"`
	Genre         string             `json:"genre,omitempty" bson:"genre,omitempty"`
	Rating        float64            `json:"rating,omitempty" bson:"rating,omitempty"`
	Duration      int                `json:"duration,omitempty" bson:"duration,omitempty"`
	Language      string             `json:"language,omitempty" bson:"language,omitempty"`
	Country       string             `json:"country,omitempty" bson:"country,omitempty"`
	ImagePath     string             `json:"imagePath,omitempty" bson:"imagePath,omitempty"`
	ThumbnailPath string             `json:"thumbnailPath,omitempty" bson:"thumbnailPath,omitempty"`
	ImageObjects  []string           `json:"-" bson:"imageObjects,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// MovieRequest is bound from a multipart form or JSON body.
// Pointer fields distinguish "not sent" from zero values on update.
type MovieRequest struct {
	Title       *string  `json:"title" form:"title" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" form:"description" validate:"omitempty,max=2000"`
	ReleaseYear *int     `json:"releaseYear" form:"releaseYear" validate:"omitempty,min=1870,max=2100"`
	Genre       *string  `json:"genre" form:"genre" validate:"omitempty,max=64"`
	Rating      *float64 `json:"rating" form:"rating" validate:"omitempty,min=0,max=10"`
	Duration    *int     `json:"duration" form:"duration" validate:"omitempty,min=1"`
	Language    *string  `json:"language" form:"language" validate:"omitempty,max=64"`
	Country     *string  `json:"country" form:"country" validate:"omitempty,max=64"`
}

// Apply copies the fields that were sent onto the movie.
func (r MovieRequest) Apply(m *Movie) {
	if r.Title != nil {
		m.Title = *r.Title
	}
	if r.Description != nil {
		m.Description = *r.Description
	}
	if r.ReleaseYear != nil {
		m.ReleaseYear = *r.ReleaseYear
	}
	if r.Genre != nil {
		m.Genre = *r.Genre
	}
	if r.Rating != nil {
		m.Rating = *r.Rating
	}
	if r.Duration != nil {
		m.Duration = *r.Duration
	}
	if r.Language != nil {
		m.Language = *r.Language
	}
	if r.Country != nil {
		m.Country = *r.Country
	}
}
