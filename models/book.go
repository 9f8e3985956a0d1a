package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Book struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title" validate:"required,max=300"`
	Author      string             `bson:"author" json:"author" validate:"required,max=200"`
	Genre       string             `bson:"genre" json:"genre" validate:"required,max=100"`
	CoverImage  string             `bson:"coverImage,omitempty" json:"coverImage,omitempty" validate:"omitempty,url"`
	Description string             `bson:"description,omitempty" json:"description,omitempty" validate:"max=5000"`
	ISBN        string             `bson:"isbn,omitempty" json:"isbn,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// BookStats are the aggregated review and shelf figures for one book.
type BookStats struct {
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int     `json:"reviewCount"`
	ShelfCount  int     `json:"shelfCount"`
}

// BookWithStats is a book as returned by browse and recommendation endpoints.
type BookWithStats struct {
	Book      `bson:",inline"`
	BookStats `bson:",inline"`
}

// GenreCount is one row of a books-per-genre or read-genre tally.
type GenreCount struct {
	Genre string `bson:"_id" json:"genre"`
	Count int    `bson:"count" json:"count"`
}
