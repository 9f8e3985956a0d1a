package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shelf names. The strings are stored as-is and shown in the UI.
const (
	ShelfWantToRead       = "Want to Read"
	ShelfCurrentlyReading = "Currently Reading"
	ShelfRead             = "Read"
)

// ShelfEntry is a user's placement of one book. (userId, bookId) is unique.
type ShelfEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	BookID       primitive.ObjectID `bson:"bookId" json:"bookId"`
	Shelf        string             `bson:"shelf" json:"shelf"`
	Progress     int                `bson:"progress" json:"progress"`
	DateAdded    time.Time          `bson:"dateAdded" json:"dateAdded"`
	DateStarted  *time.Time         `bson:"dateStarted" json:"dateStarted"`
	DateFinished *time.Time         `bson:"dateFinished" json:"dateFinished"`
	UserRating   *int               `bson:"userRating" json:"userRating"`
}

// LibraryEntry is a shelf entry joined with its book for the my-library page.
type LibraryEntry struct {
	ShelfEntry `bson:",inline"`
	Book       *Book `bson:"book,omitempty" json:"book,omitempty"`
}

// ShelfCount is the number of shelf entries referencing a book.
type ShelfCount struct {
	BookID     primitive.ObjectID `bson:"_id"`
	ShelfCount int                `bson:"shelfCount"`
}
