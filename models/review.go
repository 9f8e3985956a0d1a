package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review moderation states.
const (
	ReviewPending  = "Pending"
	ReviewApproved = "Approved"
)

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	BookID    primitive.ObjectID `bson:"bookId" json:"bookId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	UserName  string             `bson:"userName,omitempty" json:"userName,omitempty"`
	UserPhoto string             `bson:"userPhoto,omitempty" json:"userPhoto,omitempty"`
	Rating    int                `bson:"rating" json:"rating"`
	Text      string             `bson:"text" json:"text"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// RatingStats is the result of grouping approved reviews by book.
type RatingStats struct {
	BookID      primitive.ObjectID `bson:"_id"`
	AvgRating   float64            `bson:"avgRating"`
	ReviewCount int                `bson:"reviewCount"`
}
