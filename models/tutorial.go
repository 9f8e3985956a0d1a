package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Tutorial struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title" validate:"required,max=200"`
	YoutubeLink string             `bson:"youtubeLink" json:"youtubeLink" validate:"required,url"`
}
