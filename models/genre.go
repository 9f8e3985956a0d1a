package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Genre struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title" validate:"required,max=100"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty" validate:"omitempty,url"`
	Description string             `bson:"description,omitempty" json:"description,omitempty" validate:"max=2000"`
}
