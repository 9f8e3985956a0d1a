package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleAdmin  = "Admin"
	RoleNormal = "Normal"
)

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"` // bcrypt hash
	Role        string             `bson:"role" json:"role"`
	Photo       string             `bson:"photo,omitempty" json:"photo,omitempty"`
	JoiningDate time.Time          `bson:"joiningDate" json:"joiningDate"`
}
