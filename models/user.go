package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Role         string             `json:"role" bson:"role"`
	Status       string             `json:"status" bson:"status"`
	FirstName    string             `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName     string             `json:"lastName,omitempty" bson:"lastName,omitempty"`
	ProfileImage *string            `json:"profileImage" bson:"profileImage"`
	CreatedAt    *time.Time         `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

var UserSchema = Schema{
	Collection: "users",
	Fields: []Field{
		{Name: "name", Kind: NonEmptyString, Required: true},
		{Name: "email", Kind: NonEmptyString, Required: true},
		{Name: "role", Kind: NonEmptyString, Required: true},
		{Name: "status", Kind: String, Required: true},
		{Name: "firstName", Kind: NonEmptyString},
		{Name: "lastName", Kind: NonEmptyString},
		{Name: "profileImage", Kind: NullableString},
	},
}

// ProfileSchema covers the fields editable through the profile endpoint.
var ProfileSchema = Schema{
	Collection: "users",
	Fields: []Field{
		{Name: "firstName", Kind: NonEmptyString},
		{Name: "lastName", Kind: NonEmptyString},
		{Name: "email", Kind: NonEmptyString},
		{Name: "profileImage", Kind: NullableString},
	},
}

// Profile is the public view of a user returned by the profile endpoint.
type Profile struct {
	ID           primitive.ObjectID `json:"_id"`
	FirstName    string             `json:"firstName"`
	LastName     string             `json:"lastName"`
	Email        string             `json:"email"`
	ProfileImage *string            `json:"profileImage"`
	CreatedAt    *time.Time         `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		ProfileImage: u.Image(),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// Image returns the stored profile image reference, or nil when none is set.
func (u User) Image() *string {
	if u.ProfileImage == nil || *u.ProfileImage == "" {
		return nil
	}
	image := *u.ProfileImage
	return &image
}
